package worker

import (
	"context"

	"github.com/spec-kit/flight-marketplace/internal/service"
	"github.com/spec-kit/flight-marketplace/internal/sweeper"
)

// StartSweeper launches the expiration sweeper in its own goroutine.
func StartSweeper(ctx context.Context, s *sweeper.Sweeper) {
	if s == nil {
		return
	}
	go s.Run(ctx)
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
