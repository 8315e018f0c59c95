package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-marketplace/internal/api/dto"
	"github.com/spec-kit/flight-marketplace/internal/auth"
	"github.com/spec-kit/flight-marketplace/internal/domain"
	"github.com/spec-kit/flight-marketplace/internal/service"
	apperrors "github.com/spec-kit/flight-marketplace/pkg/util"
)

// TicketsHandler serves agency listing management and the affiliate search
// surface.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler returns a handler instance.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create lists new inventory: one pending ticket per flight date.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	created, err := h.tickets.CreateTickets(c.UserContext(), principal.User.ID, req.TicketPayload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketSummaries(created))
}

// ListOwn returns the agency's own tickets in any status.
func (h *TicketsHandler) ListOwn(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.tickets.ListAgencyTickets(c.UserContext(), principal.User.ID, parseTicketFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketSummaries(tickets))
}

// Get returns the agency's own ticket aggregate.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.GetTicketForAgency(c.UserContext(), principal.User.ID, c.Params("refId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// Resubmit fully replaces a rejected or pending listing.
func (h *TicketsHandler) Resubmit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.ResubmitTicket(c.UserContext(), principal.User.ID, c.Params("refId"), req.TicketPayload)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// RequestEdit proposes an edit on a live listing.
func (h *TicketsHandler) RequestEdit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RevisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.RequestEdit(c.UserContext(), principal.User.ID, c.Params("refId"), req.RevisionPayload)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// WithdrawEdit cancels a pending edit request.
func (h *TicketsHandler) WithdrawEdit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.WithdrawEdit(c.UserContext(), principal.User.ID, c.Params("refId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// ToggleStatus flips the agency's own listing between available and
// unavailable.
func (h *TicketsHandler) ToggleStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ToggleStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.ToggleStatus(c.UserContext(), principal.User.ID, c.Params("refId"), domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// Delete removes an inert listing.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), principal.User, c.Params("refId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// History returns the ticket's audit trail.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	entries, err := h.tickets.ListHistory(c.UserContext(), principal.User, c.Params("refId"),
		c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewHistoryEntries(entries))
}

// Search is the affiliate-facing availability listing.
func (h *TicketsHandler) Search(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListAvailableTickets(c.UserContext(), parseTicketFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketSummaries(tickets))
}

func parseTicketFilter(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.TicketStatus(strings.TrimSpace(part))
			if domain.IsValidStatus(status) {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if raw := c.Query("flightDateFrom"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			filter.FlightDateFrom = &parsed
		}
	}
	if raw := c.Query("flightDateTo"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			filter.FlightDateTo = &parsed
		}
	}
	return filter
}
