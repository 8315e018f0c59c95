package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-marketplace/internal/api/dto"
	"github.com/spec-kit/flight-marketplace/internal/auth"
	"github.com/spec-kit/flight-marketplace/internal/domain"
	"github.com/spec-kit/flight-marketplace/internal/service"
	apperrors "github.com/spec-kit/flight-marketplace/pkg/util"
)

// MasterTicketsHandler serves the moderation surface.
type MasterTicketsHandler struct {
	tickets *service.TicketService
}

// NewMasterTicketsHandler returns a handler instance.
func NewMasterTicketsHandler(tickets *service.TicketService) *MasterTicketsHandler {
	return &MasterTicketsHandler{tickets: tickets}
}

// List returns tickets across all agencies, filterable by status and
// flight-date range.
func (h *MasterTicketsHandler) List(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListAllTickets(c.UserContext(), parseTicketFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketSummaries(tickets))
}

// Get returns any ticket aggregate regardless of owner.
func (h *MasterTicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("refId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// SetStatus moves a ticket to an explicit status with an optional comment.
func (h *MasterTicketsHandler) SetStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.SetStatus(c.UserContext(), principal.User.ID, c.Params("refId"),
		domain.TicketStatus(req.Status), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// RespondToEdit accepts or rejects a pending edit request.
func (h *MasterTicketsHandler) RespondToEdit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RespondToEditRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.tickets.RespondToEdit(c.UserContext(), principal.User.ID, c.Params("refId"), req.Accept)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// History returns the audit trail for any ticket.
func (h *MasterTicketsHandler) History(c *fiber.Ctx) error {
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
