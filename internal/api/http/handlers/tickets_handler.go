package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/skilllink-support/internal/api/dto"
	"github.com/spec-kit/skilllink-support/internal/service"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

// TicketsHandler manages the public ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Name:       req.Name,
		Email:      req.Email,
		Subject:    req.Subject,
		Priority:   req.Priority,
		Department: req.Department,
		Message:    req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.CreateTicketResponse{
		Success:      true,
		TicketNumber: ticket.TicketNumber,
		Message:      "Support ticket created successfully",
	})
}

// GetTicket GET /api/tickets/:ticketNumber.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.NewTicketResponse(ticket)})
}

// UpdateStatus PATCH /api/tickets/:ticketNumber/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if _, err := h.service.UpdateStatus(c.UserContext(), c.Params("ticketNumber"), req.Status); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Ticket status updated successfully"})
}

// History GET /api/tickets/:ticketNumber/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "history": dto.NewTicketHistoryResponses(entries)})
}

// StatusSummary GET /api/tickets/stats/summary.
func (h *TicketsHandler) StatusSummary(c *fiber.Ctx) error {
	counts, err := h.service.StatusSummary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "stats": dto.NewStatusCountResponses(counts)})
}
