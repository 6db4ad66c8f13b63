package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coordination-service/internal/api/dto"
	"github.com/spec-kit/coordination-service/internal/auth"
	"github.com/spec-kit/coordination-service/internal/service"
	apperrors "github.com/spec-kit/coordination-service/pkg/util"
)

// TicketsHandler exposes the service ticket queue endpoints.
type TicketsHandler struct {
	queue *service.QueueService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(queue *service.QueueService) *TicketsHandler {
	return &TicketsHandler{queue: queue}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ServiceType) == "" {
		return apperrors.NewValidationError("service_type required", nil)
	}
	ticket, err := h.queue.Create(c.UserContext(), principal.TenantID, principal.BranchID, req.ServiceType, req.Meta)
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusCreated, ticketResponse(ticket))
}

// ClaimNext POST /tickets/next.
func (h *TicketsHandler) ClaimNext(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.ClaimTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ServiceType) == "" {
		return apperrors.NewValidationError("service_type required", nil)
	}
	ticket, err := h.queue.ClaimNext(c.UserContext(), operatorFrom(principal), req.ServiceType)
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusOK, ticketResponse(ticket))
}

// Start POST /tickets/:id/start.
func (h *TicketsHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	ticket, err := h.queue.Start(c.UserContext(), operatorFrom(principal), c.Params("id"))
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusOK, ticketResponse(ticket))
}

// Close POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	ticket, err := h.queue.Close(c.UserContext(), operatorFrom(principal), c.Params("id"))
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusOK, ticketResponse(ticket))
}

// Skip POST /tickets/:id/skip.
func (h *TicketsHandler) Skip(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	ticket, err := h.queue.Skip(c.UserContext(), operatorFrom(principal), c.Params("id"))
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusOK, ticketResponse(ticket))
}

// ListWaiting GET /tickets/waiting.
func (h *TicketsHandler) ListWaiting(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	serviceType := c.Query("service_type")
	if strings.TrimSpace(serviceType) == "" {
		return apperrors.NewValidationError("service_type required", nil)
	}
	limit := parseInt(c.Query("limit"), 50)
	tickets, err := h.queue.ListWaiting(c.UserContext(), principal.TenantID, principal.BranchID, serviceType, limit)
	if err != nil {
		return err
	}
	resp := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, ticketResponse(&tickets[i]))
	}
	return respondOK(c, http.StatusOK, resp)
}
