package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coordination-service/internal/api/dto"
	"github.com/spec-kit/coordination-service/internal/auth"
	"github.com/spec-kit/coordination-service/internal/service"
	apperrors "github.com/spec-kit/coordination-service/pkg/util"
)

// OrdersHandler finalizes sales into work items.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orders *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// Create POST /orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.orders.CreateOrder(c.UserContext(), operatorFrom(principal), service.OrderCreateInput{
		TicketID:    req.TicketID,
		ServiceType: req.ServiceType,
		Channel:     req.Channel,
	})
	if err != nil {
		return err
	}
	return respondOK(c, http.StatusCreated, workItemResponse(item))
}
