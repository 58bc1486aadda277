package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fix-it/marketplace/internal/api/dto"
	"github.com/fix-it/marketplace/internal/auth"
	"github.com/fix-it/marketplace/internal/domain"
	"github.com/fix-it/marketplace/internal/repository"
	"github.com/fix-it/marketplace/internal/service"
	apperrors "github.com/fix-it/marketplace/pkg/util"
)

// OrdersHandler serves the order lifecycle endpoints.
type OrdersHandler struct {
	orders *service.OrderService
}

func NewOrdersHandler(orders *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// Create handles POST /orders. Customer books a handyman for a service.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.HandymanID == "" || req.ServiceID == "" {
		return apperrors.NewValidationError("handyman_id and service_id required", nil)
	}
	if strings.TrimSpace(req.Address) == "" {
		return apperrors.NewValidationError("address required", nil)
	}

	order, err := h.orders.CreateOrder(c.Context(), principal.User.ID, service.OrderCreateInput{
		HandymanID:    req.HandymanID,
		ServiceID:     req.ServiceID,
		Description:   req.Description,
		Address:       req.Address,
		ScheduledDate: req.ScheduledDate,
		Budget:        req.Budget,
	})
	if err != nil {
		return mapOrderError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// List handles GET /orders. Customers see orders they placed, handymen
// see orders assigned to them.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := repository.OrderFilter{
		Statuses: parseStatuses(c.Query("status")),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}

	var (
		orders []domain.Order
		err    error
	)
	switch principal.User.Role {
	case domain.RoleHandyman:
		orders, err = h.orders.ListOrdersForHandyman(c.Context(), principal.User.ID, filter)
	default:
		orders, err = h.orders.ListOrdersForCustomer(c.Context(), principal.User.ID, filter)
	}
	if err != nil {
		return mapOrderError(err)
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, dto.NewOrderResponse(&orders[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	order, err := h.orders.GetOrder(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return mapOrderError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Accept handles POST /orders/:id/accept.
func (h *OrdersHandler) Accept(c *fiber.Ctx) error {
	return h.transition(c, func(ctx *fiber.Ctx, userID, orderID string) (*domain.Order, error) {
		return h.orders.Accept(ctx.Context(), userID, orderID)
	})
}

// Start handles POST /orders/:id/start.
func (h *OrdersHandler) Start(c *fiber.Ctx) error {
	return h.transition(c, func(ctx *fiber.Ctx, userID, orderID string) (*domain.Order, error) {
		return h.orders.Start(ctx.Context(), userID, orderID)
	})
}

// Complete handles POST /orders/:id/complete.
func (h *OrdersHandler) Complete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CompleteOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	order, err := h.orders.Complete(c.Context(), principal.User.ID, c.Params("id"), req.ActualPrice)
	if err != nil {
		return mapOrderError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrdersHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CancelOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	order, err := h.orders.Cancel(c.Context(), principal.User, c.Params("id"), req.Reason)
	if err != nil {
		return mapOrderError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Rate handles POST /orders/:id/rate.
func (h *OrdersHandler) Rate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.RateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Score < 1 || req.Score > 5 {
		return apperrors.NewValidationError("score must be between 1 and 5", map[string]any{"score": "Score must be between 1 and 5"})
	}

	rating, err := h.orders.Rate(c.Context(), principal.User.ID, c.Params("id"), service.RatingInput{
		Score:  req.Score,
		Review: req.Review,
	})
	if err != nil {
		return mapOrderError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":         rating.ID,
		"order_id":   rating.OrderID,
		"score":      rating.Score,
		"created_at": rating.CreatedAt,
	}})
}

func (h *OrdersHandler) transition(c *fiber.Ctx, fn func(*fiber.Ctx, string, string) (*domain.Order, error)) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	order, err := fn(c, principal.User.ID, c.Params("id"))
	if err != nil {
		return mapOrderError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

func parseStatuses(raw string) []domain.OrderStatus {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	statuses := make([]domain.OrderStatus, 0, len(parts))
	for _, p := range parts {
		s := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(p)))
		switch s {
		case domain.OrderStatusPending, domain.OrderStatusAccepted, domain.OrderStatusInProgress,
			domain.OrderStatusCompleted, domain.OrderStatusCancelled:
			statuses = append(statuses, s)
		}
	}
	return statuses
}

func mapOrderError(err error) error {
	switch {
	case errors.Is(err, service.ErrOrderAccessDenied):
		return apperrors.NewForbidden("not a participant of this order")
	case errors.Is(err, service.ErrInvalidTransition):
		return apperrors.NewConflict("order cannot move to the requested status", nil)
	case errors.Is(err, service.ErrHandymanUnavailable):
		return apperrors.NewConflict("handyman is not available for booking", nil)
	case errors.Is(err, service.ErrAlreadyRated):
		return apperrors.NewConflict("order already rated", nil)
	case errors.Is(err, service.ErrNotCompleted):
		return apperrors.NewConflict("only completed orders can be rated", nil)
	}
	return err
}
