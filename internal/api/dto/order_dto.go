package dto

import (
	"time"

	"github.com/fix-it/marketplace/internal/domain"
)

// CreateOrderRequest payload.
type CreateOrderRequest struct {
	HandymanID    string    `json:"handyman_id"`
	ServiceID     string    `json:"service_id"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Budget        *float64  `json:"budget"`
}

// CancelOrderRequest payload.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CompleteOrderRequest payload.
type CompleteOrderRequest struct {
	ActualPrice *float64 `json:"actual_price"`
}

// RateOrderRequest payload.
type RateOrderRequest struct {
	Score  int    `json:"score"`
	Review string `json:"review"`
}

// OrderResponse response shape.
type OrderResponse struct {
	ID            string             `json:"id"`
	ExternalKey   string             `json:"external_key"`
	CustomerID    string             `json:"customer_id"`
	HandymanID    string             `json:"handyman_id"`
	ServiceID     string             `json:"service_id"`
	Status        domain.OrderStatus `json:"status"`
	Description   string             `json:"description"`
	Address       string             `json:"address"`
	ScheduledDate time.Time          `json:"scheduled_date"`
	Budget        *float64           `json:"budget,omitempty"`
	ActualPrice   *float64           `json:"actual_price,omitempty"`
	CancelReason  *string            `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
}

// NewOrderResponse maps a domain order.
func NewOrderResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:            order.ID,
		ExternalKey:   order.ExternalKey,
		CustomerID:    order.CustomerID,
		HandymanID:    order.HandymanID,
		ServiceID:     order.ServiceID,
		Status:        order.Status,
		Description:   order.Description,
		Address:       order.Address,
		ScheduledDate: order.ScheduledDate,
		Budget:        order.Budget,
		ActualPrice:   order.ActualPrice,
		CancelReason:  order.CancelReason,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		CompletedAt:   order.CompletedAt,
	}
}
