package events

import (
	"time"

	"github.com/fix-it/marketplace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered     EventType = "user_registered"
	EventPasswordReset      EventType = "password_reset"
	EventOrderCreated       EventType = "order_created"
	EventOrderStatusChanged EventType = "order_status_changed"
	EventOrderRated         EventType = "order_rated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string          `json:"email"`
	Role  domain.UserRole `json:"role"`
}

// PasswordResetPayload payload.
type PasswordResetPayload struct {
	Email string `json:"email"`
}

// OrderCreatedPayload payload.
type OrderCreatedPayload struct {
	CustomerID string `json:"customer_id"`
	HandymanID string `json:"handyman_id"`
	ServiceID  string `json:"service_id"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	OldStatus domain.OrderStatus `json:"old_status"`
	NewStatus domain.OrderStatus `json:"new_status"`
	Reason    string             `json:"reason,omitempty"`
}

// OrderRatedPayload payload.
type OrderRatedPayload struct {
	HandymanID string `json:"handyman_id"`
	Score      int    `json:"score"`
}
