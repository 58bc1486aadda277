package domain

import "time"

// OrderStatus enumerates lifecycle states for service orders.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusAccepted   OrderStatus = "ACCEPTED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Order is the aggregate for a customer booking a handyman for a service.
type Order struct {
	ID            string
	ExternalKey   string
	CustomerID    string
	HandymanID    string
	ServiceID     string
	Status        OrderStatus
	Description   string
	Address       string
	ScheduledDate time.Time
	Budget        *float64
	ActualPrice   *float64
	CancelReason  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// Rating is a customer review left on a completed order.
type Rating struct {
	ID         string
	OrderID    string
	HandymanID string
	CustomerID string
	Score      int
	Review     string
	CreatedAt  time.Time
}

// CanTransition reports whether an order may move from its current
// status to next. CANCELLED is reachable from any pre-completion state.
func (o *Order) CanTransition(next OrderStatus) bool {
	switch next {
	case OrderStatusAccepted:
		return o.Status == OrderStatusPending
	case OrderStatusInProgress:
		return o.Status == OrderStatusAccepted
	case OrderStatusCompleted:
		return o.Status == OrderStatusInProgress
	case OrderStatusCancelled:
		return o.Status == OrderStatusPending || o.Status == OrderStatusAccepted || o.Status == OrderStatusInProgress
	default:
		return false
	}
}
