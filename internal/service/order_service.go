package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fix-it/marketplace/internal/domain"
	"github.com/fix-it/marketplace/internal/events"
	"github.com/fix-it/marketplace/internal/repository"
)

// Order workflow errors surfaced to handlers.
var (
	ErrOrderAccessDenied   = errors.New("access denied")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrHandymanUnavailable = errors.New("handyman not available")
	ErrAlreadyRated        = errors.New("order already rated")
	ErrNotCompleted        = errors.New("order not completed")
)

// OrderService coordinates the service-order lifecycle.
type OrderService struct {
	orders     repository.OrderRepository
	handymen   repository.HandymanRepository
	services   repository.ServiceRepository
	ratings    repository.RatingRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// OrderDependencies bundles repositories for the order service.
type OrderDependencies struct {
	OrderRepo    repository.OrderRepository
	HandymanRepo repository.HandymanRepository
	ServiceRepo  repository.ServiceRepository
	RatingRepo   repository.RatingRepository
	Dispatcher   events.Dispatcher
}

// OrderCreateInput describes order creation payload.
type OrderCreateInput struct {
	HandymanID    string
	ServiceID     string
	Description   string
	Address       string
	ScheduledDate time.Time
	Budget        *float64
}

// RatingInput describes a review on a completed order.
type RatingInput struct {
	Score  int
	Review string
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		handymen:   deps.HandymanRepo,
		services:   deps.ServiceRepo,
		ratings:    deps.RatingRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateOrder books a handyman for a service on behalf of a customer.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, input OrderCreateInput) (*domain.Order, error) {
	handyman, err := s.handymen.GetByID(ctx, input.HandymanID)
	if err != nil {
		return nil, err
	}
	if !handyman.IsAvailable || handyman.Verification != domain.VerificationVerified {
		return nil, ErrHandymanUnavailable
	}

	svc, err := s.services.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, fmt.Errorf("service %s is not bookable", svc.ID)
	}
	offers, err := s.handymen.OffersService(ctx, handyman.ID, svc.ID)
	if err != nil {
		return nil, err
	}
	if !offers {
		return nil, fmt.Errorf("handyman does not offer service %s", svc.ID)
	}

	order := &domain.Order{
		ExternalKey:   generateOrderKey(),
		CustomerID:    customerID,
		HandymanID:    handyman.ID,
		ServiceID:     svc.ID,
		Status:        domain.OrderStatusPending,
		Description:   strings.TrimSpace(input.Description),
		Address:       strings.TrimSpace(input.Address),
		ScheduledDate: input.ScheduledDate,
		Budget:        input.Budget,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventOrderCreated,
		SubjectID: order.ID,
		Payload: events.OrderCreatedPayload{
			CustomerID: order.CustomerID,
			HandymanID: order.HandymanID,
			ServiceID:  order.ServiceID,
		},
	})
	return order, nil
}

// ListOrdersForCustomer returns a customer's own orders.
func (s *OrderService) ListOrdersForCustomer(ctx context.Context, customerID string, filter repository.OrderFilter) ([]domain.Order, error) {
	filter.CustomerID = &customerID
	filter.HandymanID = nil
	return s.listOrders(ctx, filter)
}

// ListOrdersForHandyman returns orders assigned to a handyman account.
func (s *OrderService) ListOrdersForHandyman(ctx context.Context, handymanUserID string, filter repository.OrderFilter) ([]domain.Order, error) {
	profile, err := s.handymen.GetByUserID(ctx, handymanUserID)
	if err != nil {
		return nil, err
	}
	filter.HandymanID = &profile.ID
	filter.CustomerID = nil
	return s.listOrders(ctx, filter)
}

// GetOrder fetches an order ensuring the caller participates in it.
func (s *OrderService) GetOrder(ctx context.Context, caller *domain.User, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, caller, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Accept moves a PENDING order to ACCEPTED. Handyman only.
func (s *OrderService) Accept(ctx context.Context, handymanUserID, orderID string) (*domain.Order, error) {
	return s.transitionAsHandyman(ctx, handymanUserID, orderID, domain.OrderStatusAccepted, "")
}

// Start moves an ACCEPTED order to IN_PROGRESS. Handyman only.
func (s *OrderService) Start(ctx context.Context, handymanUserID, orderID string) (*domain.Order, error) {
	return s.transitionAsHandyman(ctx, handymanUserID, orderID, domain.OrderStatusInProgress, "")
}

// Complete moves an IN_PROGRESS order to COMPLETED, recording the final
// price and bumping the handyman's completed-order count.
func (s *OrderService) Complete(ctx context.Context, handymanUserID, orderID string, actualPrice *float64) (*domain.Order, error) {
	order, profile, err := s.orderForHandyman(ctx, handymanUserID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanTransition(domain.OrderStatusCompleted) {
		return nil, ErrInvalidTransition
	}

	old := order.Status
	now := time.Now()
	order.Status = domain.OrderStatusCompleted
	order.CompletedAt = &now
	if actualPrice != nil {
		order.ActualPrice = actualPrice
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	profile.CompletedOrders++
	if err := s.handymen.Update(ctx, profile); err != nil {
		s.logger.Warn("update completed order count", zap.String("handyman_id", profile.ID), zap.Error(err))
	}

	s.publishStatusChange(ctx, order, old, "")
	return order, nil
}

// Cancel aborts an order with a reason. Either participant may cancel
// while the order has not completed.
func (s *OrderService) Cancel(ctx context.Context, caller *domain.User, orderID, reason string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, caller, order); err != nil {
		return nil, err
	}
	if !order.CanTransition(domain.OrderStatusCancelled) {
		return nil, ErrInvalidTransition
	}

	old := order.Status
	reason = strings.TrimSpace(reason)
	order.Status = domain.OrderStatusCancelled
	order.CancelReason = &reason
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, order, old, reason)
	return order, nil
}

// Rate records a customer's review of a completed order and folds it
// into the handyman's aggregate rating.
func (s *OrderService) Rate(ctx context.Context, customerID, orderID string, input RatingInput) (*domain.Rating, error) {
	if input.Score < 1 || input.Score > 5 {
		return nil, fmt.Errorf("score must be between 1 and 5")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrOrderAccessDenied
	}
	if order.Status != domain.OrderStatusCompleted {
		return nil, ErrNotCompleted
	}
	if existing, err := s.ratings.GetByOrderID(ctx, order.ID); err == nil && existing != nil {
		return nil, ErrAlreadyRated
	}

	rating := &domain.Rating{
		OrderID:    order.ID,
		HandymanID: order.HandymanID,
		CustomerID: customerID,
		Score:      input.Score,
		Review:     strings.TrimSpace(input.Review),
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, err
	}

	if err := s.applyRating(ctx, order.HandymanID, input.Score); err != nil {
		s.logger.Warn("update rating aggregate", zap.String("handyman_id", order.HandymanID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:      events.EventOrderRated,
		SubjectID: order.ID,
		Payload:   events.OrderRatedPayload{HandymanID: order.HandymanID, Score: input.Score},
	})
	return rating, nil
}

func (s *OrderService) listOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.orders.ListWithFilter(ctx, filter)
}

func (s *OrderService) transitionAsHandyman(ctx context.Context, handymanUserID, orderID string, next domain.OrderStatus, reason string) (*domain.Order, error) {
	order, _, err := s.orderForHandyman(ctx, handymanUserID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanTransition(next) {
		return nil, ErrInvalidTransition
	}

	old := order.Status
	order.Status = next
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, order, old, reason)
	return order, nil
}

func (s *OrderService) orderForHandyman(ctx context.Context, handymanUserID, orderID string) (*domain.Order, *domain.HandymanProfile, error) {
	profile, err := s.handymen.GetByUserID(ctx, handymanUserID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.HandymanID != profile.ID {
		return nil, nil, ErrOrderAccessDenied
	}
	return order, profile, nil
}

func (s *OrderService) ensureParticipant(ctx context.Context, caller *domain.User, order *domain.Order) error {
	switch caller.Role {
	case domain.RoleCustomer:
		if order.CustomerID != caller.ID {
			return ErrOrderAccessDenied
		}
	case domain.RoleHandyman:
		profile, err := s.handymen.GetByUserID(ctx, caller.ID)
		if err != nil {
			return err
		}
		if order.HandymanID != profile.ID {
			return ErrOrderAccessDenied
		}
	case domain.RoleAdmin:
		// admins see everything
	default:
		return ErrOrderAccessDenied
	}
	return nil
}

func (s *OrderService) applyRating(ctx context.Context, handymanID string, score int) error {
	profile, err := s.handymen.GetByID(ctx, handymanID)
	if err != nil {
		return err
	}
	total := profile.Rating*float64(profile.ReviewCount) + float64(score)
	profile.ReviewCount++
	profile.Rating = total / float64(profile.ReviewCount)
	return s.handymen.Update(ctx, profile)
}

func (s *OrderService) publishStatusChange(ctx context.Context, order *domain.Order, old domain.OrderStatus, reason string) {
	s.publish(ctx, events.Event{
		Type:      events.EventOrderStatusChanged,
		SubjectID: order.ID,
		Payload: events.OrderStatusChangedPayload{
			OldStatus: old,
			NewStatus: order.Status,
			Reason:    reason,
		},
	})
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = time.Now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func generateOrderKey() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
