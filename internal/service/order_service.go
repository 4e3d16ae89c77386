package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/models"
)

var (
	// ErrEmptyOrder is returned when a checkout request carries no line items.
	ErrEmptyOrder = errors.New("order must contain at least one item")

	// ErrInvalidQuantity is returned when a line item requests a non-positive
	// quantity.
	ErrInvalidQuantity = errors.New("item quantity must be positive")
)

// OrderStore is the transactional order surface, implemented by
// db.OrderRepository.
type OrderStore interface {
	Create(ctx context.Context, userID int, items []models.CreateOrderItemRequest) (*models.Order, error)
	Delete(ctx context.Context, orderID, userID int) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID, userID int, status string) (*models.Order, error)
	GetByID(ctx context.Context, orderID, userID int) (*models.Order, error)
	GetByUser(ctx context.Context, userID int) ([]models.Order, error)
}

// UserStore resolves notification addresses.
type UserStore interface {
	GetEmail(ctx context.Context, id int) (string, error)
}

// EventPublisher is the fire-and-forget event surface, implemented by
// publisher.EventPublisher.
type EventPublisher interface {
	PublishNotification(event models.NotificationEvent) error
	PublishOrderEvent(event models.OrderEvent) error
}

// OrderService orchestrates checkout: the transactional work happens in the
// store, and event publication runs strictly after commit so row locks are
// never held across broker I/O. Publication is best-effort; once the
// transaction has committed the caller sees success regardless of what the
// broker does.
type OrderService struct {
	orders    OrderStore
	users     UserStore
	publisher EventPublisher
	logger    *zap.Logger
}

func NewOrderService(orders OrderStore, users UserStore, publisher EventPublisher, logger *zap.Logger) *OrderService {
	if publisher == nil {
		logger.Warn("no event publisher configured, order notifications disabled")
	}
	return &OrderService{
		orders:    orders,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// PlaceOrder converts a cart into a persisted order, or fails with no
// partial effect.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int, items []models.CreateOrderItemRequest) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, item.ProductID)
		}
	}

	order, err := s.orders.Create(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.Int("order_id", order.ID),
		zap.Int("user_id", userID),
		zap.Float64("total_amount", order.TotalAmount))

	s.notify(ctx, order, "Order Confirmation",
		fmt.Sprintf("Your order #%d has been placed successfully.", order.ID))
	s.publishOrderEvent(models.EventOrderCreated, order)

	return order, nil
}

// CancelOrder deletes an order owned by userID, returning its items to stock.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID int) error {
	order, err := s.orders.Delete(ctx, orderID, userID)
	if err != nil {
		return err
	}

	s.logger.Info("order cancelled",
		zap.Int("order_id", orderID),
		zap.Int("user_id", userID))

	s.notify(ctx, order, "Order Cancelled",
		fmt.Sprintf("Your order #%d has been cancelled.", order.ID))
	s.publishOrderEvent(models.EventOrderCancelled, order)

	return nil
}

// UpdateStatus sets a new status on an order owned by userID.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, userID int, status string) (*models.Order, error) {
	order, err := s.orders.UpdateStatus(ctx, orderID, userID, status)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, order, "Order Update",
		fmt.Sprintf("Your order #%d is now %s.", order.ID, order.Status))

	return order, nil
}

// GetOrder returns one order under the ownership filter, nil when absent.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID int) (*models.Order, error) {
	return s.orders.GetByID(ctx, orderID, userID)
}

// GetUserOrders returns the caller's orders, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID int) ([]models.Order, error) {
	return s.orders.GetByUser(ctx, userID)
}

// notify publishes an email notification for a committed order. Failures are
// logged and swallowed: the order already exists.
func (s *OrderService) notify(ctx context.Context, order *models.Order, subject, body string) {
	if s.publisher == nil {
		return
	}

	email, err := s.users.GetEmail(ctx, order.UserID)
	if err != nil {
		s.logger.Warn("failed to resolve notification address",
			zap.Int("order_id", order.ID),
			zap.Int("user_id", order.UserID),
			zap.Error(err))
		return
	}

	event := models.NotificationEvent{
		Type: models.EventNotificationEmail,
		Data: models.NotificationData{
			To:       email,
			Subject:  subject,
			Body:     body,
			Metadata: models.NotificationMetadata{OrderID: order.ID},
		},
	}
	if err := s.publisher.PublishNotification(event); err != nil {
		s.logger.Warn("failed to publish notification event",
			zap.Int("order_id", order.ID),
			zap.Error(err))
	}
}

func (s *OrderService) publishOrderEvent(eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}

	event := models.OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, models.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := s.publisher.PublishOrderEvent(event); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("type", eventType),
			zap.Int("order_id", order.ID),
			zap.Error(err))
	}
}
