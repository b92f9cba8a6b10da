package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/logging"
	"foodcourt/pkg/models"
)

// Service owns order mutations and guarantees every successful mutation
// attempts an event publication. Publish failures degrade to a log line; the
// mutation itself never rolls back because of the broker.
type Service struct {
	store      Store
	publisher  *EventPublisher
	users      *UserClient
	restrictor Restrictor
	log        logger.Logger
}

func NewService(store Store, publisher *EventPublisher, users *UserClient, restrictor Restrictor, log logger.Logger) *Service {
	return &Service{
		store:      store,
		publisher:  publisher,
		users:      users,
		restrictor: restrictor,
		log:        log,
	}
}

type CreateOrderRequest struct {
	UserID          string                 `json:"userId" binding:"required"`
	Items           []models.OrderItem     `json:"items" binding:"required"`
	DeliveryAddress models.DeliveryAddress `json:"deliveryAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, errors.ErrValidation.WithDetail("message", "order must contain at least one item")
	}
	if err := req.DeliveryAddress.Validate(); err != nil {
		return nil, err
	}

	validation := s.users.ValidateUser(ctx, req.UserID)
	if !validation.Valid {
		if validation.ServiceDown || validation.Timeout {
			// Degraded collaborator: accept the order rather than block intake.
			s.log.WarnwCtx(ctx, "User validation unavailable, accepting order unverified",
				"user_id", req.UserID,
				"reason", validation.Error,
			)
		} else {
			return nil, errors.ErrValidation.WithDetail("message", validation.Error)
		}
	}

	total := 0.0
	for _, item := range req.Items {
		if err := s.checkRestrictions(ctx, item); err != nil {
			return nil, err
		}
		total += item.Price * float64(item.Quantity)
	}

	order := &Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Status:          models.StatusPending,
		TotalAmount:     total,
		Items:           req.Items,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
	}

	if err := s.store.Create(ctx, order); err != nil {
		return nil, err
	}

	orderCtx := logging.WithOrderID(ctx, order.ID)
	if !s.publisher.PublishOrderCreated(orderCtx, order) {
		s.log.WarnwCtx(orderCtx, "OrderCreated event not published, continuing without eventing")
	}
	return order, nil
}

func (s *Service) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, notes string) (*Order, error) {
	if !status.Valid() {
		return nil, errors.ErrValidation.WithDetail("message", fmt.Sprintf("invalid status: %s", status))
	}

	current, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	previous := current.Status
	if previous.Terminal() {
		return nil, errors.ErrValidation.WithDetail("message",
			fmt.Sprintf("cannot update status of %s orders", previous))
	}
	if status == previous {
		return nil, errors.ErrValidation.WithDetail("message",
			fmt.Sprintf("order is already %s", status))
	}

	order, err := s.store.UpdateStatus(ctx, orderID, status, notes)
	if err != nil {
		return nil, err
	}

	orderCtx := logging.WithOrderID(ctx, order.ID)
	if !s.publisher.PublishOrderStatusUpdated(orderCtx, order, previous, notes) {
		s.log.WarnwCtx(orderCtx, "OrderStatusUpdated event not published, continuing without eventing")
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.store.FindByID(ctx, orderID)
}

func (s *Service) checkRestrictions(ctx context.Context, item models.OrderItem) error {
	suspended, err := s.restrictor.IsSuspended(ctx, item.ProductID)
	if err != nil {
		s.log.WarnwCtx(ctx, "Restriction lookup failed, allowing item",
			"product_id", item.ProductID,
			"error", err,
		)
		return nil
	}
	if suspended {
		return errors.ErrValidation.WithDetail("message",
			fmt.Sprintf("product %s is temporarily unavailable", item.ProductID))
	}

	max, capped, err := s.restrictor.MaxQuantity(ctx, item.ProductID)
	if err != nil {
		s.log.WarnwCtx(ctx, "Quantity cap lookup failed, allowing item",
			"product_id", item.ProductID,
			"error", err,
		)
		return nil
	}
	if capped && item.Quantity > max {
		return errors.ErrValidation.WithDetail("message",
			fmt.Sprintf("product %s is limited to %d units per order", item.ProductID, max))
	}
	return nil
}
