package orders

import (
	"context"
	"time"

	"foodcourt/pkg/models"
)

type Order struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"userId"`
	Status          models.OrderStatus     `json:"status"`
	TotalAmount     float64                `json:"totalAmount"`
	Items           []models.OrderItem     `json:"items"`
	DeliveryAddress models.DeliveryAddress `json:"deliveryAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Notes           string                 `json:"notes,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// Store is the relational-store contract the pipeline depends on. The
// persistence layer behind it is a collaborator, not part of this core.
type Store interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, notes string) (*Order, error)
	FindPendingByProduct(ctx context.Context, productID string) ([]*Order, error)
}
