package models

import (
	"fmt"
	"time"

	"foodcourt/pkg/errors"
)

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type DeliveryAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func (a DeliveryAddress) Validate() error {
	if a.Street == "" || a.City == "" {
		return errors.ErrValidation.WithDetail("message", "delivery address missing required fields (street, city)")
	}
	return nil
}

type OrderCreatedData struct {
	OrderID         string          `json:"orderId"`
	UserID          string          `json:"userId"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     float64         `json:"totalAmount"`
	Items           []OrderItem     `json:"items"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	CreatedAt       time.Time       `json:"createdAt,omitempty"`
}

func (d OrderCreatedData) Validate() error {
	missing := make([]string, 0, 5)
	if d.OrderID == "" {
		missing = append(missing, "orderId")
	}
	if d.UserID == "" {
		missing = append(missing, "userId")
	}
	if d.TotalAmount == 0 {
		missing = append(missing, "totalAmount")
	}
	if d.Items == nil {
		missing = append(missing, "items")
	}
	if (d.DeliveryAddress == DeliveryAddress{}) {
		missing = append(missing, "deliveryAddress")
	}
	if len(missing) > 0 {
		return errors.ErrValidation.WithDetail("message", fmt.Sprintf("event data missing required fields: %v", missing))
	}
	if len(d.Items) == 0 {
		return errors.ErrValidation.WithDetail("message", "event data items must be a non-empty array")
	}
	return d.DeliveryAddress.Validate()
}

type OrderStatusUpdatedData struct {
	OrderID        string      `json:"orderId"`
	UserID         string      `json:"userId"`
	PreviousStatus OrderStatus `json:"previousStatus"`
	CurrentStatus  OrderStatus `json:"currentStatus"`
	TotalAmount    float64     `json:"totalAmount"`
	Notes          string      `json:"notes,omitempty"`
	UpdatedAt      time.Time   `json:"updatedAt,omitempty"`
}

func (d OrderStatusUpdatedData) Validate() error {
	missing := make([]string, 0, 4)
	if d.OrderID == "" {
		missing = append(missing, "orderId")
	}
	if d.UserID == "" {
		missing = append(missing, "userId")
	}
	if d.CurrentStatus == "" {
		missing = append(missing, "currentStatus")
	}
	if d.PreviousStatus == "" {
		missing = append(missing, "previousStatus")
	}
	if len(missing) > 0 {
		return errors.ErrValidation.WithDetail("message", fmt.Sprintf("event data missing required fields: %v", missing))
	}
	if !d.CurrentStatus.Valid() {
		return errors.ErrValidation.WithDetail("message", fmt.Sprintf("invalid current status: %s", d.CurrentStatus))
	}
	if !d.PreviousStatus.Valid() {
		return errors.ErrValidation.WithDetail("message", fmt.Sprintf("invalid previous status: %s", d.PreviousStatus))
	}
	return nil
}

// InventoryCriticalData rides the inventory.critical fanout exchange.
type InventoryCriticalData struct {
	ProductID     string `json:"productId"`
	CurrentStock  int    `json:"currentStock"`
	CriticalLevel int    `json:"criticalLevel"`
	Source        string `json:"source,omitempty"`
}

func (d InventoryCriticalData) Validate() error {
	if d.ProductID == "" {
		return errors.ErrValidation.WithDetail("message", "event missing productId")
	}
	if d.CurrentStock < 0 {
		return errors.ErrValidation.WithDetail("message", "currentStock must not be negative")
	}
	return nil
}
