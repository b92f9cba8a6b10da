package notifications

import (
	"fmt"
	"strings"

	"foodcourt/pkg/models"
)

type Template struct {
	Title   string
	Subject string
}

const (
	TemplateOrderCreated        = "orderCreated"
	TemplateOrderConfirmed      = "orderConfirmed"
	TemplateOrderPreparing      = "orderPreparing"
	TemplateOrderOutForDelivery = "orderOutForDelivery"
	TemplateOrderDelivered      = "orderDelivered"
	TemplateOrderCancelled      = "orderCancelled"
	TemplateInventoryCritical   = "inventoryCritical"
)

func defaultTemplates() map[string]Template {
	return map[string]Template{
		TemplateOrderCreated: {
			Title:   "Order Confirmed",
			Subject: "Your order has been confirmed",
		},
		TemplateOrderConfirmed: {
			Title:   "Order In Preparation",
			Subject: "Your order is being prepared",
		},
		TemplateOrderPreparing: {
			Title:   "Preparing Your Order",
			Subject: "Your order is in preparation",
		},
		TemplateOrderOutForDelivery: {
			Title:   "Order On Its Way",
			Subject: "Your order is out for delivery",
		},
		TemplateOrderDelivered: {
			Title:   "Order Delivered",
			Subject: "Your order has been delivered",
		},
		TemplateOrderCancelled: {
			Title:   "Order Cancelled",
			Subject: "Your order has been cancelled",
		},
		TemplateInventoryCritical: {
			Title:   "Critical Inventory Alert",
			Subject: "Immediate inventory action required",
		},
	}
}

// TemplateKeyForStatus resolves the template used when an order reaches the
// given status. Unknown statuses fall back to the creation template.
func TemplateKeyForStatus(status models.OrderStatus) string {
	switch status {
	case models.StatusConfirmed:
		return TemplateOrderConfirmed
	case models.StatusPreparing:
		return TemplateOrderPreparing
	case models.StatusOutForDelivery:
		return TemplateOrderOutForDelivery
	case models.StatusDelivered:
		return TemplateOrderDelivered
	case models.StatusCancelled:
		return TemplateOrderCancelled
	default:
		return TemplateOrderCreated
	}
}

// Message is the rendered notification body handed to every channel sender.
type Message struct {
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func FormatOrderCreatedMessage(data models.OrderCreatedData) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Order: %s\n", data.OrderID)
	fmt.Fprintf(&b, "User: %s\n", data.UserID)
	fmt.Fprintf(&b, "Total: $%.2f\n\n", data.TotalAmount)

	b.WriteString("Items:\n")
	for _, item := range data.Items {
		fmt.Fprintf(&b, "  - %dx %s - $%.2f\n", item.Quantity, item.ProductName, item.Price)
	}

	fmt.Fprintf(&b, "\nDelivery address:\n%s\n%s", data.DeliveryAddress.Street, data.DeliveryAddress.City)
	if data.DeliveryAddress.PostalCode != "" {
		fmt.Fprintf(&b, ", %s", data.DeliveryAddress.PostalCode)
	}
	if data.DeliveryAddress.Phone != "" {
		fmt.Fprintf(&b, "\nPhone: %s", data.DeliveryAddress.Phone)
	}
	b.WriteString("\n\nThank you for your order! We will keep you posted on the progress.")

	return Message{
		Title: "New Order Confirmed",
		Body:  b.String(),
		Metadata: map[string]interface{}{
			"orderId": data.OrderID,
			"userId":  data.UserID,
			"type":    "order_created",
		},
	}
}

func FormatOrderStatusMessage(data models.OrderStatusUpdatedData) Message {
	statusLines := map[models.OrderStatus]string{
		models.StatusConfirmed:      "Your order has been confirmed and is being processed.",
		models.StatusPreparing:      "We are preparing your order.",
		models.StatusOutForDelivery: "Your order is on its way. Get ready to receive it!",
		models.StatusDelivered:      "Your order has been delivered. We hope you enjoy it!",
		models.StatusCancelled:      "Your order has been cancelled. Contact us if you have questions.",
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order: %s\n", data.OrderID)
	fmt.Fprintf(&b, "User: %s\n", data.UserID)
	fmt.Fprintf(&b, "Total: $%.2f\n\n", data.TotalAmount)
	fmt.Fprintf(&b, "Status: %s -> %s\n", data.PreviousStatus, data.CurrentStatus)
	if line, ok := statusLines[data.CurrentStatus]; ok {
		b.WriteString("\n" + line)
	}

	return Message{
		Title: "Order Status Updated",
		Body:  b.String(),
		Metadata: map[string]interface{}{
			"orderId":        data.OrderID,
			"userId":         data.UserID,
			"currentStatus":  string(data.CurrentStatus),
			"previousStatus": string(data.PreviousStatus),
			"type":           "order_status_updated",
		},
	}
}

func FormatInventoryCriticalMessage(data models.InventoryCriticalData, action string) Message {
	var b strings.Builder
	b.WriteString("CRITICAL INVENTORY ALERT\n\n")
	fmt.Fprintf(&b, "Product ID: %s\n", data.ProductID)
	fmt.Fprintf(&b, "Current Stock: %d\n", data.CurrentStock)
	fmt.Fprintf(&b, "Critical Level: %d\n\n", data.CriticalLevel)
	b.WriteString("Immediate action required:\n")
	b.WriteString("  1. Check product availability\n")
	b.WriteString("  2. Contact suppliers for restock\n")
	if data.CurrentStock == 0 {
		b.WriteString("  3. Sales are suspended until restock\n")
	}

	return Message{
		Title: "Critical Inventory Alert",
		Body:  b.String(),
		Metadata: map[string]interface{}{
			"productId":    data.ProductID,
			"currentStock": data.CurrentStock,
			"action":       action,
			"type":         "inventory_critical",
		},
	}
}
