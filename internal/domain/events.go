package domain

import "time"

type OrderCreatedEvent struct {
	OrderID       int64       `json:"order_id"`
	CustomerID    int64       `json:"customer_id"`
	CustomerEmail string      `json:"customer_email"`
	Items         []OrderItem `json:"items"`
	Total         string      `json:"total"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewOrderCreatedEvent builds the event published once an order is committed.
func NewOrderCreatedEvent(order *Order, email string) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		CustomerEmail: email,
		Items:         order.Items,
		Total:         order.Total().StringFixed(2),
		Timestamp:     order.PlacedAt,
	}
}

// MailJob is a unit of work on the mail queue.
type MailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	OrderID int64  `json:"order_id,omitempty"`
}
