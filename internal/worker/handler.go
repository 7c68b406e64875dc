// Package worker turns order_created events into confirmation mail jobs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
)

// Deduper remembers which orders were already notified.
type Deduper interface {
	Seen(ctx context.Context, orderID int64) (bool, error)
	Mark(ctx context.Context, orderID int64) error
}

type MailQueue interface {
	Publish(ctx context.Context, job domain.MailJob) error
}

type NotificationHandler struct {
	dedup  Deduper
	mail   MailQueue
	logger *slog.Logger
}

func NewNotificationHandler(dedup Deduper, mail MailQueue, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		dedup:  dedup,
		mail:   mail,
		logger: logger,
	}
}

// Handle processes one order.created payload. Redelivered events for an
// order that was already notified are acknowledged without a second mail.
func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return messaging.Permanent(fmt.Errorf("unmarshal order created event: %w", err))
	}
	if event.OrderID == 0 || event.CustomerEmail == "" {
		return messaging.Permanent(errors.New("order created event missing order id or email"))
	}

	logger := h.logger.With("order_id", event.OrderID, "customer_id", event.CustomerID)

	seen, err := h.dedup.Seen(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("check notification key: %w", err)
	}
	if seen {
		logger.Info("order already notified, skipping")
		return nil
	}

	if err := h.mail.Publish(ctx, confirmationMail(event)); err != nil {
		logger.Error("failed to enqueue confirmation mail", "error", err)
		return fmt.Errorf("enqueue confirmation mail: %w", err)
	}

	if err := h.dedup.Mark(ctx, event.OrderID); err != nil {
		logger.Error("failed to mark order notified", "error", err)
	}

	logger.Info("confirmation mail enqueued")
	return nil
}

func confirmationMail(event domain.OrderCreatedEvent) domain.MailJob {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order #%d.\n\n", event.OrderID)
	for _, item := range event.Items {
		fmt.Fprintf(&b, "%d x %s @ %s\n", item.Quantity, item.Product.Name, item.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", event.Total)

	return domain.MailJob{
		To:      event.CustomerEmail,
		Subject: fmt.Sprintf("Order Confirmation: #%d", event.OrderID),
		Body:    b.String(),
		OrderID: event.OrderID,
	}
}
