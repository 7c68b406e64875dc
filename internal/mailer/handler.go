// Package mailer delivers queued mail jobs. Delivery is a structured log
// line; there is no SMTP relay.
package mailer

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/mail"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrInvalidJob = errors.New("invalid mail job")

type Handler struct {
	logger  *slog.Logger
	latency func() time.Duration
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		latency: func() time.Duration {
			return time.Duration(50+rand.IntN(151)) * time.Millisecond
		},
	}
}

// Deliver sends one job. Jobs without a valid recipient or subject are
// rejected with ErrInvalidJob.
func (h *Handler) Deliver(ctx context.Context, job domain.MailJob) error {
	if _, err := mail.ParseAddress(job.To); err != nil || job.Subject == "" {
		return ErrInvalidJob
	}

	select {
	case <-time.After(h.latency()):
	case <-ctx.Done():
		return ctx.Err()
	}

	h.logger.Info("email sent", "to", job.To, "subject", job.Subject, "order_id", job.OrderID, "bytes", len(job.Body))
	return nil
}
