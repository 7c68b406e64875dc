package orders

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Service exposes orders to their owners and to staff.
type Service struct {
	orders    OrderStore
	customers CustomerResolver
	logger    *slog.Logger
}

func NewService(orders OrderStore, customers CustomerResolver, logger *slog.Logger) *Service {
	return &Service{orders: orders, customers: customers, logger: logger}
}

func (s *Service) Get(ctx context.Context, caller domain.Identity, id int64) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, caller, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns every order to staff and the caller's own orders otherwise.
func (s *Service) List(ctx context.Context, caller domain.Identity) ([]domain.Order, error) {
	if caller.Staff {
		return s.orders.List(ctx, nil)
	}

	customer, err := s.customers.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return s.orders.List(ctx, &customer.ID)
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, caller domain.Identity, id int64, status domain.PaymentStatus) (*domain.Order, error) {
	if !caller.Staff {
		return nil, domain.Forbidden("only staff can change payment status")
	}
	if !status.Valid() {
		return nil, domain.InvalidArgument("unknown payment status %q", status)
	}

	order, err := s.orders.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment status updated", "order_id", id, "payment_status", status)
	return order, nil
}

// Cancel deletes a pending order on behalf of its owner or staff.
func (s *Service) Cancel(ctx context.Context, caller domain.Identity, id int64) error {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, caller, order); err != nil {
		return err
	}
	if order.PaymentStatus != domain.PaymentPending {
		return domain.InvalidState("order %d has payment status %s and cannot be cancelled", id, order.PaymentStatus)
	}

	if err := s.orders.DeletePending(ctx, id); err != nil {
		return err
	}

	s.logger.Info("order cancelled", "order_id", id, "user_id", caller.UserID)
	return nil
}

func (s *Service) authorize(ctx context.Context, caller domain.Identity, order *domain.Order) error {
	if caller.Staff {
		return nil
	}

	customer, err := s.customers.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Forbidden("order %d belongs to another customer", order.ID)
	}
	if err != nil {
		return err
	}
	if customer.ID != order.CustomerID {
		return domain.Forbidden("order %d belongs to another customer", order.ID)
	}
	return nil
}
