// Package customers owns customer profiles and their addresses. A profile
// is created for every registered account through a post-register hook.
package customers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Store interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Customer, error)
	Get(ctx context.Context, id int64) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	UpdateProfile(ctx context.Context, c *domain.Customer) error
	SetMembership(ctx context.Context, id int64, m domain.Membership) error
	ListAddresses(ctx context.Context, customerID int64) ([]domain.Address, error)
	AddAddress(ctx context.Context, a *domain.Address) error
}

type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) Me(ctx context.Context, caller domain.Identity) (*domain.Customer, error) {
	return s.store.GetByUserID(ctx, caller.UserID)
}

type ProfileInput struct {
	Phone    string
	Birthday *time.Time
}

func (s *Service) UpdateMe(ctx context.Context, caller domain.Identity, in ProfileInput) (*domain.Customer, error) {
	phone := strings.TrimSpace(in.Phone)
	if len(phone) > 255 {
		return nil, domain.InvalidArgument("phone must be at most 255 characters")
	}
	if in.Birthday != nil && in.Birthday.After(s.now()) {
		return nil, domain.InvalidArgument("birthday must not be in the future")
	}

	c, err := s.store.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	c.Phone = phone
	c.Birthday = in.Birthday
	if err := s.store.UpdateProfile(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	return s.store.List(ctx)
}

func (s *Service) SetMembership(ctx context.Context, id int64, m domain.Membership) (*domain.Customer, error) {
	if !m.Valid() {
		return nil, domain.InvalidArgument("unknown membership %q", m)
	}
	if err := s.store.SetMembership(ctx, id, m); err != nil {
		return nil, err
	}

	s.logger.Info("membership changed", "customer_id", id, "membership", m)
	return s.store.Get(ctx, id)
}

func (s *Service) ListAddresses(ctx context.Context, caller domain.Identity) ([]domain.Address, error) {
	c, err := s.store.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return s.store.ListAddresses(ctx, c.ID)
}

func (s *Service) AddAddress(ctx context.Context, caller domain.Identity, street, city string) (*domain.Address, error) {
	street, city = strings.TrimSpace(street), strings.TrimSpace(city)
	if street == "" || city == "" {
		return nil, domain.InvalidArgument("street and city are required")
	}
	if len(street) > 255 || len(city) > 255 {
		return nil, domain.InvalidArgument("street and city must be at most 255 characters")
	}

	c, err := s.store.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	a := &domain.Address{CustomerID: c.ID, Street: street, City: city}
	if err := s.store.AddAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
