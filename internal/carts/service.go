// Package carts manages anonymous shopping carts. Carts hold no reservation
// on inventory and are priced at read time.
package carts

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Store interface {
	Create(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) error
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ParseID parses a cart id, rejecting anything that is not a UUID.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.InvalidArgument("invalid cart id %q", raw)
	}
	return id, nil
}

func (s *Service) Create(ctx context.Context) (*domain.Cart, error) {
	cart, err := s.store.Create(ctx, uuid.New())
	if err != nil {
		return nil, err
	}
	s.logger.Info("cart created", "cart_id", cart.ID)
	return cart, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	cart, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cart.Price()
	return cart, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) AddItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*domain.CartItem, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	if productID <= 0 {
		return nil, domain.InvalidArgument("product_id is required")
	}

	item, err := s.store.AddItem(ctx, cartID, productID, quantity)
	if err != nil {
		return nil, err
	}
	priceItem(item)
	return item, nil
}

func (s *Service) UpdateItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (*domain.CartItem, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	item, err := s.store.UpdateItemQuantity(ctx, cartID, itemID, quantity)
	if err != nil {
		return nil, err
	}
	priceItem(item)
	return item, nil
}

func (s *Service) RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	return s.store.RemoveItem(ctx, cartID, itemID)
}

func checkQuantity(q int) error {
	if !domain.ValidQuantity(q) {
		return domain.InvalidArgument("quantity must be between %d and %d", domain.MinCartItemQuantity, domain.MaxCartItemQuantity)
	}
	return nil
}

func priceItem(item *domain.CartItem) {
	c := domain.Cart{Items: []domain.CartItem{*item}}
	c.Price()
	item.TotalPrice = c.Items[0].TotalPrice
}
