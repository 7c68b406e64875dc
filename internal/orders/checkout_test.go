package orders

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type cartLine struct {
	productID int64
	quantity  int
}

// store is an in-memory stand-in for carts, customers and orders sharing
// one lock, the way the real tables share one transaction.
type store struct {
	mu         sync.Mutex
	products   map[int64]domain.ProductSummary
	carts      map[uuid.UUID][]cartLine
	customers  map[int64]domain.Customer
	orders     map[int64]*domain.Order
	nextOrder  int64
	nextItem   int64
	failCommit error
}

func newStore() *store {
	return &store{
		products: map[int64]domain.ProductSummary{
			1: {ID: 1, Name: "Espresso", UnitPrice: decimal.RequireFromString("10.00")},
			2: {ID: 2, Name: "Croissant", UnitPrice: decimal.RequireFromString("5.00")},
		},
		carts: map[uuid.UUID][]cartLine{},
		customers: map[int64]domain.Customer{
			100: {ID: 7, UserID: 100, Email: "ana@example.com", Membership: domain.MembershipBronze},
			200: {ID: 8, UserID: 200, Email: "bo@example.com", Membership: domain.MembershipBronze},
		},
		orders: map[int64]*domain.Order{},
	}
}

func (s *store) newCart(lines ...cartLine) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.carts[id] = lines
	return id
}

func (s *store) setPrice(productID int64, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	p.UnitPrice = decimal.RequireFromString(price)
	s.products[productID] = p
}

func (s *store) Get(_ context.Context, id uuid.UUID) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.carts[id]
	if !ok {
		return nil, domain.NotFound("cart %s not found", id)
	}
	cart := &domain.Cart{ID: id, Items: []domain.CartItem{}}
	for _, l := range lines {
		cart.Items = append(cart.Items, domain.CartItem{Product: s.products[l.productID], Quantity: l.quantity})
	}
	return cart, nil
}

func (s *store) GetByUserID(_ context.Context, userID int64) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[userID]
	if !ok {
		return nil, domain.NotFound("customer for user %d not found", userID)
	}
	return &c, nil
}

type orderStore struct{ *store }

func (s orderStore) Materialize(_ context.Context, cartID uuid.UUID, customerID int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.carts[cartID]
	if !ok {
		return nil, domain.NotFound("cart %s not found", cartID)
	}
	if len(lines) == 0 {
		return nil, domain.InvalidState("cart %s is empty", cartID)
	}
	if s.failCommit != nil {
		return nil, s.failCommit
	}

	s.nextOrder++
	order := &domain.Order{
		ID:            s.nextOrder,
		CustomerID:    customerID,
		PlacedAt:      time.Now(),
		PaymentStatus: domain.PaymentPending,
	}
	for _, l := range lines {
		s.nextItem++
		p := s.products[l.productID]
		order.Items = append(order.Items, domain.OrderItem{ID: s.nextItem, Product: p, Quantity: l.quantity, UnitPrice: p.UnitPrice})
	}
	s.orders[order.ID] = order
	delete(s.carts, cartID)

	cp := *order
	return &cp, nil
}

func (s orderStore) Get(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.NotFound("order %d not found", id)
	}
	cp := *o
	return &cp, nil
}

func (s orderStore) List(_ context.Context, customerID *int64) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Order{}
	for id := int64(1); id <= s.nextOrder; id++ {
		o, ok := s.orders[id]
		if !ok || (customerID != nil && o.CustomerID != *customerID) {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (s orderStore) UpdatePaymentStatus(_ context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.NotFound("order %d not found", id)
	}
	o.PaymentStatus = status
	cp := *o
	return &cp, nil
}

func (s orderStore) DeletePending(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.NotFound("order %d not found", id)
	}
	if o.PaymentStatus != domain.PaymentPending {
		return domain.InvalidState("order %d is not pending", id)
	}
	delete(s.orders, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderCreatedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.OrderCreatedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCheckout() (*Checkout, *store, *recordingPublisher) {
	s := newStore()
	pub := &recordingPublisher{}
	return NewCheckout(s, s, orderStore{s}, pub, nil, discardLogger()), s, pub
}

var ana = domain.Identity{UserID: 100}

func TestCheckout_UnknownCart(t *testing.T) {
	c, s, pub := newTestCheckout()

	_, err := c.Place(context.Background(), ana, uuid.New())

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, s.orders)
	assert.Zero(t, pub.count())
}

func TestCheckout_EmptyCart(t *testing.T) {
	c, s, pub := newTestCheckout()
	cartID := s.newCart()

	_, err := c.Place(context.Background(), ana, cartID)

	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Empty(t, s.orders)
	assert.Contains(t, s.carts, cartID)
	assert.Zero(t, pub.count())
}

func TestCheckout_UnknownCustomer(t *testing.T) {
	c, s, _ := newTestCheckout()
	cartID := s.newCart(cartLine{productID: 1, quantity: 1})

	_, err := c.Place(context.Background(), domain.Identity{UserID: 999}, cartID)

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, s.carts, cartID)
}

func TestCheckout_SnapshotsPricesAndRemovesCart(t *testing.T) {
	c, s, pub := newTestCheckout()
	cartID := s.newCart(cartLine{productID: 1, quantity: 2}, cartLine{productID: 2, quantity: 1})

	order, err := c.Place(context.Background(), ana, cartID)
	require.NoError(t, err)

	assert.Equal(t, int64(7), order.CustomerID)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "10.00", order.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "5.00", order.Items[1].UnitPrice.StringFixed(2))
	assert.Equal(t, "25.00", order.Total().StringFixed(2))
	assert.NotContains(t, s.carts, cartID)

	require.Equal(t, 1, pub.count())
	assert.Equal(t, order.ID, pub.events[0].OrderID)
	assert.Equal(t, "ana@example.com", pub.events[0].CustomerEmail)
	assert.Equal(t, "25.00", pub.events[0].Total)

	s.setPrice(1, "99.00")
	stored, err := orderStore{s}.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", stored.Items[0].UnitPrice.StringFixed(2))
}

func TestCheckout_FailedMaterializeKeepsCart(t *testing.T) {
	c, s, pub := newTestCheckout()
	cartID := s.newCart(cartLine{productID: 1, quantity: 1})
	s.failCommit = domain.Unavailable("commit transaction", context.DeadlineExceeded)

	_, err := c.Place(context.Background(), ana, cartID)

	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Contains(t, s.carts, cartID)
	assert.Zero(t, pub.count())
}

func TestCheckout_ConcurrentDoubleSubmit(t *testing.T) {
	c, s, pub := newTestCheckout()
	cartID := s.newCart(cartLine{productID: 1, quantity: 1})

	const attempts = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, attempts)
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Place(context.Background(), ana, cartID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, s.orders, 1)
	assert.Equal(t, 1, pub.count())
}
