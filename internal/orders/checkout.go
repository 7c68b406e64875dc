package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

var tracer = otel.Tracer("orders")

type CartReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
}

type CustomerResolver interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Customer, error)
}

type OrderStore interface {
	Materialize(ctx context.Context, cartID uuid.UUID, customerID int64) (*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, customerID *int64) ([]domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error)
	DeletePending(ctx context.Context, id int64) error
}

// EventPublisher receives committed orders. Publish must not block.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderCreatedEvent)
}

type Checkout struct {
	carts     CartReader
	customers CustomerResolver
	orders    OrderStore
	events    EventPublisher
	metrics   *telemetry.CheckoutMetrics
	logger    *slog.Logger
}

// NewCheckout wires the checkout workflow. metrics may be nil.
func NewCheckout(carts CartReader, customers CustomerResolver, orders OrderStore, events EventPublisher, metrics *telemetry.CheckoutMetrics, logger *slog.Logger) *Checkout {
	return &Checkout{
		carts:     carts,
		customers: customers,
		orders:    orders,
		events:    events,
		metrics:   metrics,
		logger:    logger,
	}
}

// Place converts the cart into an order owned by the caller's customer.
// Nothing is written unless the cart exists and has items. On success the
// cart is gone and order_created has been handed to the publisher.
func (c *Checkout) Place(ctx context.Context, caller domain.Identity, cartID uuid.UUID) (order *domain.Order, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "checkout",
		trace.WithAttributes(
			attribute.String("cart.id", cartID.String()),
			attribute.Int64("user.id", caller.UserID),
		),
	)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = domain.KindOf(err).String()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		c.metrics.RecordAttempt(ctx, outcome, time.Since(start))
		span.End()
	}()

	if err := c.validate(ctx, cartID); err != nil {
		return nil, err
	}

	customer, err := c.resolveCustomer(ctx, caller)
	if err != nil {
		return nil, err
	}

	order, err = c.materialize(ctx, cartID, customer.ID)
	if err != nil {
		c.logger.Warn("checkout rejected", "cart_id", cartID, "customer_id", customer.ID, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	c.events.Publish(ctx, domain.NewOrderCreatedEvent(order, customer.Email))

	c.logger.Info("order placed", "order_id", order.ID, "customer_id", customer.ID, "items", len(order.Items))
	return order, nil
}

func (c *Checkout) validate(ctx context.Context, cartID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "checkout.validate")
	defer span.End()

	cart, err := c.carts.Get(ctx, cartID)
	if err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		return domain.InvalidState("cart %s is empty", cartID)
	}
	return nil
}

func (c *Checkout) resolveCustomer(ctx context.Context, caller domain.Identity) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "checkout.resolve_customer")
	defer span.End()

	return c.customers.GetByUserID(ctx, caller.UserID)
}

func (c *Checkout) materialize(ctx context.Context, cartID uuid.UUID, customerID int64) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout.materialize")
	defer span.End()

	return c.orders.Materialize(ctx, cartID, customerID)
}
