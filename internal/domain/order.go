package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentComplete PaymentStatus = "complete"
	PaymentFailed   PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentComplete, PaymentFailed:
		return true
	}
	return false
}

type OrderItem struct {
	ID        int64           `json:"id"`
	Product   ProductSummary  `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Order struct {
	ID            int64         `json:"id"`
	CustomerID    int64         `json:"customer"`
	PlacedAt      time.Time     `json:"placed_at"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Items         []OrderItem   `json:"items"`
}

// Total sums the snapshotted line prices.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
