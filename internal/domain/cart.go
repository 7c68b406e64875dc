package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinCartItemQuantity = 1
	MaxCartItemQuantity = 1000
)

type Cart struct {
	ID         uuid.UUID       `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type CartItem struct {
	ID         int64           `json:"id"`
	CartID     uuid.UUID       `json:"-"`
	Product    ProductSummary  `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// ValidQuantity reports whether q is an allowed cart line quantity.
func ValidQuantity(q int) bool {
	return q >= MinCartItemQuantity && q <= MaxCartItemQuantity
}

// Price fills in line and cart totals from the current product prices.
func (c *Cart) Price() {
	total := decimal.Zero
	for i := range c.Items {
		item := &c.Items[i]
		item.TotalPrice = item.Product.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(item.TotalPrice)
	}
	c.TotalPrice = total
}
