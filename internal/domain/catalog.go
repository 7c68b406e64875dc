package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Collection struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	FeaturedProductID *int64 `json:"featured_product,omitempty"`
	ProductCount      int    `json:"product_count"`
}

type Promotion struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Discount    float64 `json:"discount"`
}

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Inventory    int             `json:"inventory"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CollectionID int64           `json:"collection"`
	Promotions   []int64         `json:"promotions"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// ProductSummary is the slice of a product embedded in cart and order lines.
type ProductSummary struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Review struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// ProductImage is an uploaded picture of a product. The bytes live in blob
// storage under Key; URL is where clients fetch them.
type ProductImage struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product"`
	Key         string    `json:"-"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// MaxImageBytes caps a single product image upload.
const MaxImageBytes = 2 << 20

// MinUnitPrice is the lowest price a product may be listed at.
var MinUnitPrice = decimal.NewFromInt(1)

// MaxUnitPrice fits NUMERIC(6,2).
var MaxUnitPrice = decimal.RequireFromString("9999.99")
