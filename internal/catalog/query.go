package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// PageSize is the fixed number of products per list page.
const PageSize = 10

var orderings = map[string]string{
	"":              "p.name ASC, p.id ASC",
	"unit_price":    "p.unit_price ASC, p.id ASC",
	"-unit_price":   "p.unit_price DESC, p.id ASC",
	"last_updated":  "p.last_updated ASC, p.id ASC",
	"-last_updated": "p.last_updated DESC, p.id ASC",
}

type ProductQuery struct {
	CollectionID *int64
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Search       string
	Ordering     string
	Page         int
}

// ParseProductQuery reads list filters from query parameters.
func ParseProductQuery(v url.Values) (ProductQuery, error) {
	q := ProductQuery{
		Search:   strings.TrimSpace(v.Get("search")),
		Ordering: v.Get("ordering"),
		Page:     1,
	}

	if _, ok := orderings[q.Ordering]; !ok {
		return ProductQuery{}, domain.InvalidArgument("unsupported ordering %q", q.Ordering)
	}

	if raw := v.Get("collection_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return ProductQuery{}, domain.InvalidArgument("invalid collection_id %q", raw)
		}
		q.CollectionID = &id
	}

	for name, dst := range map[string]**decimal.Decimal{"min_price": &q.MinPrice, "max_price": &q.MaxPrice} {
		raw := v.Get(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return ProductQuery{}, domain.InvalidArgument("invalid %s %q", name, raw)
		}
		*dst = &d
	}

	if raw := v.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return ProductQuery{}, domain.InvalidArgument("invalid page %q", raw)
		}
		q.Page = page
	}

	return q, nil
}

// CacheKey is a canonical encoding of the query, stable across parameter order.
func (q ProductQuery) CacheKey() string {
	v := url.Values{}
	if q.CollectionID != nil {
		v.Set("collection_id", strconv.FormatInt(*q.CollectionID, 10))
	}
	if q.MinPrice != nil {
		v.Set("min_price", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("max_price", q.MaxPrice.String())
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	v.Set("page", strconv.Itoa(q.Page))
	return v.Encode()
}

// where renders the filter clause and its positional arguments.
func (q ProductQuery) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.CollectionID != nil {
		conds = append(conds, "p.collection_id = "+arg(*q.CollectionID))
	}
	if q.MinPrice != nil {
		conds = append(conds, "p.unit_price >= "+arg(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		conds = append(conds, "p.unit_price <= "+arg(*q.MaxPrice))
	}
	if q.Search != "" {
		pattern := arg("%" + escapeLike(q.Search) + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", pattern, pattern))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (q ProductQuery) orderBy() string {
	return orderings[q.Ordering]
}

func (q ProductQuery) offset() int {
	return (q.Page - 1) * PageSize
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
