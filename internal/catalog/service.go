package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpx"
)

type ProductStore interface {
	List(ctx context.Context, q ProductQuery) ([]domain.Product, int, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	SetPromotions(ctx context.Context, productID int64, promotionIDs []int64) error
	AdjustInventory(ctx context.Context, id int64, delta int) (*domain.Product, error)
	ListLowInventory(ctx context.Context, threshold int) ([]domain.Product, error)
}

type CollectionStore interface {
	List(ctx context.Context) ([]domain.Collection, error)
	Get(ctx context.Context, id int64) (*domain.Collection, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, c *domain.Collection) error
	Update(ctx context.Context, c *domain.Collection) error
	Delete(ctx context.Context, id int64) error
}

type PromotionStore interface {
	List(ctx context.Context) ([]domain.Promotion, error)
	Create(ctx context.Context, p *domain.Promotion) error
}

type ReviewStore interface {
	ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error)
	Create(ctx context.Context, rv *domain.Review) error
}

type ProductPage = httpx.Page[domain.Product]

type Service struct {
	products    ProductStore
	collections CollectionStore
	promotions  PromotionStore
	reviews     ReviewStore
	cache       PageCache
	logger      *slog.Logger
}

// NewService wires the catalog. cache may be nil.
func NewService(products ProductStore, collections CollectionStore, promotions PromotionStore, reviews ReviewStore, cache PageCache, logger *slog.Logger) *Service {
	return &Service{
		products:    products,
		collections: collections,
		promotions:  promotions,
		reviews:     reviews,
		cache:       cache,
		logger:      logger,
	}
}

type ProductInput struct {
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Inventory    int             `json:"inventory"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CollectionID int64           `json:"collection"`
}

func (in ProductInput) validate() error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return domain.InvalidArgument("name is required")
	case len(name) > 255:
		return domain.InvalidArgument("name must be at most 255 characters")
	case in.Inventory < 1:
		return domain.InvalidArgument("inventory must be at least 1")
	case in.UnitPrice.LessThan(domain.MinUnitPrice):
		return domain.InvalidArgument("unit_price must be at least %s", domain.MinUnitPrice.StringFixed(2))
	case in.UnitPrice.GreaterThan(domain.MaxUnitPrice):
		return domain.InvalidArgument("unit_price must be at most %s", domain.MaxUnitPrice.StringFixed(2))
	case !in.UnitPrice.Equal(in.UnitPrice.Round(2)):
		return domain.InvalidArgument("unit_price must have at most 2 decimal places")
	case in.CollectionID <= 0:
		return domain.InvalidArgument("collection is required")
	}
	return nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Slug = strings.TrimSpace(in.Slug)
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	p.Description = in.Description
	p.Inventory = in.Inventory
	p.UnitPrice = in.UnitPrice
	p.CollectionID = in.CollectionID
}

// Slugify lowercases s and collapses every run of other characters into a
// single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (s *Service) ListProducts(ctx context.Context, q ProductQuery) (ProductPage, error) {
	key := q.CacheKey()
	var slot string
	if s.cache != nil {
		var (
			data []byte
			ok   bool
		)
		slot, data, ok = s.cache.Lookup(ctx, key)
		if ok {
			var page ProductPage
			if err := json.Unmarshal(data, &page); err == nil {
				return page, nil
			}
			s.logger.Warn("discarding undecodable cached page", "key", key)
		}
	}

	products, count, err := s.products.List(ctx, q)
	if err != nil {
		return ProductPage{}, err
	}
	page := httpx.NewPage(products, count, q.Page, PageSize)

	if slot != "" {
		if data, err := json.Marshal(page); err == nil {
			s.cache.Store(ctx, slot, data)
		}
	}
	return page, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *Service) ProductExists(ctx context.Context, id int64) (bool, error) {
	return s.products.Exists(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &domain.Product{}
	in.apply(p)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("product created", "product_id", p.ID)
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("product updated", "product_id", p.ID)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.logger.Info("product deleted", "product_id", id)
	return nil
}

func (s *Service) SetPromotions(ctx context.Context, productID int64, promotionIDs []int64) (*domain.Product, error) {
	if err := s.products.SetPromotions(ctx, productID, promotionIDs); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.products.Get(ctx, productID)
}

func (s *Service) AdjustInventory(ctx context.Context, productID int64, delta int) (*domain.Product, error) {
	if delta == 0 {
		return nil, domain.InvalidArgument("delta must not be zero")
	}

	p, err := s.products.AdjustInventory(ctx, productID, delta)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("inventory adjusted", "product_id", productID, "delta", delta, "inventory", p.Inventory)
	return p, nil
}

func (s *Service) LowInventory(ctx context.Context, threshold int) ([]domain.Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowInventoryThreshold
	}
	return s.products.ListLowInventory(ctx, threshold)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

type CollectionInput struct {
	Title             string `json:"title"`
	FeaturedProductID *int64 `json:"featured_product"`
}

func (in CollectionInput) validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.InvalidArgument("title is required")
	}
	if len(title) > 255 {
		return domain.InvalidArgument("title must be at most 255 characters")
	}
	return nil
}

func (s *Service) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	return s.collections.List(ctx)
}

func (s *Service) GetCollection(ctx context.Context, id int64) (*domain.Collection, error) {
	return s.collections.Get(ctx, id)
}

func (s *Service) CollectionExists(ctx context.Context, id int64) (bool, error) {
	return s.collections.Exists(ctx, id)
}

func (s *Service) CreateCollection(ctx context.Context, in CollectionInput) (*domain.Collection, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &domain.Collection{Title: strings.TrimSpace(in.Title), FeaturedProductID: in.FeaturedProductID}
	if err := s.collections.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("collection created", "collection_id", c.ID)
	return c, nil
}

func (s *Service) UpdateCollection(ctx context.Context, id int64, in CollectionInput) (*domain.Collection, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &domain.Collection{ID: id, Title: strings.TrimSpace(in.Title), FeaturedProductID: in.FeaturedProductID}
	if err := s.collections.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.collections.Get(ctx, id)
}

func (s *Service) DeleteCollection(ctx context.Context, id int64) error {
	if err := s.collections.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("collection deleted", "collection_id", id)
	return nil
}

func (s *Service) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	return s.promotions.List(ctx)
}

func (s *Service) CreatePromotion(ctx context.Context, description string, discount float64) (*domain.Promotion, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.InvalidArgument("description is required")
	}
	if discount < 0 {
		return nil, domain.InvalidArgument("discount must not be negative")
	}

	p := &domain.Promotion{Description: description, Discount: discount}
	if err := s.promotions.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound("product %d not found", productID)
	}
	return s.reviews.ListByProduct(ctx, productID)
}

func (s *Service) CreateReview(ctx context.Context, productID int64, name, description string) (*domain.Review, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidArgument("name is required")
	}
	if strings.TrimSpace(description) == "" {
		return nil, domain.InvalidArgument("description is required")
	}

	rv := &domain.Review{ProductID: productID, Name: name, Description: description}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}
