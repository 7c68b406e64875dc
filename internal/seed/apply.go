package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/accounts"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type Catalog interface {
	CreateCollection(ctx context.Context, in catalog.CollectionInput) (*domain.Collection, error)
	UpdateCollection(ctx context.Context, id int64, in catalog.CollectionInput) (*domain.Collection, error)
	CreatePromotion(ctx context.Context, description string, discount float64) (*domain.Promotion, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (*domain.Product, error)
	SetPromotions(ctx context.Context, productID int64, promotionIDs []int64) (*domain.Product, error)
}

type Accounts interface {
	Register(ctx context.Context, in accounts.RegisterInput) (*domain.Account, error)
}

type Customers interface {
	Me(ctx context.Context, caller domain.Identity) (*domain.Customer, error)
	SetMembership(ctx context.Context, id int64, m domain.Membership) (*domain.Customer, error)
}

type Tagger interface {
	Tag(ctx context.Context, kind domain.EntityKind, entityID int64, label string) (*domain.Tag, error)
}

type TokenSigner interface {
	Sign(id domain.Identity) (string, error)
}

type Seeder struct {
	Catalog   Catalog
	Accounts  Accounts
	Customers Customers
	Tags      Tagger
	Tokens    TokenSigner // optional
	Logger    *slog.Logger
}

// Result counts what was created. Tokens maps usernames to bearer tokens
// when a signer is configured.
type Result struct {
	Collections int
	Promotions  int
	Products    int
	Accounts    int
	Tags        int
	Tokens      map[string]string
}

// Apply creates everything in f. It stops at the first error; entries
// created before it are kept.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{Tokens: map[string]string{}}

	collections := make(map[string]*domain.Collection, len(f.Collections))
	for _, c := range f.Collections {
		created, err := s.Catalog.CreateCollection(ctx, catalog.CollectionInput{Title: c.Title})
		if err != nil {
			return res, fmt.Errorf("collection %q: %w", c.Title, err)
		}
		collections[c.Title] = created
		res.Collections++
		if err := s.tag(ctx, res, domain.EntityCollection, created.ID, c.Tags); err != nil {
			return res, fmt.Errorf("collection %q: %w", c.Title, err)
		}
	}

	promotions := make(map[string]int64, len(f.Promotions))
	for _, p := range f.Promotions {
		created, err := s.Catalog.CreatePromotion(ctx, p.Description, p.Discount)
		if err != nil {
			return res, fmt.Errorf("promotion %q: %w", p.Description, err)
		}
		promotions[p.Description] = created.ID
		res.Promotions++
	}

	for _, p := range f.Products {
		if err := s.product(ctx, res, p, collections, promotions); err != nil {
			return res, fmt.Errorf("product %q: %w", p.Name, err)
		}
	}

	for _, a := range f.Accounts {
		if err := s.account(ctx, res, a); err != nil {
			return res, fmt.Errorf("account %q: %w", a.Username, err)
		}
	}

	s.Logger.Info("seed applied",
		"collections", res.Collections,
		"promotions", res.Promotions,
		"products", res.Products,
		"accounts", res.Accounts,
		"tags", res.Tags,
	)
	return res, nil
}

func (s *Seeder) product(ctx context.Context, res *Result, p Product, collections map[string]*domain.Collection, promotions map[string]int64) error {
	collection := collections[p.Collection]
	created, err := s.Catalog.CreateProduct(ctx, catalog.ProductInput{
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Inventory:    p.Inventory,
		UnitPrice:    p.UnitPrice,
		CollectionID: collection.ID,
	})
	if err != nil {
		return err
	}
	res.Products++

	if len(p.Promotions) > 0 {
		ids := make([]int64, 0, len(p.Promotions))
		for _, promo := range p.Promotions {
			ids = append(ids, promotions[promo])
		}
		if _, err := s.Catalog.SetPromotions(ctx, created.ID, ids); err != nil {
			return err
		}
	}

	if p.Featured {
		featured := created.ID
		if _, err := s.Catalog.UpdateCollection(ctx, collection.ID, catalog.CollectionInput{
			Title:             collection.Title,
			FeaturedProductID: &featured,
		}); err != nil {
			return err
		}
	}

	return s.tag(ctx, res, domain.EntityProduct, created.ID, p.Tags)
}

func (s *Seeder) account(ctx context.Context, res *Result, a Account) error {
	created, err := s.Accounts.Register(ctx, accounts.RegisterInput{
		Username:  a.Username,
		Email:     a.Email,
		Password:  a.Password,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Staff:     a.Staff,
	})
	if err != nil {
		return err
	}
	res.Accounts++

	identity := domain.Identity{UserID: created.ID, Staff: created.IsStaff}

	if a.Membership != "" || len(a.Tags) > 0 {
		customer, err := s.Customers.Me(ctx, identity)
		if err != nil {
			return err
		}
		if a.Membership != "" && a.Membership != customer.Membership {
			if _, err := s.Customers.SetMembership(ctx, customer.ID, a.Membership); err != nil {
				return err
			}
		}
		if err := s.tag(ctx, res, domain.EntityCustomer, customer.ID, a.Tags); err != nil {
			return err
		}
	}

	if s.Tokens != nil {
		token, err := s.Tokens.Sign(identity)
		if err != nil {
			return err
		}
		res.Tokens[a.Username] = token
	}
	return nil
}

func (s *Seeder) tag(ctx context.Context, res *Result, kind domain.EntityKind, id int64, labels []string) error {
	for _, label := range labels {
		if _, err := s.Tags.Tag(ctx, kind, id, label); err != nil {
			return fmt.Errorf("tag %q: %w", label, err)
		}
		res.Tags++
	}
	return nil
}
