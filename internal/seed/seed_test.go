package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/accounts"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestLoadFile(t *testing.T) {
	f, err := LoadFile("testdata/seed.yaml")
	require.NoError(t, err)

	require.Len(t, f.Products, 3)
	assert.True(t, decimal.RequireFromString("4.50").Equal(f.Products[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("3.25").Equal(f.Products[1].UnitPrice), "unquoted numbers decode too")
	assert.Equal(t, domain.MembershipGold, f.Accounts[1].Membership)
	assert.True(t, f.Accounts[0].Staff)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown key",
			yaml: "colections: []",
			want: "colections",
		},
		{
			name: "unknown collection",
			yaml: "products:\n  - name: Tea\n    unit_price: 1\n    collection: Drinks",
			want: `unknown collection "Drinks"`,
		},
		{
			name: "unknown promotion",
			yaml: "collections: [{title: A}]\nproducts:\n  - {name: Tea, unit_price: 1, collection: A, promotions: [Sale]}",
			want: `unknown promotion "Sale"`,
		},
		{
			name: "two featured products",
			yaml: "collections: [{title: A}]\nproducts:\n  - {name: X, unit_price: 1, collection: A, featured: true}\n  - {name: Y, unit_price: 1, collection: A, featured: true}",
			want: "features both",
		},
		{
			name: "bad membership",
			yaml: "accounts: [{username: a, membership: platinum}]",
			want: "invalid membership",
		},
		{
			name: "bad price",
			yaml: "collections: [{title: A}]\nproducts: [{name: X, unit_price: cheap, collection: A}]",
			want: "cheap",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

type fakeCatalog struct {
	collections map[int64]*domain.Collection
	promotions  []domain.Promotion
	products    []catalog.ProductInput
	promoted    map[int64][]int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{collections: map[int64]*domain.Collection{}, promoted: map[int64][]int64{}}
}

func (f *fakeCatalog) CreateCollection(_ context.Context, in catalog.CollectionInput) (*domain.Collection, error) {
	c := &domain.Collection{ID: int64(len(f.collections) + 1), Title: in.Title}
	f.collections[c.ID] = c
	return c, nil
}

func (f *fakeCatalog) UpdateCollection(_ context.Context, id int64, in catalog.CollectionInput) (*domain.Collection, error) {
	c, ok := f.collections[id]
	if !ok {
		return nil, domain.NotFound("collection %d not found", id)
	}
	c.Title, c.FeaturedProductID = in.Title, in.FeaturedProductID
	return c, nil
}

func (f *fakeCatalog) CreatePromotion(_ context.Context, description string, discount float64) (*domain.Promotion, error) {
	p := domain.Promotion{ID: int64(len(f.promotions) + 1), Description: description, Discount: discount}
	f.promotions = append(f.promotions, p)
	return &p, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, in catalog.ProductInput) (*domain.Product, error) {
	f.products = append(f.products, in)
	return &domain.Product{ID: int64(len(f.products)), Name: in.Name}, nil
}

func (f *fakeCatalog) SetPromotions(_ context.Context, productID int64, ids []int64) (*domain.Product, error) {
	f.promoted[productID] = ids
	return &domain.Product{ID: productID}, nil
}

type fakeAccounts struct {
	registered []accounts.RegisterInput
	err        error
}

func (f *fakeAccounts) Register(_ context.Context, in accounts.RegisterInput) (*domain.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = append(f.registered, in)
	return &domain.Account{ID: int64(len(f.registered)), Username: in.Username, IsStaff: in.Staff}, nil
}

type fakeCustomers struct {
	membership map[int64]domain.Membership
}

func (f *fakeCustomers) Me(_ context.Context, caller domain.Identity) (*domain.Customer, error) {
	id := caller.UserID + 100
	m, ok := f.membership[id]
	if !ok {
		m = domain.MembershipBronze
	}
	return &domain.Customer{ID: id, UserID: caller.UserID, Membership: m}, nil
}

func (f *fakeCustomers) SetMembership(_ context.Context, id int64, m domain.Membership) (*domain.Customer, error) {
	f.membership[id] = m
	return &domain.Customer{ID: id, Membership: m}, nil
}

type tagCall struct {
	kind  domain.EntityKind
	id    int64
	label string
}

type fakeTagger struct{ calls []tagCall }

func (f *fakeTagger) Tag(_ context.Context, kind domain.EntityKind, id int64, label string) (*domain.Tag, error) {
	f.calls = append(f.calls, tagCall{kind, id, label})
	return &domain.Tag{Label: label}, nil
}

type fakeSigner struct{}

func (fakeSigner) Sign(id domain.Identity) (string, error) {
	if id.Staff {
		return "staff-token", nil
	}
	return "user-token", nil
}

func TestSeeder_Apply(t *testing.T) {
	f, err := LoadFile("testdata/seed.yaml")
	require.NoError(t, err)

	cat := newFakeCatalog()
	accts := &fakeAccounts{}
	custs := &fakeCustomers{membership: map[int64]domain.Membership{}}
	tagger := &fakeTagger{}
	s := &Seeder{
		Catalog:   cat,
		Accounts:  accts,
		Customers: custs,
		Tags:      tagger,
		Tokens:    fakeSigner{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	res, err := s.Apply(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Collections)
	assert.Equal(t, 1, res.Promotions)
	assert.Equal(t, 3, res.Products)
	assert.Equal(t, 2, res.Accounts)
	assert.Equal(t, 4, res.Tags)

	// Products point at the right collection.
	assert.Equal(t, int64(1), cat.products[0].CollectionID)
	assert.Equal(t, int64(2), cat.products[2].CollectionID)
	assert.Equal(t, "sourdough", cat.products[2].Slug)

	assert.Equal(t, []int64{1}, cat.promoted[1])
	require.NotNil(t, cat.collections[1].FeaturedProductID)
	assert.Equal(t, int64(1), *cat.collections[1].FeaturedProductID)
	assert.Nil(t, cat.collections[2].FeaturedProductID)

	assert.True(t, accts.registered[0].Staff)
	assert.Equal(t, domain.MembershipGold, custs.membership[102])
	assert.Contains(t, tagger.calls, tagCall{domain.EntityCustomer, 102, "vip"})
	assert.Contains(t, tagger.calls, tagCall{domain.EntityCollection, 1, "drinks"})

	assert.Equal(t, map[string]string{"admin": "staff-token", "ana": "user-token"}, res.Tokens)
}

func TestSeeder_Apply_StopsOnError(t *testing.T) {
	f, err := LoadFile("testdata/seed.yaml")
	require.NoError(t, err)

	s := &Seeder{
		Catalog:   newFakeCatalog(),
		Accounts:  &fakeAccounts{err: domain.Conflict("email taken")},
		Customers: &fakeCustomers{membership: map[int64]domain.Membership{}},
		Tags:      &fakeTagger{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	res, err := s.Apply(context.Background(), f)

	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), `account "admin"`)
	assert.Equal(t, 3, res.Products)
	assert.Zero(t, res.Accounts)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
