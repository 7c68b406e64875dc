package tags

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type link struct {
	kind   domain.EntityKind
	entity int64
	tagID  int64
}

type memStore struct {
	labels map[string]int64
	links  map[link]bool
}

func newMemStore() *memStore {
	return &memStore{labels: map[string]int64{}, links: map[link]bool{}}
}

func (m *memStore) ListFor(_ context.Context, kind domain.EntityKind, entityID int64) ([]domain.Tag, error) {
	out := []domain.Tag{}
	for label, id := range m.labels {
		if m.links[link{kind, entityID, id}] {
			out = append(out, domain.Tag{ID: id, Label: label})
		}
	}
	return out, nil
}

func (m *memStore) Attach(_ context.Context, kind domain.EntityKind, entityID int64, label string) (*domain.Tag, error) {
	id, ok := m.labels[label]
	if !ok {
		id = int64(len(m.labels) + 1)
		m.labels[label] = id
	}
	m.links[link{kind, entityID, id}] = true
	return &domain.Tag{ID: id, Label: label}, nil
}

func (m *memStore) Detach(_ context.Context, kind domain.EntityKind, entityID, tagID int64) error {
	l := link{kind, entityID, tagID}
	if !m.links[l] {
		return domain.NotFound("tag %d is not attached", tagID)
	}
	delete(m.links, l)
	return nil
}

func existing(ids ...int64) Resolver {
	return ResolverFunc(func(_ context.Context, id int64) (bool, error) {
		for _, known := range ids {
			if known == id {
				return true, nil
			}
		}
		return false, nil
	})
}

func newTestService() (*Service, *memStore) {
	reg := NewRegistry()
	reg.Register(domain.EntityProduct, existing(1, 2))
	reg.Register(domain.EntityCustomer, existing(7))
	store := newMemStore()
	return NewService(reg, store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestRegistry_Kinds(t *testing.T) {
	reg := NewRegistry()
	reg.Register(domain.EntityProduct, existing())
	reg.Register(domain.EntityCollection, existing())

	assert.Equal(t, []domain.EntityKind{domain.EntityCollection, domain.EntityProduct}, reg.Kinds())
}

func TestService_TagIsIdempotent(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	first, err := svc.Tag(ctx, domain.EntityProduct, 1, " organic ")
	require.NoError(t, err)
	second, err := svc.Tag(ctx, domain.EntityProduct, 1, "organic")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.links, 1)

	tags, err := svc.TagsFor(ctx, domain.EntityProduct, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.Tag{{ID: first.ID, Label: "organic"}}, tags)
}

func TestService_LabelsAreSharedAcrossKinds(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	onProduct, err := svc.Tag(ctx, domain.EntityProduct, 2, "vip")
	require.NoError(t, err)
	onCustomer, err := svc.Tag(ctx, domain.EntityCustomer, 7, "vip")
	require.NoError(t, err)
	assert.Equal(t, onProduct.ID, onCustomer.ID)

	require.NoError(t, svc.Untag(ctx, domain.EntityProduct, 2, onProduct.ID))

	tags, err := svc.TagsFor(ctx, domain.EntityCustomer, 7)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestService_Errors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.TagsFor(ctx, "order", 1)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.Tag(ctx, domain.EntityProduct, 99, "sale")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Tag(ctx, domain.EntityProduct, 1, "  ")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.Tag(ctx, domain.EntityCollection, 1, "sale")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	require.ErrorIs(t, svc.Untag(ctx, domain.EntityProduct, 1, 5), domain.ErrNotFound)
}

func TestHandler_Routes(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tags/kinds", h.HandleKinds)
	mux.HandleFunc("GET /tags/{kind}/{id}", h.HandleList)
	mux.HandleFunc("POST /tags/{kind}/{id}", h.HandleTag)
	mux.HandleFunc("DELETE /tags/{kind}/{id}/{tag}", h.HandleUntag)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"tag product", http.MethodPost, "/tags/product/1", `{"label":"sale"}`, http.StatusCreated},
		{"list product tags", http.MethodGet, "/tags/product/1", "", http.StatusOK},
		{"unknown kind", http.MethodGet, "/tags/order/1", "", http.StatusBadRequest},
		{"unknown entity", http.MethodPost, "/tags/customer/8", `{"label":"sale"}`, http.StatusNotFound},
		{"untag", http.MethodDelete, "/tags/product/1/1", "", http.StatusNoContent},
		{"untag again", http.MethodDelete, "/tags/product/1/1", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	t.Run("list kinds", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tags/kinds", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"kinds":["customer","product"]}`, rec.Body.String())
	})
}
