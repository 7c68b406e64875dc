// Package tags attaches free-form labels to any registered entity kind.
// The tag tables know nothing about the entities; a kind takes part by
// registering a Resolver.
package tags

import (
	"context"
	"sort"
	"sync"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Resolver reports whether an entity of its kind exists.
type Resolver interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(ctx context.Context, id int64) (bool, error)

func (f ResolverFunc) Exists(ctx context.Context, id int64) (bool, error) { return f(ctx, id) }

type Registry struct {
	mu        sync.RWMutex
	resolvers map[domain.EntityKind]Resolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: map[domain.EntityKind]Resolver{}}
}

func (r *Registry) Register(kind domain.EntityKind, res Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[kind] = res
}

func (r *Registry) lookup(kind domain.EntityKind) (Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resolvers[kind]
	if !ok {
		return nil, domain.InvalidArgument("unknown entity kind %q", kind)
	}
	return res, nil
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []domain.EntityKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]domain.EntityKind, 0, len(r.resolvers))
	for k := range r.resolvers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
