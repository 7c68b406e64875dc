package tags

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Store interface {
	ListFor(ctx context.Context, kind domain.EntityKind, entityID int64) ([]domain.Tag, error)
	Attach(ctx context.Context, kind domain.EntityKind, entityID int64, label string) (*domain.Tag, error)
	Detach(ctx context.Context, kind domain.EntityKind, entityID, tagID int64) error
}

type Service struct {
	registry *Registry
	store    Store
	logger   *slog.Logger
}

func NewService(registry *Registry, store Store, logger *slog.Logger) *Service {
	return &Service{registry: registry, store: store, logger: logger}
}

// Kinds lists the entity kinds that accept tags.
func (s *Service) Kinds() []domain.EntityKind {
	return s.registry.Kinds()
}

func (s *Service) TagsFor(ctx context.Context, kind domain.EntityKind, entityID int64) ([]domain.Tag, error) {
	if _, err := s.registry.lookup(kind); err != nil {
		return nil, err
	}
	return s.store.ListFor(ctx, kind, entityID)
}

func (s *Service) Tag(ctx context.Context, kind domain.EntityKind, entityID int64, label string) (*domain.Tag, error) {
	label = strings.TrimSpace(label)
	if label == "" || len(label) > 255 {
		return nil, domain.InvalidArgument("label must be 1 to 255 characters")
	}

	if err := s.mustExist(ctx, kind, entityID); err != nil {
		return nil, err
	}

	tag, err := s.store.Attach(ctx, kind, entityID, label)
	if err != nil {
		return nil, err
	}

	s.logger.Info("entity tagged", "kind", kind, "entity_id", entityID, "tag_id", tag.ID)
	return tag, nil
}

func (s *Service) Untag(ctx context.Context, kind domain.EntityKind, entityID, tagID int64) error {
	if _, err := s.registry.lookup(kind); err != nil {
		return err
	}
	return s.store.Detach(ctx, kind, entityID, tagID)
}

func (s *Service) mustExist(ctx context.Context, kind domain.EntityKind, entityID int64) error {
	res, err := s.registry.lookup(kind)
	if err != nil {
		return err
	}

	exists, err := res.Exists(ctx, entityID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NotFound("%s %d not found", kind, entityID)
	}
	return nil
}
