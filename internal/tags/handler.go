package tags

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpx"
)

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) HandleKinds(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string][]domain.EntityKind{"kinds": h.svc.Kinds()})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	kind := domain.EntityKind(r.PathValue("kind"))
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid entity id")
		return
	}

	tags, err := h.svc.TagsFor(r.Context(), kind, id)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list tags", "kind", kind, "entity_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, tags)
}

type tagRequest struct {
	Label string `json:"label"`
}

func (h *Handler) HandleTag(w http.ResponseWriter, r *http.Request) {
	kind := domain.EntityKind(r.PathValue("kind"))
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid entity id")
		return
	}

	var req tagRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid tag body")
		return
	}

	tag, err := h.svc.Tag(r.Context(), kind, id, req.Label)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to tag entity", "kind", kind, "entity_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, tag)
}

func (h *Handler) HandleUntag(w http.ResponseWriter, r *http.Request) {
	kind := domain.EntityKind(r.PathValue("kind"))
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid entity id")
		return
	}
	tagID, err := httpx.PathID(r, "tag")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid tag id")
		return
	}

	if err := h.svc.Untag(r.Context(), kind, id, tagID); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to untag entity", "kind", kind, "entity_id", id, "tag_id", tagID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
