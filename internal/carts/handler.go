package carts

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/httpx"
)

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.Create(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to create cart")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, cart)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid cart id")
		return
	}

	cart, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to get cart", "cart_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, cart)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid cart id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to delete cart", "cart_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := ParseID(r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid cart id")
		return
	}

	var req addItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid cart item body")
		return
	}

	item, err := h.svc.AddItem(r.Context(), cartID, req.ProductID, req.Quantity)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to add cart item", "cart_id", cartID, "product_id", req.ProductID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, item)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := ParseID(r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid cart id")
		return
	}
	itemID, err := httpx.PathID(r, "item")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid cart item body")
		return
	}

	item, err := h.svc.UpdateItemQuantity(r.Context(), cartID, itemID, req.Quantity)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to update cart item", "cart_id", cartID, "item_id", itemID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, item)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := ParseID(r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid cart id")
		return
	}
	itemID, err := httpx.PathID(r, "item")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid item id")
		return
	}

	if err := h.svc.RemoveItem(r.Context(), cartID, itemID); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to remove cart item", "cart_id", cartID, "item_id", itemID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
