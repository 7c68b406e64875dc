package orders

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/carts"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpx"
)

// Handler serves the order routes. Every route expects auth.RequireUser (or
// stricter) in front of it.
type Handler struct {
	checkout *Checkout
	svc      *Service
	logger   *slog.Logger
}

func NewHandler(checkout *Checkout, svc *Service, logger *slog.Logger) *Handler {
	return &Handler{
		checkout: checkout,
		svc:      svc,
		logger:   logger,
	}
}

type checkoutRequest struct {
	CartID string `json:"cart_id"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid checkout body")
		return
	}

	cartID, err := carts.ParseID(req.CartID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid cart id")
		return
	}

	order, err := h.checkout.Place(r.Context(), caller, cartID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "checkout failed", "cart_id", cartID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid order id")
		return
	}

	order, err := h.svc.Get(r.Context(), caller, id)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to get order", "order_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	orders, err := h.svc.List(r.Context(), caller)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list orders")
		return
	}

	h.logger.Debug("orders listed", "count", len(orders))
	httpx.WriteJSON(w, h.logger, http.StatusOK, orders)
}

type updatePaymentRequest struct {
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
}

func (h *Handler) HandleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid order id")
		return
	}

	var req updatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid payment body")
		return
	}

	order, err := h.svc.UpdatePaymentStatus(r.Context(), caller, id, req.PaymentStatus)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to update payment status", "order_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid order id")
		return
	}

	if err := h.svc.Cancel(r.Context(), caller, id); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to cancel order", "order_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
