package customers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/joao-fontenele/storefront/internal/auth"
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

func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	c, err := h.svc.Me(r.Context(), caller)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to get customer", "user_id", caller.UserID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, c)
}

type updateMeRequest struct {
	Phone    string `json:"phone"`
	Birthday string `json:"birthday"`
}

func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var req updateMeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid profile body")
		return
	}

	in := ProfileInput{Phone: req.Phone}
	if req.Birthday != "" {
		birthday, err := time.Parse(time.DateOnly, req.Birthday)
		if err != nil {
			httpx.WriteDomainError(w, h.logger, domain.InvalidArgument("birthday must be YYYY-MM-DD"), "invalid birthday")
			return
		}
		in.Birthday = &birthday
	}

	c, err := h.svc.UpdateMe(r.Context(), caller, in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to update customer", "user_id", caller.UserID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, c)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.List(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list customers")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, customers)
}

type membershipRequest struct {
	Membership domain.Membership `json:"membership"`
}

func (h *Handler) HandleSetMembership(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid customer id")
		return
	}

	var req membershipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid membership body")
		return
	}

	c, err := h.svc.SetMembership(r.Context(), id, req.Membership)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to set membership", "customer_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, c)
}

func (h *Handler) HandleListAddresses(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	addresses, err := h.svc.ListAddresses(r.Context(), caller)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list addresses", "user_id", caller.UserID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, addresses)
}

type addressRequest struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

func (h *Handler) HandleAddAddress(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var req addressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid address body")
		return
	}

	a, err := h.svc.AddAddress(r.Context(), caller, req.Street, req.City)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to add address", "user_id", caller.UserID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, a)
}
