package accounts

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

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid registration body")
		return
	}

	account, err := h.svc.Register(r.Context(), in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "registration failed", "username", in.Username)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, account)
}
