// Package httpx holds the JSON response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	WriteJSON(w, logger, status, map[string]string{"error": message})
}

// StatusFor maps an error kind onto the response status.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument, domain.KindInvalidState:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError renders err for the client. Expected kinds carry their
// message; anything else is logged and hidden behind a generic message.
func WriteDomainError(w http.ResponseWriter, logger *slog.Logger, err error, msg string, args ...any) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)

	switch kind {
	case domain.KindInternal:
		logger.Error(msg, append(args, "error", err)...)
		WriteError(w, logger, status, "internal server error")
	case domain.KindUnavailable:
		logger.Error(msg, append(args, "error", err)...)
		WriteError(w, logger, status, "service unavailable")
	default:
		logger.Info(msg, append(args, "reason", err.Error())...)
		WriteError(w, logger, status, publicMessage(err))
	}
}

func publicMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) && de.Msg != "" {
		return de.Msg
	}
	return err.Error()
}

// DecodeJSON reads a JSON body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.InvalidArgument("invalid request body: %v", err)
	}
	return nil
}

// PathID parses a positive integer path parameter.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.InvalidArgument("invalid %s %q", name, raw)
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.InvalidArgument("invalid %s %q", name, raw)
	}
	return v, nil
}

// Page is the envelope for paginated list responses.
type Page[T any] struct {
	Count    int  `json:"count"`
	Next     *int `json:"next"`
	Previous *int `json:"previous"`
	Results  []T  `json:"results"`
}

// NewPage builds the envelope for page (1-based) of size out of count rows.
func NewPage[T any](results []T, count, page, size int) Page[T] {
	if results == nil {
		results = []T{}
	}
	p := Page[T]{Count: count, Results: results}
	if page > 1 {
		prev := page - 1
		p.Previous = &prev
	}
	if page*size < count {
		next := page + 1
		p.Next = &next
	}
	return p
}
