package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"crowdfund/internal/domain"
	"crowdfund/internal/ledger"
	"crowdfund/internal/middleware"
	"crowdfund/internal/storage"
)

const maxBodyBytes = 1 << 20

// App holds the dependencies of the HTTP handlers.
type App struct {
	Ledger    *ledger.Service
	Proofs    *storage.FileStore
	Logger    zerolog.Logger
	JWTSecret string
	TokenTTL  time.Duration
	// Ping reports store reachability for the health check.
	Ping func(ctx context.Context) error
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid payload: %w", domain.ErrValidation)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %w", name, domain.ErrValidation)
	}
	return id, nil
}

// actor resolves who performs a request. With JWT enabled the token subject
// is authoritative and a user_id in the body must agree with it; without it
// the body's user_id is trusted.
func (a *App) actor(r *http.Request, bodyUserID int64) (int64, error) {
	if id, ok := middleware.ActorFromContext(r.Context()); ok {
		if bodyUserID != 0 && bodyUserID != id {
			return 0, fmt.Errorf("user_id does not match token: %w", domain.ErrForbidden)
		}
		return id, nil
	}
	if a.JWTSecret != "" {
		return 0, fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	}
	if bodyUserID <= 0 {
		return 0, fmt.Errorf("user_id is required: %w", domain.ErrValidation)
	}
	return bodyUserID, nil
}

// actorFromQuery is actor for bodiless requests such as DELETE.
func (a *App) actorFromQuery(r *http.Request) (int64, error) {
	var id int64
	if v := r.URL.Query().Get("user_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid user_id: %w", domain.ErrValidation)
		}
		id = parsed
	}
	return a.actor(r, id)
}

// fail writes err as a localized JSON error.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := classify(err)
	locale := middleware.LocaleFromContext(r.Context())
	body := map[string]string{
		"code":    kind.code,
		"message": localize(locale, kind.message),
	}
	if kind.status < http.StatusInternalServerError {
		body["detail"] = err.Error()
	}
	evt := a.Logger.Debug()
	if kind.status >= http.StatusInternalServerError {
		evt = a.Logger.Error()
	}
	evt.Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Int("status", kind.status).
		Msg("request failed")
	if kind.status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	a.json(w, kind.status, map[string]any{"error": body})
}

type errorKind struct {
	status  int
	code    string
	message string
}

var errorKinds = []struct {
	target error
	kind   errorKind
}{
	{domain.ErrValidation, errorKind{http.StatusBadRequest, "validation_error", msgValidation}},
	{domain.ErrNotFound, errorKind{http.StatusNotFound, "not_found", msgNotFound}},
	{domain.ErrInsufficientFunds, errorKind{http.StatusUnprocessableEntity, "insufficient_funds", msgInsufficientFunds}},
	{domain.ErrState, errorKind{http.StatusConflict, "invalid_state", msgState}},
	{domain.ErrForbidden, errorKind{http.StatusForbidden, "forbidden", msgForbidden}},
	{domain.ErrUnauthorized, errorKind{http.StatusUnauthorized, "unauthorized", msgUnauthorized}},
	{domain.ErrCommitUnknown, errorKind{http.StatusInternalServerError, "outcome_unknown", msgOutcomeUnknown}},
	{domain.ErrConnectivity, errorKind{http.StatusServiceUnavailable, "unavailable", msgUnavailable}},
	{domain.ErrConflict, errorKind{http.StatusConflict, "conflict", msgConflict}},
	{storage.ErrUnsupportedType, errorKind{http.StatusUnsupportedMediaType, "unsupported_media_type", msgUnsupportedType}},
	{storage.ErrTooLarge, errorKind{http.StatusRequestEntityTooLarge, "too_large", msgTooLarge}},
	{context.DeadlineExceeded, errorKind{http.StatusServiceUnavailable, "unavailable", msgUnavailable}},
}

func classify(err error) errorKind {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	return errorKind{http.StatusInternalServerError, "internal", msgInternal}
}
