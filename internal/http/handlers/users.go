package handlers

import (
	"fmt"
	"net/http"
	"time"

	"crowdfund/internal/domain"
	"crowdfund/internal/ledger"
	"crowdfund/internal/middleware"
)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UsersCreate registers an account. Only Donor and CampaignCreator can be
// self-assigned; Admin is granted out of band.
func (a *App) UsersCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	role := domain.UserRole(req.Role)
	if role == domain.UserRoleAdmin {
		a.fail(w, r, fmt.Errorf("admin role cannot be self-assigned: %w", domain.ErrForbidden))
		return
	}
	u, err := a.Ledger.RegisterUser(r.Context(), ledger.RegisterUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, viewUser(u))
}

func (a *App) UsersGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	u, err := a.Ledger.GetUser(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewUser(u))
}

func (a *App) UsersDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	actorID, err := a.actorFromQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Ledger.DeleteUser(r.Context(), actorID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createSessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionsCreate exchanges credentials for a bearer token.
func (a *App) SessionsCreate(w http.ResponseWriter, r *http.Request) {
	if a.JWTSecret == "" {
		a.error(w, http.StatusNotFound, "not_found", "sessions are disabled")
		return
	}
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	u, err := a.Ledger.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ttl := a.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := middleware.SignJWT(a.JWTSecret, u.ID, string(u.Role), middleware.LocaleFromContext(r.Context()), ttl)
	if err != nil {
		a.Logger.Error().Err(err).Int64("user_id", u.ID).Msg("sign token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to issue token")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int64(ttl.Seconds()),
		"user":       viewUser(u),
	})
}
