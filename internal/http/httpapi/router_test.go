package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"crowdfund/internal/domain"
	"crowdfund/internal/http/handlers"
	"crowdfund/internal/ledger"
	"crowdfund/internal/ledger/ledgertest"
	"crowdfund/internal/storage"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	svc     *ledger.Service
	admin   *domain.User
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	svc := ledger.NewService(ledgertest.NewStore(), zerolog.Nop(), ledger.WithBcryptCost(bcrypt.MinCost))
	proofs, err := storage.NewFileStore(t.TempDir(), "http://localhost/static")
	require.NoError(t, err)
	admin, err := svc.RegisterUser(context.Background(), ledger.RegisterUserInput{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "admin-password",
		Role:     domain.UserRoleAdmin,
	})
	require.NoError(t, err)
	app := &handlers.App{
		Ledger:    svc,
		Proofs:    proofs,
		Logger:    zerolog.Nop(),
		JWTSecret: secret,
		TokenTTL:  time.Hour,
	}
	return &testServer{
		t:       t,
		handler: NewRouter(app, Options{Logger: zerolog.Nop(), DefaultLocale: "en"}),
		svc:     svc,
		admin:   admin,
	}
}

func (s *testServer) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	return e["code"].(string)
}

func (s *testServer) createUser(name, role string) int64 {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/users", map[string]any{
		"username": name,
		"email":    name + "@example.com",
		"password": "correct-horse",
		"role":     role,
	}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decodeBody(s.t, rec)["id"].(float64))
}

func (s *testServer) approvedCampaign(ownerID, goal int64) int64 {
	s.t.Helper()
	ctx := context.Background()
	c, err := s.svc.CreateCampaign(ctx, ownerID, ledger.CreateCampaignInput{Title: "Library roof", GoalAmount: goal})
	require.NoError(s.t, err)
	_, err = s.svc.ReviewCampaign(ctx, s.admin.ID, c.ID, true)
	require.NoError(s.t, err)
	return c.ID
}

func TestCampaignReviewOverHTTP(t *testing.T) {
	s := newTestServer(t, "")
	owner := s.createUser("owner", "CampaignCreator")

	rec := s.do(http.MethodPost, "/v1/campaigns", map[string]any{
		"user_id":     owner,
		"title":       "Library roof",
		"goal_amount": 1000,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, "PENDING", body["status"])
	path := fmt.Sprintf("/v1/campaigns/%d", int64(body["id"].(float64)))

	rec = s.do(http.MethodPost, path+"/review", map[string]any{"user_id": owner, "approve": true}, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, path+"/review", map[string]any{"user_id": s.admin.ID}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, path+"/review", map[string]any{"user_id": s.admin.ID, "approve": true}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "APPROVED", decodeBody(t, rec)["status"])

	rec = s.do(http.MethodPost, path+"/active", map[string]any{"user_id": owner, "active": false}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, false, decodeBody(t, rec)["is_active"])

	rec = s.do(http.MethodGet, "/v1/campaigns?status=APPROVED", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody(t, rec)["items"], 1)

	rec = s.do(http.MethodGet, "/v1/campaigns?status=bogus", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, fmt.Sprintf("%s?user_id=%d", path, owner), nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMilestoneLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, "")
	owner := s.createUser("owner", "CampaignCreator")
	donor := s.createUser("donor", "Donor")
	campaignID := s.approvedCampaign(owner, 1000)
	base := fmt.Sprintf("/v1/campaigns/%d", campaignID)

	rec := s.do(http.MethodPost, base+"/donations", map[string]any{"user_id": donor, "amount": 600}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.EqualValues(t, 600, body["amount_raised"])
	require.Equal(t, false, body["goal_reached"])

	rec = s.do(http.MethodPost, base+"/milestones", map[string]any{"user_id": owner, "title": "Materials", "amount": 500}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	msPath := fmt.Sprintf("/v1/milestones/%d", int64(decodeBody(t, rec)["id"].(float64)))

	rec = s.do(http.MethodPost, msPath+"/submit", map[string]any{"user_id": owner, "proof_url": "https://example.com/receipt.pdf"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "SUBMITTED", decodeBody(t, rec)["status"])

	rec = s.do(http.MethodPost, msPath+"/votes", map[string]any{"user_id": owner, "approved": true}, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, msPath+"/votes", map[string]any{"user_id": donor, "approved": true}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, msPath+"/votes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tally := decodeBody(t, rec)["tally"].(map[string]any)
	require.EqualValues(t, 1, tally["approve"])
	require.EqualValues(t, 0, tally["reject"])

	rec = s.do(http.MethodPost, msPath+"/finalize", map[string]any{"user_id": owner}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "APPROVED", decodeBody(t, rec)["status"])

	rec = s.do(http.MethodPost, msPath+"/payout", map[string]any{"user_id": donor}, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, msPath+"/payout", map[string]any{"user_id": owner}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	require.Equal(t, "PAYOUT", body["type"])
	require.Equal(t, "COMPLETED", body["status"])
	require.EqualValues(t, 500, body["amount"])

	rec = s.do(http.MethodPost, msPath+"/payout", map[string]any{"user_id": owner}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, base, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, "COMPLETED", body["status"])
	require.EqualValues(t, 600, body["amount_raised"])
	require.EqualValues(t, 100, body["available_balance"])

	rec = s.do(http.MethodGet, base+"/transactions", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody(t, rec)["items"], 2)

	rec = s.do(http.MethodGet, "/v1/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.EqualValues(t, 600, body["total_raised"])
	require.EqualValues(t, 500, body["total_paid_out"])
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, "")
	owner := s.createUser("owner", "CampaignCreator")
	donor := s.createUser("donor", "Donor")
	campaignID := s.approvedCampaign(owner, 1000)
	base := fmt.Sprintf("/v1/campaigns/%d", campaignID)

	rec := s.do(http.MethodPost, base+"/donations", map[string]any{"user_id": donor, "amount": 0}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", errorCode(t, rec))

	rec = s.do(http.MethodPost, base+"/donations", map[string]any{"amount": 10}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, base+"/donations", map[string]any{"user_id": donor, "amount": 10, "tip": 1}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/v1/campaigns/999", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", errorCode(t, rec))

	rec = s.do(http.MethodGet, "/v1/campaigns/abc", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, base+"/milestones", map[string]any{"user_id": owner, "title": "Big", "amount": 900}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	msPath := fmt.Sprintf("/v1/milestones/%d", int64(decodeBody(t, rec)["id"].(float64)))

	rec = s.do(http.MethodPost, msPath+"/payout", map[string]any{"user_id": owner}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "invalid_state", errorCode(t, rec))

	rec = s.do(http.MethodPost, "/v1/users", map[string]any{
		"username": "root",
		"email":    "root@example.com",
		"password": "correct-horse",
		"role":     "Admin",
	}, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/v1/users", map[string]any{
		"username": "donor",
		"email":    "donor@example.com",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "conflict", errorCode(t, rec))
}

func TestInsufficientFundsOverHTTP(t *testing.T) {
	s := newTestServer(t, "")
	owner := s.createUser("owner", "CampaignCreator")
	donor := s.createUser("donor", "Donor")
	campaignID := s.approvedCampaign(owner, 1000)
	base := fmt.Sprintf("/v1/campaigns/%d", campaignID)

	rec := s.do(http.MethodPost, base+"/donations", map[string]any{"user_id": donor, "amount": 100}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, base+"/milestones", map[string]any{"user_id": owner, "title": "Roof", "amount": 400}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	msPath := fmt.Sprintf("/v1/milestones/%d", int64(decodeBody(t, rec)["id"].(float64)))
	rec = s.do(http.MethodPost, msPath+"/submit", map[string]any{"user_id": owner, "proof_url": "https://example.com/p.pdf"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, msPath+"/votes", map[string]any{"user_id": donor, "approved": true}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, msPath+"/finalize", map[string]any{"user_id": owner}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, msPath+"/payout", map[string]any{"user_id": owner}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "insufficient_funds", errorCode(t, rec))
}

func TestLocalizedErrors(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodGet, "/v1/campaigns/999", nil, map[string]string{"Accept-Language": "id"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "id", rec.Header().Get("Content-Language"))
	e := decodeBody(t, rec)["error"].(map[string]any)
	require.Equal(t, "Data yang diminta tidak ditemukan.", e["message"])

	rec = s.do(http.MethodGet, "/v1/campaigns/999", nil, nil)
	e = decodeBody(t, rec)["error"].(map[string]any)
	require.Equal(t, "The requested resource was not found.", e["message"])
}

func TestProofUpload(t *testing.T) {
	s := newTestServer(t, "")
	owner := s.createUser("owner", "CampaignCreator")
	campaignID := s.approvedCampaign(owner, 1000)
	rec := s.do(http.MethodPost, fmt.Sprintf("/v1/campaigns/%d/milestones", campaignID),
		map[string]any{"user_id": owner, "title": "Plans", "amount": 100}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	msPath := fmt.Sprintf("/v1/milestones/%d", int64(decodeBody(t, rec)["id"].(float64)))

	upload := func(userID int64, contentType, data string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("%s/proof?user_id=%d", msPath, userID), strings.NewReader(data))
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec
	}

	rec = upload(owner, "text/plain", "hello")
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = upload(s.createUser("other", "CampaignCreator"), "application/pdf", "%PDF-1.4")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = upload(owner, "application/pdf", "%PDF-1.4")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	proof, _ := decodeBody(t, rec)["proof_url"].(string)
	require.True(t, strings.HasPrefix(proof, "http://localhost/static/proofs/"), proof)

	rec = s.do(http.MethodPost, msPath+"/submit", map[string]any{"user_id": owner}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "SUBMITTED", decodeBody(t, rec)["status"])
}

func TestSessionsAndTokenActor(t *testing.T) {
	s := newTestServer(t, "test-secret")
	owner := s.createUser("owner", "CampaignCreator")
	donor := s.createUser("donor", "Donor")
	campaignID := s.approvedCampaign(owner, 1000)
	path := fmt.Sprintf("/v1/campaigns/%d/donations", campaignID)

	rec := s.do(http.MethodPost, "/v1/sessions", map[string]any{"email": "donor@example.com", "password": "wrong-password"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/v1/sessions", map[string]any{"email": "DONOR@example.com", "password": "correct-horse"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token := decodeBody(t, rec)["token"].(string)
	auth := map[string]string{"Authorization": "Bearer " + token}

	rec = s.do(http.MethodPost, path, map[string]any{"user_id": donor, "amount": 10}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, path, map[string]any{"user_id": owner, "amount": 10}, auth)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, path, map[string]any{"amount": 10}, auth)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.EqualValues(t, donor, decodeBody(t, rec)["donation"].(map[string]any)["user_id"])

	rec = s.do(http.MethodPost, path, map[string]any{"amount": 10}, map[string]string{"Authorization": "Bearer garbage"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitKeysOnPeerUnlessProxyTrusted(t *testing.T) {
	app := &handlers.App{Logger: zerolog.Nop()}
	post := func(h http.Handler, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/campaigns/1/donations", nil)
		req.RemoteAddr = "198.51.100.10:1234"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	direct := NewRouter(app, Options{Logger: zerolog.Nop(), RateLimitPerMin: 1})
	require.NotEqual(t, http.StatusTooManyRequests, post(direct, "203.0.113.1"))
	require.Equal(t, http.StatusTooManyRequests, post(direct, "203.0.113.2"))

	proxied := NewRouter(app, Options{Logger: zerolog.Nop(), RateLimitPerMin: 1, TrustProxy: true})
	require.NotEqual(t, http.StatusTooManyRequests, post(proxied, "203.0.113.1"))
	require.NotEqual(t, http.StatusTooManyRequests, post(proxied, "203.0.113.2"))
}

func TestHealth(t *testing.T) {
	app := &handlers.App{Logger: zerolog.Nop()}
	h := NewRouter(app, Options{Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	app.Ping = func(context.Context) error { return errors.New("down") }
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
