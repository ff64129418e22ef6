package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estudiolume/leads-api/internal/http/handlers"
	"github.com/estudiolume/leads-api/internal/identity"
	"github.com/estudiolume/leads-api/internal/leads"
	"github.com/estudiolume/leads-api/internal/ratelimit"
	"github.com/estudiolume/leads-api/pkg/logging"
)

type passVerifier struct{}

func (passVerifier) Configured() bool                            { return true }
func (passVerifier) Verify(context.Context, string, string) bool { return true }

type noopNotifier struct{}

func (noopNotifier) SendLeadCreated(context.Context, *leads.Lead) (bool, string) {
	return false, "not_configured"
}

type staticResolver struct{ email string }

func (staticResolver) Configured() bool { return true }

func (s staticResolver) ResolveEmail(_ context.Context, token string) (string, error) {
	if token != "good-token" {
		return "", identity.ErrUnauthenticated
	}
	return s.email, nil
}

func newTestRouter(t *testing.T) (http.Handler, *leads.InMemoryRepository) {
	t.Helper()
	logger := logging.Default()
	repo := leads.NewInMemoryRepository()
	return New(&Config{
		Logger:            logger,
		LeadsHandler:      leads.NewHandler(repo, passVerifier{}, noopNotifier{}, nil, logger),
		AdminLeadsHandler: handlers.NewAdminLeadsHandler(repo, nil, logger),
		Limiter:           ratelimit.NewFixedWindow(10*time.Minute, 10),
		IdentityResolver:  staticResolver{email: "admin@example.com"},
		AdminEmails:       []string{"admin@example.com"},
	}), repo
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_SubmitLead(t *testing.T) {
	r, repo := newTestRouter(t)

	body := `{
		"name": "Joana Prado",
		"email": "joana@example.com",
		"phone": "11987654321",
		"message": "I would like a quote for a mural piece.",
		"turnstileToken": "tok-123"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	_, total, err := repo.List(context.Background(), leads.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRouter_AdminRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/admin/leads", "/api/admin/leads/export"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/leads", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer bad-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AdminListAuthorized(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp handlers.ListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Zero(t, resp.Total)
}

func TestRouter_UnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
