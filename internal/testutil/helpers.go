// Package testutil builds fully wired API servers for handler tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/odegate/internal/analytics"
	"github.com/TimurManjosov/odegate/internal/api"
	"github.com/TimurManjosov/odegate/internal/auth"
	"github.com/TimurManjosov/odegate/internal/gate"
	"github.com/TimurManjosov/odegate/internal/rollout"
	"github.com/TimurManjosov/odegate/internal/store"
	"github.com/TimurManjosov/odegate/internal/unlock"
)

const (
	Env           = "test"
	AdminKey      = "test-admin-key"
	SessionSecret = "test-session-secret"
	RolloutSalt   = "test-salt"
	ButtonFeature = "unified-buttons"
)

// TestEnv is a server wired to in-memory collaborators.
type TestEnv struct {
	Server   *api.Server
	Handler  http.Handler
	Store    *store.MemoryStore
	Hub      *analytics.Hub
	Sessions *auth.JWTResolver
}

// Option customises NewTestServer.
type Option func(*api.Deps)

// WithFeatures replaces the gate's features.
func WithFeatures(features map[string]rollout.Config) Option {
	return func(d *api.Deps) { d.Gate = gate.New(features, d.Publisher, zerolog.Nop()) }
}

// WithUnknownPolicy sets the evaluator's policy for unknown conditions.
func WithUnknownPolicy(p unlock.UnknownPolicy) Option {
	return func(d *api.Deps) { d.Evaluator = unlock.Evaluator{Policy: p} }
}

// WithRateLimit enables per-IP rate limiting.
func WithRateLimit(perMinute int) Option {
	return func(d *api.Deps) { d.RateLimitPerIP = perMinute }
}

// WithStore swaps the store for one that, for example, injects failures.
func WithStore(st store.Store) Option {
	return func(d *api.Deps) { d.Store = st }
}

// NewTestServer creates a server backed by an in-memory store. By default
// the button feature is fully rolled out.
func NewTestServer(t *testing.T, opts ...Option) *TestEnv {
	t.Helper()
	memStore := store.NewMemoryStore()
	hub := analytics.NewHub()
	sessions := auth.NewJWTResolver(SessionSecret)

	deps := api.Deps{
		Store:     memStore,
		Sessions:  sessions,
		Admin:     auth.NewAdminVerifier(AdminKey, ""),
		Publisher: hub,
		Hub:       hub,
		Logger:    zerolog.Nop(),
		Env:       Env,

		RolloutSalt:   RolloutSalt,
		ButtonFeature: ButtonFeature,
	}
	deps.Gate = gate.New(map[string]rollout.Config{
		ButtonFeature: {Enabled: true, Strategy: rollout.StrategyPercentage, Percentage: rollout.Percent(100), Salt: RolloutSalt},
	}, hub, zerolog.Nop())
	for _, opt := range opts {
		opt(&deps)
	}

	server := api.NewServer(deps)
	return &TestEnv{
		Server:   server,
		Handler:  server.Router(),
		Store:    memStore,
		Hub:      hub,
		Sessions: sessions,
	}
}

// Token issues a session token for userID.
func (e *TestEnv) Token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.Sessions.Issue(userID, "", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// Bearer returns an Authorization header map for token.
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// DecodeJSON decodes the recorded body into v.
func DecodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

// SeedItems populates the store with test items.
func SeedItems(ctx context.Context, st store.Store, items []store.UpsertParams) error {
	for _, it := range items {
		if err := st.UpsertItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}
