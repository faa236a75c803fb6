// Package api serves gated content, unlock and rollout decisions, user
// progress and admin writes over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/TimurManjosov/odegate/internal/analytics"
	"github.com/TimurManjosov/odegate/internal/auth"
	"github.com/TimurManjosov/odegate/internal/gate"
	"github.com/TimurManjosov/odegate/internal/store"
	"github.com/TimurManjosov/odegate/internal/telemetry"
	"github.com/TimurManjosov/odegate/internal/unlock"
)

const (
	requestTimeout  = 5 * time.Second
	maxRequestBytes = 1 << 20 // 1MB
)

// Deps are the collaborators of the server. Store, Gate, Sessions and Admin
// are required; the rest have usable zero values.
type Deps struct {
	Store     store.Store
	Evaluator unlock.Evaluator
	Gate      *gate.Gate
	Sessions  auth.SessionResolver
	Admin     *auth.AdminVerifier
	// Publisher receives unlock and item events. Hub, when set, also feeds
	// the admin analytics stream and should be part of Publisher.
	Publisher analytics.Publisher
	Hub       *analytics.Hub
	Logger    zerolog.Logger

	Env            string // content environment served
	RolloutSalt    string // salt for stateless rollout decisions
	ButtonFeature  string // feature key reported with button lists
	RateLimitPerIP int    // requests per minute; <= 0 disables limiting
}

type Server struct {
	store     store.Store
	evaluator unlock.Evaluator
	gate      *gate.Gate
	sessions  auth.SessionResolver
	admin     *auth.AdminVerifier
	pub       analytics.Publisher
	hub       *analytics.Hub
	log       zerolog.Logger

	env           string
	rolloutSalt   string
	buttonFeature string
	rateLimit     int
}

func NewServer(d Deps) *Server {
	pub := d.Publisher
	if pub == nil {
		pub = analytics.NopPublisher{}
	}
	return &Server{
		store:         d.Store,
		evaluator:     d.Evaluator,
		gate:          d.Gate,
		sessions:      d.Sessions,
		admin:         d.Admin,
		pub:           pub,
		hub:           d.Hub,
		log:           d.Logger,
		env:           d.Env,
		rolloutSalt:   d.RolloutSalt,
		buttonFeature: d.ButtonFeature,
		rateLimit:     d.RateLimitPerIP,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(hlog.NewHandler(s.log), requestLogger)
	r.Use(telemetry.Middleware)
	if s.rateLimit > 0 {
		r.Use(httprate.Limit(s.rateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(RateLimitedError),
		))
	}
	r.Use(auth.Middleware(s.sessions))

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		// public: annotated content
		r.Get("/v1/chapters/{chapterID}/buttons", s.handleListItems(store.KindButton))
		r.Get("/v1/chapters/{chapterID}/sub-chapters", s.handleListItems(store.KindSubChapter))
		r.Get("/v1/items/{id}", s.handleGetItem)

		// public: stateless decisions
		r.Post("/v1/unlock/evaluate", s.handleEvaluateUnlock)
		r.Post("/v1/rollout/decide", s.handleDecideRollout)
		r.Get("/v1/features/{key}", s.handleFeature)

		// signed-in users: memory wallet
		r.Get("/v1/me/progress", s.requireSignIn(s.handleGetProgress))
		r.Post("/v1/me/stamps", s.requireSignIn(s.handleAddStamp))
		r.Post("/v1/me/tasks", s.requireSignIn(s.handleCompleteTask))

		// admin (protected): item writes
		r.Put("/v1/items/{id}", s.authAdmin(s.handleUpsertItem))
		r.Delete("/v1/items/{id}", s.authAdmin(s.handleDeleteItem))
	})

	// admin (protected): long-lived, so outside the request timeout
	r.Get("/v1/analytics/stream", s.authAdmin(s.handleAnalyticsStream))

	return r
}

// requestLogger tags the request logger with the request id and writes one
// access line per request.
func requestLogger(next http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", reqID)
			})
		}
		access(next).ServeHTTP(w, r)
	})
}

// ---- middleware ----

func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			UnauthorizedError(w, r, ErrCodeUnauthorized, "missing bearer token")
			return
		}
		if s.admin == nil || !s.admin.Verify(token) {
			ForbiddenError(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func (s *Server) requireSignIn(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.SessionFrom(r.Context()).SignedIn() {
			UnauthorizedError(w, r, ErrCodeSignIn, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	}
}
