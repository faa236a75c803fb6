package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie carries the signed session token for browser clients.
	SessionCookie = "ode_session"
	// SessionIDCookie and SessionIDHeader carry an anonymous session id.
	SessionIDCookie = "ode_sid"
	SessionIDHeader = "X-Session-ID"
)

// Session is the resolved caller. An empty UserID means anonymous.
type Session struct {
	UserID    string
	SessionID string
}

// SignedIn reports whether the caller has a user id.
func (s Session) SignedIn() bool { return s.UserID != "" }

// SessionResolver resolves the caller of a request. It never fails: anything
// it cannot verify is treated as anonymous.
type SessionResolver interface {
	Resolve(r *http.Request) Session
}

// sessionClaims are the claims of a session token. The subject is the user id.
type sessionClaims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 session tokens issued by the auth provider.
type JWTResolver struct {
	secret []byte
	now    func() time.Time
}

// NewJWTResolver creates a resolver. With an empty secret no token is ever
// accepted and every caller is anonymous.
func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), now: time.Now}
}

// Issue signs a session token. The service itself only verifies tokens;
// Issue exists for tooling and tests.
func (j *JWTResolver) Issue(userID, sessionID string, ttl time.Duration) (string, error) {
	if len(j.secret) == 0 {
		return "", errors.New("session secret is not configured")
	}
	now := j.now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Resolve reads the session token from the Authorization header or the
// session cookie, and the session id from the token, header or cookie.
func (j *JWTResolver) Resolve(r *http.Request) Session {
	var s Session
	if claims, ok := j.verify(tokenFromRequest(r)); ok {
		s.UserID = claims.Subject
		s.SessionID = claims.SessionID
	}
	if s.SessionID == "" {
		s.SessionID = sessionIDFromRequest(r)
	}
	return s
}

func (j *JWTResolver) verify(token string) (*sessionClaims, bool) {
	if token == "" || len(j.secret) == 0 {
		return nil, false
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}

func tokenFromRequest(r *http.Request) string {
	if token := ExtractBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func sessionIDFromRequest(r *http.Request) string {
	if id := r.Header.Get(SessionIDHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionIDCookie); err == nil {
		return c.Value
	}
	return ""
}

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFrom returns the session stored in ctx, or an anonymous session.
func SessionFrom(ctx context.Context) Session {
	s, _ := ctx.Value(sessionContextKey).(Session)
	return s
}

// Middleware resolves the session once per request and stores it in the context.
func Middleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := resolver.Resolve(r)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
