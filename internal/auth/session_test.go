package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTResolver_BearerToken(t *testing.T) {
	r := NewJWTResolver("test-secret")
	token, err := r.Issue("user-42", "sess-1", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	s := r.Resolve(req)
	assert.Equal(t, "user-42", s.UserID)
	assert.Equal(t, "sess-1", s.SessionID)
	assert.True(t, s.SignedIn())
}

func TestJWTResolver_Cookie(t *testing.T) {
	r := NewJWTResolver("test-secret")
	token, err := r.Issue("user-7", "", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	req.AddCookie(&http.Cookie{Name: SessionIDCookie, Value: "cookie-sid"})

	s := r.Resolve(req)
	assert.Equal(t, "user-7", s.UserID)
	assert.Equal(t, "cookie-sid", s.SessionID)
}

func TestJWTResolver_Anonymous(t *testing.T) {
	r := NewJWTResolver("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionIDHeader, "anon-sid")

	s := r.Resolve(req)
	assert.False(t, s.SignedIn())
	assert.Equal(t, "anon-sid", s.SessionID)
}

func TestJWTResolver_RejectsBadTokens(t *testing.T) {
	r := NewJWTResolver("test-secret")

	expired := NewJWTResolver("test-secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue("user-1", "", time.Hour)
	require.NoError(t, err)

	otherKey, err := NewJWTResolver("other-secret").Issue("user-1", "", time.Hour)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expiredToken,
		"wrong key": otherKey,
		"alg none":  noneToken,
		"garbage":   "not.a.jwt",
		"admin key": "admin-123",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			assert.False(t, r.Resolve(req).SignedIn())
		})
	}
}

func TestJWTResolver_NoSecret(t *testing.T) {
	r := NewJWTResolver("")
	_, err := r.Issue("user-1", "", time.Hour)
	assert.Error(t, err)

	signed, err := NewJWTResolver("x").Issue("user-1", "", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	assert.False(t, r.Resolve(req).SignedIn())
}

func TestMiddleware_StoresSession(t *testing.T) {
	r := NewJWTResolver("test-secret")
	token, err := r.Issue("user-9", "", time.Hour)
	require.NoError(t, err)

	var got Session
	h := Middleware(r)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = SessionFrom(req.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "user-9", got.UserID)
}

func TestSessionFrom_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Session{}, SessionFrom(req.Context()))
}
