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

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, method jwt.SigningMethod, key any, c Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, c).SignedString(key)
	require.NoError(t, err)
	return s
}

func userClaims(role string, exp time.Time) Claims {
	return Claims{
		Email: "an@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "6f1c2a9e-2b53-4a55-9d0b-3f1a4a1f7c11",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestVerify_ValidToken(t *testing.T) {
	raw := sign(t, jwt.SigningMethodHS256, []byte(testSecret), userClaims("authenticated", time.Now().Add(time.Hour)))

	c, err := NewVerifier(testSecret).Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a9e-2b53-4a55-9d0b-3f1a4a1f7c11", c.UserID())
	assert.Equal(t, "authenticated", c.Role)
	assert.Equal(t, "an@example.com", c.Email)
}

func TestVerify_Rejects(t *testing.T) {
	v := NewVerifier(testSecret)

	tests := []struct {
		name string
		raw  string
	}{
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(testSecret), userClaims("authenticated", time.Now().Add(-time.Minute)))},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("another-secret"), userClaims("authenticated", time.Now().Add(time.Hour)))},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(testSecret), userClaims("authenticated", time.Now().Add(time.Hour)))},
		{"missing expiry", sign(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{Role: "authenticated"})},
		{"garbage", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerify_NoSecret(t *testing.T) {
	_, err := NewVerifier("").Verify("anything")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(testSecret)
	var seen *Claims
	h := Middleware(v)(RequireRole(RoleService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	serve := func(authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, serve("").Code)
	assert.Equal(t, http.StatusUnauthorized, serve("Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, serve("Basic abc").Code)

	user := sign(t, jwt.SigningMethodHS256, []byte(testSecret), userClaims("authenticated", time.Now().Add(time.Hour)))
	rec := serve("Bearer " + user)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"FORBIDDEN","message":"Insufficient role"}}`, rec.Body.String())

	svc := sign(t, jwt.SigningMethodHS256, []byte(testSecret), userClaims(RoleService, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusNoContent, serve("bearer "+svc).Code)
	require.NotNil(t, seen)
	assert.Equal(t, RoleService, seen.Role)
}

func TestMiddleware_NotConfigured(t *testing.T) {
	h := Middleware(NewVerifier(""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
