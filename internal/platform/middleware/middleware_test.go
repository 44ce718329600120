package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundvault/pkg/requestcontext"
)

const testSigningKey = "test-signing-key"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signToken(t *testing.T, key string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	var captured requestcontext.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.ActorFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAuth(testSigningKey, discardLogger())(next)

	t.Run("valid token populates the actor", func(t *testing.T) {
		token := signToken(t, testSigningKey, Claims{
			Username:    "back.office",
			Role:        "operator",
			Permissions: []string{"deposits:*", "bonds:read"},
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/v1/deposits", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "user-1", captured.ID)
		assert.Equal(t, "back.office", captured.Name)
		assert.Equal(t, "operator", captured.Role)
		assert.Equal(t, []string{"deposits:*", "bonds:read"}, captured.Permissions)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/deposits", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := signToken(t, testSigningKey, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/v1/deposits", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		token := signToken(t, "some-other-key", Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/v1/deposits", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token without a subject is rejected", func(t *testing.T) {
		token := signToken(t, testSigningKey, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/v1/deposits", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestClientMetadata(t *testing.T) {
	var gotIP string
	var gotInfo requestcontext.DeviceInfo
	handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotInfo = requestcontext.DeviceInfoFrom(r.Context())
	}))

	t.Run("first forwarded hop wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "203.0.113.9", gotIP)
	})

	t.Run("falls back to the remote address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.4:51234"
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "192.0.2.4", gotIP)
	})

	t.Run("classifies a desktop browser", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "desktop", gotInfo.Device)
		assert.Equal(t, "Chrome", gotInfo.Browser)
		assert.Contains(t, gotInfo.OS, "Windows")
	})

	t.Run("classifies a phone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "mobile", gotInfo.Device)
		assert.Equal(t, "Safari", gotInfo.Browser)
		assert.NotEmpty(t, gotInfo.OS)
	})
}

func TestRequestID(t *testing.T) {
	var got string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))

	t.Run("honors an inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "upstream-42")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, "upstream-42", got)
		assert.Equal(t, "upstream-42", rr.Header().Get("X-Request-ID"))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.NotEmpty(t, got)
		assert.Equal(t, got, rr.Header().Get("X-Request-ID"))
	})
}
