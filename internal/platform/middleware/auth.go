package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/httputil"
	"fundvault/pkg/requestcontext"
)

// Claims are the bearer-token claims minted by the identity service. Tokens
// are only validated here, never issued.
type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// RequireAuth validates the Authorization bearer token with the shared HS256
// key and puts the resulting actor on the context. Requests without a valid
// token get 401.
func RequireAuth(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(signingKey), nil
			})
			if err != nil || !parsed.Valid || claims.Subject == "" {
				logger.DebugContext(r.Context(), "token rejected",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid bearer token"))
				return
			}

			ctx := requestcontext.WithActor(r.Context(), requestcontext.Actor{
				ID:          claims.Subject,
				Name:        claims.Username,
				Role:        claims.Role,
				Permissions: claims.Permissions,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
