package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ActorClaims carries the identity fields the audit trail needs from a token.
type ActorClaims struct {
	Subject   string `json:"sub"`
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

type actorKey struct{}

// Actor retrieves the authenticated actor identity from the context.
// Returns an empty string for unauthenticated requests.
func Actor(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok {
		return actor
	}
	return ""
}

type accountKey struct{}

// AccountID retrieves the authenticated account from the context.
func AccountID(ctx context.Context) string {
	if account, ok := ctx.Value(accountKey{}).(string); ok {
		return account
	}
	return ""
}

// WithActor returns a context carrying the given actor identity.
// Used by tests and internal callers that bypass the HTTP middleware.
func WithActor(ctx context.Context, actor, accountID string) context.Context {
	ctx = context.WithValue(ctx, actorKey{}, actor)
	return context.WithValue(ctx, accountKey{}, accountID)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth returns middleware that validates HS256 bearer tokens and
// populates the context with the actor identity recorded in audit events.
func RequireAuth(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims := &ActorClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return signingKey, nil
			})
			if err != nil || !parsed.Valid {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", GetRequestID(ctx),
					"error", err,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if claims.Subject == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token missing subject claim")
				return
			}

			ctx = WithActor(ctx, claims.Subject, claims.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
