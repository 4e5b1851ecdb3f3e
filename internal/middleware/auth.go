package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sensor-ingest/internal/metrics"
	"sensor-ingest/internal/model"
)

const (
	msgMissingToken     = "Token não fornecido"
	msgExpiredToken     = "Token expirado"
	msgInvalidToken     = "Token inválido"
	msgInsufficientRole = "Acesso negado, role insuficiente"
)

type tokenVerifier interface {
	Verify(token string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	verifier tokenVerifier
}

func NewAuthMiddleware(verifier tokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth admits requests carrying a valid bearer token and stores its
// claims in the request context. No store lookup happens here.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			metrics.AuthRejections.WithLabelValues("missing_token").Inc()
			writeMessage(w, http.StatusUnauthorized, msgMissingToken)
			return
		}

		claims, err := m.verifier.Verify(token)
		switch {
		case errors.Is(err, model.ErrTokenExpired):
			metrics.AuthRejections.WithLabelValues("expired_token").Inc()
			writeMessage(w, http.StatusUnauthorized, msgExpiredToken)
			return
		case err != nil:
			metrics.AuthRejections.WithLabelValues("invalid_token").Inc()
			writeMessage(w, http.StatusForbidden, msgInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole must run after RequireAuth. Roles are compared exactly, with no
// hierarchy between them.
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				metrics.AuthRejections.WithLabelValues("missing_token").Inc()
				writeMessage(w, http.StatusUnauthorized, msgMissingToken)
				return
			}

			if claims.Role != role {
				metrics.AuthRejections.WithLabelValues("insufficient_role").Inc()
				writeMessage(w, http.StatusForbidden, msgInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok
}

// bearerToken extracts the credential from "Bearer <token>". Any other shape
// counts as no token at all.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
