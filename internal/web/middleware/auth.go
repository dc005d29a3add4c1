package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/SentinelAdmin/internal/auth"
	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

// TokenVerifier validates a bearer token. *auth.Issuer implements it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth returns middleware that requires "Authorization: Bearer <token>".
//
// A missing token answers 401 AUTH001. An expired token answers 403 with
// error TOKEN_EXPIRED, any other invalid token 403 with INVALID_TOKEN. On
// success the operator is stored in the request context as a core.Principal.
func Auth(v TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(v, true)
}

// OptionalAuth attaches the principal when a valid token is present and
// lets the request through without one. A token that is present but
// invalid is still rejected.
func OptionalAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(v, false)
}

func authenticate(v TokenVerifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				slog.Warn("auth: missing token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHENTICATED", core.ErrUnauthenticated)
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				slog.Warn("auth: rejected token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				if errors.Is(err, auth.ErrTokenExpired) {
					writeAuthError(w, http.StatusForbidden, "TOKEN_EXPIRED", err)
				} else {
					writeAuthError(w, http.StatusForbidden, "INVALID_TOKEN", err)
				}
				return
			}

			ctx := core.ContextWithPrincipal(r.Context(), core.Principal{
				ID:       claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, label string, err error) {
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   label,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}
