// Package middleware provides HTTP middleware for authentication and request tracing.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const principalKey ContextKey = "principal"

// APIKeyHeader carries an API key.
const APIKeyHeader = "X-API-Key"

// Authentication methods recorded on a Principal.
const (
	MethodAPIKey = "api_key"
	MethodJWT    = "jwt"
)

// ErrUnauthorized is returned by a KeyResolver for keys that do not belong to anyone.
var ErrUnauthorized = errors.New("unauthorized")

// TokenValidator is an interface for validating JWT tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (UserIDGetter, error)
}

// UserIDGetter is an interface for extracting user ID from token claims.
type UserIDGetter interface {
	GetUserID() uuid.UUID
}

// KeyResolver maps a raw API key to its owner.
type KeyResolver interface {
	ResolveAPIKey(ctx context.Context, key string) (*Principal, error)
}

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Method string
	// KeyHash identifies the presenting API key. Empty for bearer tokens.
	KeyHash string
}

// AuthMiddleware accepts either an X-API-Key header or an Authorization: Bearer token and
// stores the resulting Principal in the request context. Either argument may be nil to
// disable that method. When both headers are present the API key is used.
func AuthMiddleware(tokens TokenValidator, keys KeyResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, status := authenticate(r, tokens, keys)
			if principal == nil {
				deny(w, status)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func authenticate(r *http.Request, tokens TokenValidator, keys KeyResolver) (*Principal, int) {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" && keys != nil {
		principal, err := keys.ResolveAPIKey(r.Context(), key)
		switch {
		case err == nil && principal != nil:
			return principal, 0
		case err == nil, errors.Is(err, ErrUnauthorized):
			return nil, http.StatusUnauthorized
		default:
			return nil, http.StatusServiceUnavailable
		}
	}

	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok || tokens == nil {
		return nil, http.StatusUnauthorized
	}
	claims, err := tokens.ValidateToken(token)
	if err != nil {
		return nil, http.StatusUnauthorized
	}
	return &Principal{UserID: claims.GetUserID(), Method: MethodJWT}, 0
}

// bearerToken extracts the token from an Authorization header. The scheme is matched
// case-insensitively.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func deny(w http.ResponseWriter, status int) {
	msg := "unauthorized"
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="resumeai"`)
	} else {
		msg = "authentication unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the authenticated caller stored by AuthMiddleware.
func GetPrincipal(r *http.Request) (*Principal, error) {
	p, ok := r.Context().Value(principalKey).(*Principal)
	if !ok || p == nil {
		return nil, fmt.Errorf("principal not found in request context")
	}
	return p, nil
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, error) {
	p, err := GetPrincipal(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user ID not found in request context")
	}
	return p.UserID, nil
}
