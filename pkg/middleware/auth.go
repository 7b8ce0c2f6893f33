package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	"go.uber.org/zap"
)

// ContextKey is the type of keys this package stores on request contexts.
type ContextKey string

const (
	IdentityContextKey ContextKey = "identity"
	holderContextKey   ContextKey = "identity_holder"
)

// identityHolder lets RequestLogger see the user resolved by an inner
// middleware.
type identityHolder struct {
	userID string
}

func withIdentityHolder(ctx context.Context, holder *identityHolder) context.Context {
	return context.WithValue(ctx, holderContextKey, holder)
}

// TokenValidator resolves a bearer token to the caller's identity.
type TokenValidator interface {
	ValidateAccessToken(token string) (models.Identity, error)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
		return "", false
	}
	return strings.TrimSpace(tokenString), true
}

// AuthMiddleware rejects requests without a valid access token and stores
// the resolved identity on the request context.
func AuthMiddleware(validator TokenValidator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				utils.WriteUnauthorizedResponse(w, "Missing authorization header")
				return
			}
			tokenString, ok := bearerToken(r)
			if !ok {
				utils.WriteUnauthorizedResponse(w, "Invalid authorization header format")
				return
			}

			identity, err := validator.ValidateAccessToken(tokenString)
			if err != nil {
				log.Debug("rejected access token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				utils.WriteUnauthorizedResponse(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuthMiddleware attaches the identity when a valid token is sent
// and lets the request through unauthenticated otherwise.
func OptionalAuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString, ok := bearerToken(r); ok {
				if identity, err := validator.ValidateAccessToken(tokenString); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	if holder, ok := ctx.Value(holderContextKey).(*identityHolder); ok {
		holder.userID = identity.UserID
	}
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// GetIdentityFromContext returns the identity stored by the auth middleware.
func GetIdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(models.Identity)
	if !ok || identity.IsZero() {
		return models.Identity{}, false
	}
	return identity, true
}

// RequireIdentity is GetIdentityFromContext for handlers behind
// AuthMiddleware; a missing identity is an Unauthorized error.
func RequireIdentity(ctx context.Context) (models.Identity, error) {
	identity, ok := GetIdentityFromContext(ctx)
	if !ok {
		return models.Identity{}, errs.Unauthorized("user not authenticated")
	}
	return identity, nil
}
