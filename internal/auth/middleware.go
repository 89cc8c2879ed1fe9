package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// context.WithValue accepts any key. A package-private type means no other
// package can create a colliding key, so only this package can read or write
// the authenticated user.
type contextKey string

const userKey contextKey = "user"

// UserResolver turns a bearer token into the user it belongs to.
// service.AuthService implements it; any error means "not authenticated".
type UserResolver interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <jwt>", resolves it to a full user record,
// and stores that user in the request context. A missing header, a bad or
// expired token, or a token for a user that no longer exists all stop the
// chain with 401.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new one that wraps it:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
func RequireAuth(resolver UserResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w, logger, "authorization token required")
				return
			}

			user, err := resolver.Authenticate(r.Context(), token)
			if err != nil {
				msg := "invalid or expired token"
				var appErr *apperror.AppError
				if errors.As(err, &appErr) && appErr.Message != "" {
					msg = appErr.Message
				}
				unauthorized(w, logger, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUser returns a copy of ctx carrying user. Handler tests use it to skip
// the token round-trip.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user stored by RequireAuth.
//
// Usage in handlers:
//
//	user, ok := auth.UserFromContext(r.Context())
//	if !ok {
//	    // route was mounted without RequireAuth
//	}
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func unauthorized(w http.ResponseWriter, logger *slog.Logger, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body := map[string]string{"error": "unauthorized", "message": message}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("failed to write 401 response", slog.String("error", err.Error()))
	}
}
