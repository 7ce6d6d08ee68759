package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/ilan2004/Ev-wheels-sub003/internal/rbac"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
)

type contextKey string

const actorKey contextKey = "actor"

// Authenticator turns a bearer token into a request-scoped Actor. Role
// and location assignments are loaded fresh on every request: clients can
// cache an "active location" locally, but the server never trusts any of
// that without re-reading the assignments.
type Authenticator struct {
	jwtService *JWTService
	users      store.UserStore
}

func NewAuthenticator(jwtService *JWTService, users store.UserStore) *Authenticator {
	return &Authenticator{
		jwtService: jwtService,
		users:      users,
	}
}

// Middleware authenticates the request and injects the actor into the
// context. Authorization happens later, in the gateway; here we only
// establish who is calling.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			http.Error(w, "authorization header missing or malformed", http.StatusUnauthorized)
			return
		}

		claims, err := a.jwtService.ValidateToken(ctx, strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		user, err := a.users.GetByID(ctx, claims.UserID)
		if err != nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(ctx, user.Actor())))
	})
}

// WithActor injects an actor; exported for handler tests.
func WithActor(ctx context.Context, actor rbac.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor returns the authenticated actor for the request.
func GetActor(ctx context.Context) (rbac.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(rbac.Actor)
	return actor, ok
}
