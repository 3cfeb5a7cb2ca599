package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// ActorSource resolves the authenticated actor behind a session user ID.
type ActorSource interface {
	ActorByID(ctx context.Context, id string) (*Actor, error)
}

// Middleware wires authorization helpers for HTTP handlers. Each guard
// resolves the session's actor once, stores it in the request context for
// downstream handlers, and fails closed on any resolution error.
type Middleware struct {
	Resolver *Resolver
	Source   ActorSource
	Logger   *slog.Logger
}

// WithActor resolves the current actor into the request context without
// gating. Routes that branch on role inside the handler use this.
func (m Middleware) WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := m.currentActor(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

// RequireAny ensures the actor holds at least one of the permissions.
// An empty requirement list passes.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actor, ok := m.currentActor(w, r)
			if !ok {
				return
			}
			if !m.Resolver.HasAnyPermission(actor.Role, perms) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

// RequireAll ensures the actor holds every listed permission.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := m.currentActor(w, r)
			if !ok {
				return
			}
			if !m.Resolver.HasAllPermissions(actor.Role, perms) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

// RequireLevel ensures the actor satisfies the permission level. Admin
// roles pass unconditionally per HasPermissionLevel.
func (m Middleware) RequireLevel(level PermissionLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := m.currentActor(w, r)
			if !ok {
				return
			}
			if !m.Resolver.HasPermissionLevel(actor, level) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

// RequireRole ensures the actor holds one of the listed roles exactly.
// system_admin does not bypass this guard; list it explicitly when wanted.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := m.currentActor(w, r)
			if !ok {
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
					return
				}
			}
			forbidden(w)
		})
	}
}

func (m Middleware) currentActor(w http.ResponseWriter, r *http.Request) (*Actor, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		unauthorized(w)
		return nil, false
	}
	userID := strings.TrimSpace(sess.User())
	if userID == "" {
		unauthorized(w)
		return nil, false
	}
	actor, err := m.Source.ActorByID(r.Context(), userID)
	if err != nil || actor == nil {
		if err != nil && m.Logger != nil {
			m.Logger.Error("authz resolve actor", slog.String("user_id", userID), slog.Any("error", err))
		}
		forbidden(w)
		return nil, false
	}
	return actor, true
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

func forbidden(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
