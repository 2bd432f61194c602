package authctx

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/crustline/order-svc/internal/service/models/actor"
)

// Headers set by the upstream authentication layer. This service only
// authorizes; it never authenticates.
const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

type contextKey struct{}

// Middleware resolves the actor identity from the request headers and
// stores it in the request context. Requests without a valid actor
// pass through; handlers that need one reject them via FromRequest.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(HeaderActorID))
		if err != nil {
			next.ServeHTTP(w, r)

			return
		}

		role, err := actor.ParseRole(r.Header.Get(HeaderActorRole))
		if err != nil {
			next.ServeHTTP(w, r)

			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, actor.Actor{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the resolved actor, if any.
func FromContext(ctx context.Context) (actor.Actor, bool) {
	act, ok := ctx.Value(contextKey{}).(actor.Actor)

	return act, ok
}

// FromRequest returns the resolved actor or writes 401 and reports
// false.
func FromRequest(w http.ResponseWriter, r *http.Request) (actor.Actor, bool) {
	act, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, "actor identity is missing", http.StatusUnauthorized)
	}

	return act, ok
}
