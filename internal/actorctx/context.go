package actorctx

import (
	"context"

	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
)

// ActorContextKey is the request context key for the authenticated actor.
type ActorContextKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor identitydomain.Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey{}, actor)
}

// ActorFromContext returns the actor from context, if set.
func ActorFromContext(ctx context.Context) (identitydomain.Actor, bool) {
	if ctx == nil {
		return identitydomain.Actor{}, false
	}
	actor, ok := ctx.Value(ActorContextKey{}).(identitydomain.Actor)
	if !ok || actor.UserID == 0 {
		return identitydomain.Actor{}, false
	}
	return actor, true
}
