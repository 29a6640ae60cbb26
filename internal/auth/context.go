package auth

import (
	"context"

	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
)

type Actor struct {
	ID    string          `json:"id"`
	Roles []workflow.Role `json:"roles,omitempty"`
}

// Authorizer answers scoped role questions. Scope is a family name.
type Authorizer interface {
	HasRole(ctx context.Context, actorID string, role workflow.Role, scope string) (bool, error)
}

// AuthContext is built once per request from the verified token.
type AuthContext interface {
	CurrentActor() Actor
	HasRole(ctx context.Context, role workflow.Role, scope string) (bool, error)
}

type requestAuth struct {
	actor      Actor
	authorizer Authorizer
}

func NewAuthContext(actor Actor, authorizer Authorizer) AuthContext {
	return &requestAuth{actor: actor, authorizer: authorizer}
}

func (a *requestAuth) CurrentActor() Actor {
	return a.actor
}

func (a *requestAuth) HasRole(ctx context.Context, role workflow.Role, scope string) (bool, error) {
	return a.authorizer.HasRole(ctx, a.actor.ID, role, scope)
}

// HasAnyRole reports whether the caller holds at least one of roles in scope.
func HasAnyRole(ctx context.Context, ac AuthContext, roles []workflow.Role, scope string) (bool, error) {
	for _, role := range roles {
		ok, err := ac.HasRole(ctx, role, scope)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type contextKey struct{}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}
