package application

import (
	"context"

	"github.com/oksasatya/skyport/internal/domain/entity"
)

// AccountState is where a browser sits in the account lifecycle.
type AccountState string

const (
	StateAnonymous                AccountState = "anonymous"
	StateAuthenticatedUnconfirmed AccountState = "authenticated_unconfirmed"
	StateAuthenticatedConfirmed   AccountState = "authenticated_confirmed"
)

// StateOf maps the current user (nil when anonymous) to its state.
func StateOf(u *entity.User) AccountState {
	switch {
	case u == nil:
		return StateAnonymous
	case u.Confirmed:
		return StateAuthenticatedConfirmed
	default:
		return StateAuthenticatedUnconfirmed
	}
}

type userCtxKey struct{}

// WithUser stores the resolved current user in ctx.
func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the current user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *entity.User {
	u, _ := ctx.Value(userCtxKey{}).(*entity.User)
	return u
}
