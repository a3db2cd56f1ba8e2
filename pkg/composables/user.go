package composables

import (
	"context"
	"errors"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/pkg/constants"
)

var (
	ErrNoUser          = errors.New("no user found in context")
	ErrInvalidPassword = errors.New("invalid password")
)

// WithUser returns a new context carrying the authenticated caller.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

// UseUser returns the authenticated caller. Every core operation treats a
// missing user as an authorization failure.
func UseUser(ctx context.Context) (user.User, error) {
	u, ok := ctx.Value(constants.UserKey).(user.User)
	if !ok || u.IsZero() {
		return user.User{}, ErrNoUser
	}
	return u, nil
}
