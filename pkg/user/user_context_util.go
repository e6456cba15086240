package user

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const UserKey contextKey = "user"

var ErrNoUser = errors.New("user not found")

// CurrentId returns the id of the request's user. Services use it to scope
// every task, work record and report query to its owner. Returns ErrNoUser
// when no user was attached to the context.
func CurrentId(ctx context.Context) (int, error) {
	user, ok := ctx.Value(UserKey).(User)
	if !ok {
		log.Trace("no user attached to context")
		return 0, ErrNoUser
	}
	return user.Id, nil
}

// CurrentUser returns the full user record attached to the context.
func CurrentUser(ctx context.Context) (User, error) {
	user, ok := ctx.Value(UserKey).(User)
	if !ok {
		log.Trace("no user attached to context")
		return User{}, ErrNoUser
	}
	return user, nil
}

// WithUser attaches a user to the context. The X-User-Id middleware calls it
// after resolving the header to a user; tests call it directly.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}
