package user

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const UserKey contextKey = "user"

var ErrNoUser = errors.New("no authenticated user")

// CurrentId retrieves the current user's ID from the context. Returns ErrNoUser if the request
// was not authenticated.
func CurrentId(ctx context.Context) (int, error) {
	u, ok := ctx.Value(UserKey).(User)
	if !ok {
		log.Trace("user not found in context")
		return 0, ErrNoUser
	}
	return u.Id, nil
}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}
