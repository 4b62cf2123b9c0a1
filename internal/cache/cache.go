// Package cache keeps resolved user profiles close to the token gate so that
// authenticated requests do not hit the primary store every time.
package cache

import (
	"context"

	"github.com/nexusnotes/nexus-notes/internal/model"
)

// ProfileCache stores users by ID. A miss is reported with ok == false and a nil error.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (user model.User, ok bool, err error)
	Set(ctx context.Context, user model.User) error
	Delete(ctx context.Context, userID string) error
}
