// Package artifacts stores serialized model pipelines, one current
// artifact per user, overwritten on save.
package artifacts

import (
	"context"
	"fmt"
)

// NotFoundError reports a load for a user with no persisted model.
type NotFoundError struct {
	UserID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no model artifact for user %q", e.UserID)
}

// Store is the artifact store contract: opaque blobs keyed by user
// identifier, overwrite semantics on save.
type Store interface {
	// Save persists the blob as the user's current artifact, replacing any
	// previous one.
	Save(ctx context.Context, userID string, blob []byte) error

	// Load returns the user's current artifact. Returns a *NotFoundError
	// if none exists.
	Load(ctx context.Context, userID string) ([]byte, error)
}
