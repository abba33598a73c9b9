package post

import (
	"context"
	"errors"
	"time"

	"telecast/internal/domain"
)

var ErrNotFound = errors.New("post not found")

// StatusUpdate is the atomic terminal-state write applied by the dispatch
// path: status, error text and sent timestamp change as one record write.
type StatusUpdate struct {
	Status domain.PostStatus
	Error  string
	SentAt *time.Time
}

type Repository interface {
	// Put inserts or fully replaces a post by id, preserving the original
	// CreatedAt when the id already exists. Returns the stored record.
	Put(ctx context.Context, p domain.Post) (domain.Post, error)

	// Get returns the post or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Post, error)

	// List returns all posts. Callers must not depend on ordering.
	List(ctx context.Context) ([]*domain.Post, error)

	// Delete removes a post. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// UpdateStatus applies a status update. Updating an id that no longer
	// exists is a silent no-op: the record may have been deleted while a
	// send was in flight.
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) error
}
