package dispatcher

import (
	"context"

	"telecast/internal/domain"
)

// Client is the scheduling core. Start launches the periodic scan for due
// posts and runs until ctx is cancelled. SendNow triggers the same delivery
// path for a single post regardless of its schedule.
type Client interface {
	Start(ctx context.Context) error
	SendNow(ctx context.Context, id string) (*domain.Post, error)
}
