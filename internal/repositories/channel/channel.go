package channel

import (
	"context"
	"errors"

	"telecast/internal/domain"
)

var ErrNotFound = errors.New("channel registration not found")

// Registry keeps the time-bounded records of channels the bot can currently
// post to. Expired entries are pruned when read, not by a background sweep:
// a registry that is never listed keeps its stale entries until the next
// read or an explicit Unregister.
type Registry interface {
	// Register inserts or replaces the registration for the event's
	// channel, stamped with the current time.
	Register(ctx context.Context, ev domain.ChannelEvent) error

	// Unregister removes a registration immediately, regardless of TTL.
	// Removing an unknown channel is not an error.
	Unregister(ctx context.Context, channelID string) error

	// ListActive returns registrations younger than the TTL as of now and
	// removes the expired entries it encountered.
	ListActive(ctx context.Context) ([]*domain.ChannelRegistration, error)
}
