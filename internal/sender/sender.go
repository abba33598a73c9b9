package sender

import (
	"context"

	"telecast/internal/domain"
)

// Outcome is the structured result of a single delivery attempt. The
// adapter never raises: every failure path resolves to an Outcome with
// PlatformError populated.
type Outcome struct {
	OK            bool
	PlatformError string
}

// Adapter issues exactly one outbound delivery attempt per call. Retries
// are the caller's concern.
type Adapter interface {
	Send(ctx context.Context, post domain.Post) Outcome
}
