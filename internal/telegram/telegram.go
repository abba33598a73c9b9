package telegram

import (
	"context"

	"telecast/internal/domain"
)

// Ack is the platform's structured acknowledgement of a delivery call.
// OK mirrors the platform's explicit success flag; Description carries the
// human-readable failure cause when OK is false.
type Ack struct {
	OK          bool
	Description string
}

// PhotoRef points at the photo payload: a remote URL or raw bytes with a
// file name. Exactly one of URL and Bytes is set.
type PhotoRef struct {
	URL   string
	Name  string
	Bytes []byte
}

// Client is the messaging capability the dispatcher is written against.
// Implementations return transport failures as error values and platform
// rejections as Ack{OK: false}.
type Client interface {
	SendText(ctx context.Context, channelID, text string, buttons []domain.Button) (Ack, error)
	SendPhoto(ctx context.Context, channelID string, photo PhotoRef, caption string, buttons []domain.Button) (Ack, error)
}
