package domain

import "time"

// ChannelRegistration records that the bot recently gained posting rights on
// a channel. Registrations are transient handshake state with a short TTL.
type ChannelRegistration struct {
	ChannelID    string
	Title        string
	Handle       string
	Kind         string
	RegisteredAt time.Time
}

// ChannelEvent is the translated form of an inbound platform membership
// update. Granted is false when the bot lost its posting rights.
type ChannelEvent struct {
	ChannelID string
	Title     string
	Handle    string
	Kind      string
	Granted   bool
}
