package domain

import (
	"strings"
	"time"
)

type PostStatus string

const (
	StatusScheduled PostStatus = "scheduled"
	StatusSent      PostStatus = "sent"
	StatusFailed    PostStatus = "failed"
)

// Terminal reports whether the status admits no further automatic transition.
func (s PostStatus) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

type ImageKind int

const (
	ImageNone ImageKind = iota
	ImageURL
	ImageData
)

const dataURIPrefix = "data:"

// ImageRef is the classified image payload of a post. Raw keeps the exact
// submitted value so records round-trip through the API unchanged; inline
// payloads are decoded only at delivery time.
type ImageRef struct {
	Kind ImageKind
	Raw  string
}

// ParseImage classifies a submitted image value. Anything carrying the
// data-URI prefix is inline data; any other non-empty value is a remote URL.
func ParseImage(raw string) ImageRef {
	if raw == "" {
		return ImageRef{Kind: ImageNone}
	}
	if strings.HasPrefix(raw, dataURIPrefix) {
		return ImageRef{Kind: ImageData, Raw: raw}
	}
	return ImageRef{Kind: ImageURL, Raw: raw}
}

type Button struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Post is one scheduled delivery unit. Date, Time and Timezone hold the
// local wall-clock schedule; the absolute instant is resolved at every
// dispatch check, never cached on the record.
type Post struct {
	ID        string
	ChannelID string
	Date      string
	Time      string
	Timezone  string
	Text      string
	Image     ImageRef
	Buttons   []Button
	Status    PostStatus
	Error     string
	CreatedAt time.Time
	SentAt    *time.Time
}
