package senderimpl

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"go.uber.org/fx"

	"telecast/internal/domain"
	"telecast/internal/ratelimit"
	"telecast/internal/sender"
	"telecast/internal/telegram"
	"telecast/pkg/logger"
)

type Opts struct {
	fx.In

	Telegram telegram.Client
	Limiter  ratelimit.Limiter
	Logger   logger.Logger
}

type SenderImpl struct {
	Telegram telegram.Client
	Limiter  ratelimit.Limiter
	Logger   logger.Logger
}

func New(opts Opts) *SenderImpl {
	return &SenderImpl{
		Telegram: opts.Telegram,
		Limiter:  opts.Limiter,
		Logger:   opts.Logger.WithComponent("Sender"),
	}
}

var _ sender.Adapter = (*SenderImpl)(nil)

// Send normalizes the post's payload shape into one transport call.
// Priority: inline data image, then image by URL, then plain text. A
// malformed inline payload fails before anything reaches the transport.
func (s *SenderImpl) Send(ctx context.Context, p domain.Post) sender.Outcome {
	var photo telegram.PhotoRef
	switch p.Image.Kind {
	case domain.ImageData:
		name, data, err := decodeInlineImage(p.Image.Raw)
		if err != nil {
			s.Logger.Warn("Rejecting post with malformed inline image", "post_id", p.ID, "error", err)
			return sender.Outcome{PlatformError: "invalid inline image: " + err.Error()}
		}
		photo = telegram.PhotoRef{Name: name, Bytes: data}
	case domain.ImageURL:
		photo = telegram.PhotoRef{URL: p.Image.Raw}
	}

	if err := s.Limiter.Wait(ctx, p.ChannelID); err != nil {
		return sender.Outcome{PlatformError: "rate limit wait aborted: " + err.Error()}
	}

	var (
		ack telegram.Ack
		err error
	)
	if p.Image.Kind == domain.ImageNone {
		ack, err = s.Telegram.SendText(ctx, p.ChannelID, p.Text, p.Buttons)
	} else {
		ack, err = s.Telegram.SendPhoto(ctx, p.ChannelID, photo, p.Text, p.Buttons)
	}

	if err != nil {
		return sender.Outcome{PlatformError: err.Error()}
	}
	if !ack.OK {
		desc := ack.Description
		if desc == "" {
			desc = "delivery rejected by platform"
		}
		return sender.Outcome{PlatformError: desc}
	}

	return sender.Outcome{OK: true}
}

// decodeInlineImage splits a data:<mime>;base64,<payload> value and decodes
// the payload.
func decodeInlineImage(raw string) (string, []byte, error) {
	rest := strings.TrimPrefix(raw, "data:")
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, errors.New("missing base64 marker")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, errors.New("empty image payload")
	}

	return fileNameFor(mime), data, nil
}

func fileNameFor(mime string) string {
	switch mime {
	case "image/png":
		return "image.png"
	case "image/gif":
		return "image.gif"
	case "image/webp":
		return "image.webp"
	default:
		return "image.jpg"
	}
}
