package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/fx"

	"telecast/internal/dispatcher"
	"telecast/internal/domain"
	"telecast/internal/repositories/channel"
	"telecast/internal/repositories/post"
	"telecast/pkg/config"
	apperrors "telecast/pkg/errors"
	"telecast/pkg/logger"
)

// Telegram caps captions at 1024 characters and plain messages at 4096.
const (
	maxCaptionLength = 1024
	maxTextLength    = 4096
)

const defaultTimezone = "UTC"

type Opts struct {
	fx.In

	PostRepo   post.Repository
	Channels   channel.Registry
	Dispatcher dispatcher.Client
	Config     *config.Config
	Logger     logger.Logger
}

// Service implements the boundary operations the HTTP layer delegates to.
type Service struct {
	PostRepo   post.Repository
	Channels   channel.Registry
	Dispatcher dispatcher.Client
	Config     *config.Config
	Logger     logger.Logger
}

func New(opts Opts) *Service {
	return &Service{
		PostRepo:   opts.PostRepo,
		Channels:   opts.Channels,
		Dispatcher: opts.Dispatcher,
		Config:     opts.Config,
		Logger:     opts.Logger.WithComponent("Service"),
	}
}

// PostInput is the shape accepted from clients when registering a post.
type PostInput struct {
	ID        string
	ChannelID string
	Date      string
	Time      string
	Timezone  string
	Text      string
	Image     string
	Buttons   []domain.Button
}

// CreateOrReplacePost validates the input and inserts or fully replaces the
// record. The new record always starts scheduled; CreatedAt of an existing
// record is preserved by the store. When rescheduling is disabled,
// overwriting a post that already reached a terminal state is rejected.
func (s *Service) CreateOrReplacePost(ctx context.Context, in PostInput) (*domain.Post, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	img := domain.ParseImage(in.Image)
	if err := validatePayload(in.Text, img); err != nil {
		return nil, err
	}

	tz := in.Timezone
	if tz == "" {
		tz = defaultTimezone
	}

	if !s.Config.Scheduler.AllowReschedule {
		existing, err := s.PostRepo.Get(ctx, in.ID)
		if err == nil && existing.Status.Terminal() {
			return nil, apperrors.Wrap(apperrors.ErrTerminalPost,
				fmt.Sprintf("post %q is %s", in.ID, existing.Status))
		}
	}

	stored, err := s.PostRepo.Put(ctx, domain.Post{
		ID:        in.ID,
		ChannelID: in.ChannelID,
		Date:      in.Date,
		Time:      in.Time,
		Timezone:  tz,
		Text:      in.Text,
		Image:     img,
		Buttons:   in.Buttons,
		Status:    domain.StatusScheduled,
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Post registered", "post_id", stored.ID, "channel_id", stored.ChannelID,
		"date", stored.Date, "time", stored.Time, "timezone", stored.Timezone)
	return &stored, nil
}

func (s *Service) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	return s.PostRepo.List(ctx)
}

func (s *Service) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	p, err := s.PostRepo.Get(ctx, id)
	if err != nil {
		if apperrors.Is(err, post.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Sprintf("post %q", id))
		}
		return nil, err
	}
	return p, nil
}

// DeletePost always succeeds, including for ids that were never registered.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	return s.PostRepo.Delete(ctx, id)
}

// SendPostNow triggers the manual delivery path and reports the resulting
// post, which carries the terminal status and any delivery error.
func (s *Service) SendPostNow(ctx context.Context, id string) (*domain.Post, error) {
	return s.Dispatcher.SendNow(ctx, id)
}

func (s *Service) ListActiveChannels(ctx context.Context) ([]*domain.ChannelRegistration, error) {
	return s.Channels.ListActive(ctx)
}

func (s *Service) RemoveChannelRegistration(ctx context.Context, channelID string) error {
	return s.Channels.Unregister(ctx, channelID)
}

// HandleChannelEvent consumes a translated platform membership update:
// gaining posting rights registers the channel, losing them removes the
// registration immediately.
func (s *Service) HandleChannelEvent(ctx context.Context, ev domain.ChannelEvent) error {
	if ev.ChannelID == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "channel event without channel id")
	}
	if ev.Granted {
		return s.Channels.Register(ctx, ev)
	}
	return s.Channels.Unregister(ctx, ev.ChannelID)
}

func validateInput(in PostInput) error {
	switch {
	case in.ID == "":
		return apperrors.Wrap(apperrors.ErrInvalidInput, "id is required")
	case in.ChannelID == "":
		return apperrors.Wrap(apperrors.ErrInvalidInput, "channelId is required")
	case in.Date == "":
		return apperrors.Wrap(apperrors.ErrInvalidInput, "date is required")
	case in.Time == "":
		return apperrors.Wrap(apperrors.ErrInvalidInput, "time is required")
	}
	return nil
}

func validatePayload(text string, img domain.ImageRef) error {
	if text == "" && img.Kind == domain.ImageNone {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "post needs text or an image")
	}

	length := utf8.RuneCountInString(text)
	if img.Kind != domain.ImageNone && length > maxCaptionLength {
		return apperrors.Wrap(apperrors.ErrInvalidInput,
			fmt.Sprintf("caption exceeds %d characters", maxCaptionLength))
	}
	if img.Kind == domain.ImageNone && length > maxTextLength {
		return apperrors.Wrap(apperrors.ErrInvalidInput,
			fmt.Sprintf("text exceeds %d characters", maxTextLength))
	}
	return nil
}
