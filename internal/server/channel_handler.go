package server

import (
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"

	"telecast/internal/domain"
	"telecast/pkg/response"
)

type channelView struct {
	ChannelID    string    `json:"channelId"`
	Title        string    `json:"title,omitempty"`
	Handle       string    `json:"handle,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func (s *Server) listChannels(c echo.Context) error {
	channels, err := s.Service.ListActiveChannels(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}

	views := make([]channelView, 0, len(channels))
	for _, ch := range channels {
		views = append(views, channelView{
			ChannelID:    ch.ChannelID,
			Title:        ch.Title,
			Handle:       ch.Handle,
			Kind:         ch.Kind,
			RegisteredAt: ch.RegisteredAt,
		})
	}
	return response.Ok(c, views)
}

func (s *Server) deleteChannel(c echo.Context) error {
	if err := s.Service.RemoveChannelRegistration(c.Request().Context(), c.Param("id")); err != nil {
		return s.writeError(c, err)
	}
	return response.OkWithMessage(c, "channel registration removed", nil)
}

// telegramWebhook consumes raw platform updates. Only my_chat_member
// membership changes matter here; every other update is acknowledged and
// dropped so the platform does not retry it.
func (s *Server) telegramWebhook(c echo.Context) error {
	var update tgbotapi.Update
	if err := c.Bind(&update); err != nil {
		return response.BadRequest(c, err)
	}

	member := update.MyChatMember
	if member == nil {
		return c.NoContent(http.StatusOK)
	}

	ev := domain.ChannelEvent{
		ChannelID: strconv.FormatInt(member.Chat.ID, 10),
		Title:     member.Chat.Title,
		Handle:    member.Chat.UserName,
		Kind:      member.Chat.Type,
		Granted:   membershipGranted(member.NewChatMember.Status),
	}

	if err := s.Service.HandleChannelEvent(c.Request().Context(), ev); err != nil {
		return s.writeError(c, err)
	}

	s.Logger.Info("Channel membership update handled",
		"channel_id", ev.ChannelID, "granted", ev.Granted, "status", member.NewChatMember.Status)
	return c.NoContent(http.StatusOK)
}

func membershipGranted(status string) bool {
	switch status {
	case "administrator", "member", "creator":
		return true
	default:
		return false
	}
}
