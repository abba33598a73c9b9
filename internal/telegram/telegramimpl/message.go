package telegramimpl

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telecast/internal/domain"
	"telecast/internal/telegram"
)

// SendText delivers a plain text message with an optional inline keyboard.
// Messages go out without parse_mode so user text never trips entity parsing.
func (tg *TelegramImpl) SendText(ctx context.Context, channelID, text string, buttons []domain.Button) (telegram.Ack, error) {
	if err := ctx.Err(); err != nil {
		return telegram.Ack{}, err
	}

	msg := tgbotapi.NewMessage(0, text)
	applyTarget(&msg.BaseChat, channelID)
	if markup := buildKeyboard(buttons); markup != nil {
		msg.ReplyMarkup = markup
	}

	return tg.request(msg, channelID)
}

// SendPhoto delivers a photo with caption, either by remote URL or as an
// uploaded byte payload.
func (tg *TelegramImpl) SendPhoto(ctx context.Context, channelID string, photo telegram.PhotoRef, caption string, buttons []domain.Button) (telegram.Ack, error) {
	if err := ctx.Err(); err != nil {
		return telegram.Ack{}, err
	}

	var file tgbotapi.RequestFileData
	if len(photo.Bytes) > 0 {
		file = tgbotapi.FileBytes{Name: photo.Name, Bytes: photo.Bytes}
	} else {
		file = tgbotapi.FileURL(photo.URL)
	}

	msg := tgbotapi.NewPhoto(0, file)
	applyTarget(&msg.BaseChat, channelID)
	msg.Caption = caption
	if markup := buildKeyboard(buttons); markup != nil {
		msg.ReplyMarkup = markup
	}

	return tg.request(msg, channelID)
}

func (tg *TelegramImpl) request(c tgbotapi.Chattable, channelID string) (telegram.Ack, error) {
	resp, err := tg.TgBot.Request(c)
	if err != nil {
		if resp != nil && resp.Description != "" {
			tg.Logger.Warn("Delivery rejected by Telegram", "channel_id", channelID, "description", resp.Description)
			return telegram.Ack{OK: false, Description: resp.Description}, nil
		}
		tg.Logger.Error("Error calling Telegram", "channel_id", channelID, "error", err)
		return telegram.Ack{}, err
	}

	return telegram.Ack{OK: resp.Ok, Description: resp.Description}, nil
}

// applyTarget points a message at a channel given either a numeric chat id
// or a channel username.
func applyTarget(base *tgbotapi.BaseChat, channelID string) {
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		base.ChatID = id
		return
	}
	if !strings.HasPrefix(channelID, "@") {
		channelID = "@" + channelID
	}
	base.ChannelUsername = channelID
}

// buildKeyboard turns the button sequence into an inline keyboard with one
// full-width button per row, in submitted order. An empty sequence produces
// no keyboard at all.
func buildKeyboard(buttons []domain.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL),
		))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
