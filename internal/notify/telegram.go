package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramChannel доставка уведомлений через Telegram
type TelegramChannel struct {
	bot *bot.Bot
}

// NewTelegramChannel создаёт Telegram-канал.
// Допускает nil бота - тогда канал просто недоступен.
func NewTelegramChannel(b *bot.Bot) *TelegramChannel {
	return &TelegramChannel{bot: b}
}

func (c *TelegramChannel) IsAvailable() bool {
	return c.bot != nil
}

// Send отправляет сообщение в чат получателя.
// У Telegram нет черновиков и отмены пользователем - успех всегда delivered.
func (c *TelegramChannel) Send(ctx context.Context, msg Message) (DeliveryOutcome, error) {
	if c.bot == nil {
		return OutcomeFailed, fmt.Errorf("telegram channel is not configured")
	}

	chatID, err := strconv.ParseInt(msg.Address, 10, 64)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("parse chat id %q: %w", msg.Address, err)
	}

	_, err = c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      msg.Text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("send telegram message: %w", err)
	}

	return OutcomeDelivered, nil
}
