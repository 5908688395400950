package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/mentorhub/mentor_sessions/internal/model"
	"github.com/mentorhub/mentor_sessions/internal/notify"
	"github.com/mentorhub/mentor_sessions/internal/repository"
	"github.com/mentorhub/mentor_sessions/internal/service"
	"go.uber.org/zap"
)

// BotController принимает решения менторов через Telegram-команды.
// Экраны и навигация живут в клиентском приложении; боту осталась только
// пара команд /accept и /decline.
type BotController struct {
	bot         *bot.Bot
	decisions   *service.DecisionService
	contactRepo *repository.ContactRepository
	logger      *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	decisions *service.DecisionService,
	contactRepo *repository.ContactRepository,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:         botInstance,
		decisions:   decisions,
		contactRepo: contactRepo,
		logger:      logger,
	}
}

// RegisterHandlers регистрирует обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/accept", bot.MatchTypePrefix, c.handleAccept)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/decline", bot.MatchTypePrefix, c.handleDecline)

	commands := []models.BotCommand{
		{Command: "accept", Description: "✅ Подтвердить заявку: /accept <id>"},
		{Command: "decline", Description: "🚫 Отклонить заявку: /decline <id>"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}

// handleAccept обрабатывает /accept <session_id>
func (c *BotController) handleAccept(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.handleDecision(ctx, b, update, "/accept", func(ctx context.Context, sessionID string, mentorID int64) (string, error) {
		result, err := c.decisions.Accept(ctx, sessionID, mentorID)
		if err != nil {
			return "", err
		}
		if result.AlreadyConfirmed {
			return fmt.Sprintf("✅ Заявка #%s уже подтверждена", sessionID), nil
		}
		if result.Degraded() {
			return fmt.Sprintf("✅ Заявка #%s подтверждена, но не всё прошло гладко:\n%s",
				sessionID, strings.Join(result.Warnings, "\n")), nil
		}
		return fmt.Sprintf("✅ Заявка #%s подтверждена", sessionID), nil
	})
}

// handleDecline обрабатывает /decline <session_id>
func (c *BotController) handleDecline(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.handleDecision(ctx, b, update, "/decline", func(ctx context.Context, sessionID string, mentorID int64) (string, error) {
		if _, err := c.decisions.Decline(ctx, sessionID, mentorID); err != nil {
			return "", err
		}
		return fmt.Sprintf("🚫 Заявка #%s отклонена", sessionID), nil
	})
}

// handleDecision общий путь для обеих команд: находим ментора по чату,
// выполняем решение, отвечаем в тот же чат
func (c *BotController) handleDecision(
	ctx context.Context,
	b *bot.Bot,
	update *models.Update,
	command string,
	decide func(ctx context.Context, sessionID string, mentorID int64) (string, error),
) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	sessionID := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, command))
	if sessionID == "" {
		c.reply(ctx, b, chatID, fmt.Sprintf("❌ Укажите заявку: %s <id>", command))
		return
	}

	contact, err := c.contactRepo.GetByChatID(ctx, chatID)
	if err != nil || contact == nil {
		c.logger.Warn("Decision from unknown chat",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		c.reply(ctx, b, chatID, "❌ Пользователь не найден")
		return
	}

	text, err := decide(ctx, sessionID, contact.UserID)
	if err != nil {
		c.logger.Error("Decision failed",
			zap.String("session_id", sessionID),
			zap.Int64("mentor_id", contact.UserID),
			zap.Error(err),
		)
		c.reply(ctx, b, chatID, decisionErrorMessage(err))
		return
	}

	c.reply(ctx, b, chatID, text)
}

// reply отправляет ответ в чат, ошибки только логируются
func (c *BotController) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		c.logger.Error("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// decisionErrorMessage возвращает пользовательское сообщение для ошибки
func decisionErrorMessage(err error) string {
	var validationErr *model.ValidationError
	var stateErr *model.StateError
	var transportErr *model.TransportError

	switch {
	case errors.As(err, &validationErr):
		return "❌ " + validationErr.Reason
	case errors.As(err, &stateErr):
		display := notify.GetStatusDisplay(stateErr.Status)
		return fmt.Sprintf("%s Заявка уже в статусе «%s», решение невозможно", display.Emoji, display.Text)
	case errors.As(err, &transportErr):
		return "❌ Хранилище недоступно, попробуйте ещё раз"
	default:
		return "❌ Произошла ошибка"
	}
}
