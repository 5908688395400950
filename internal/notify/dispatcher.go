package notify

import (
	"context"
	"fmt"

	"github.com/mentorhub/mentor_sessions/internal/model"
	"go.uber.org/zap"
)

// Result итог рассылки подтверждения обеим сторонам.
// Рассылка никогда не падает жёстко - худший исход помечается как degraded.
type Result struct {
	Mentor    DeliveryOutcome
	Mentee    DeliveryOutcome
	Simulated bool // Канал был недоступен, доставка залогирована
}

// Degraded проверяет, что хотя бы одна доставка прошла не штатно
func (r Result) Degraded() bool {
	return r.Simulated || !r.Mentor.Sent() || !r.Mentee.Sent()
}

// Dispatcher рассылает уведомления о решениях по запросам на сессии.
// Отсутствие канала доставки - ожидаемое состояние окружения, а не ошибка:
// в этом случае доставка симулируется через лог и считается успехом.
type Dispatcher struct {
	channel  Channel
	fallback *SimulatedChannel
	logger   *zap.Logger
}

// NewDispatcher создаёт диспетчер уведомлений
func NewDispatcher(channel Channel, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		channel:  channel,
		fallback: NewSimulatedChannel(logger),
		logger:   logger,
	}
}

// SendConfirmation отправляет подтверждение обеим сторонам.
// Повторный вызов всегда допустим: текст рендерится заново из текущего
// состояния записи, каждая отправка - новая попытка доставки.
func (d *Dispatcher) SendConfirmation(ctx context.Context, session *model.SessionRequest, mentorAddress, menteeAddress string) Result {
	channel := d.channel
	simulated := false
	if channel == nil || !channel.IsAvailable() {
		// Недоступный канал не считаем ошибкой приложения
		d.logger.Info("Notification channel unavailable, falling back to simulated delivery",
			zap.String("session_id", session.ID),
		)
		channel = d.fallback
		simulated = true
	}

	result := Result{Simulated: simulated}
	result.Mentee = d.send(ctx, channel, Message{
		Address: menteeAddress,
		Text:    renderMenteeConfirmation(session),
	}, session.ID, "mentee")
	result.Mentor = d.send(ctx, channel, Message{
		Address: mentorAddress,
		Text:    renderMentorConfirmation(session),
	}, session.ID, "mentor")

	return result
}

// SendNewRequest уведомляет ментора о новом запросе на сессию
func (d *Dispatcher) SendNewRequest(ctx context.Context, session *model.SessionRequest, mentorAddress string) DeliveryOutcome {
	channel := d.channel
	if channel == nil || !channel.IsAvailable() {
		channel = d.fallback
	}
	return d.send(ctx, channel, Message{
		Address: mentorAddress,
		Text:    renderNewRequest(session),
	}, session.ID, "mentor")
}

// SendDecline уведомляет менти об отклонённом запросе
func (d *Dispatcher) SendDecline(ctx context.Context, session *model.SessionRequest, menteeAddress string) DeliveryOutcome {
	channel := d.channel
	if channel == nil || !channel.IsAvailable() {
		channel = d.fallback
	}
	return d.send(ctx, channel, Message{
		Address: menteeAddress,
		Text:    renderDecline(session),
	}, session.ID, "mentee")
}

// send одна попытка доставки; ошибка канала логируется и не всплывает
func (d *Dispatcher) send(ctx context.Context, channel Channel, msg Message, sessionID, recipient string) DeliveryOutcome {
	outcome, err := channel.Send(ctx, msg)
	if err != nil {
		d.logger.Error("Failed to deliver notification",
			zap.String("session_id", sessionID),
			zap.String("recipient", recipient),
			zap.Error(err),
		)
		return OutcomeFailed
	}

	d.logger.Info("Notification dispatched",
		zap.String("session_id", sessionID),
		zap.String("recipient", recipient),
		zap.String("outcome", string(outcome)),
	)
	return outcome
}

// renderMenteeConfirmation текст подтверждения для менти
func renderMenteeConfirmation(session *model.SessionRequest) string {
	text := fmt.Sprintf(
		"✅ **Сессия подтверждена!**\n\n"+
			"Ментор принял вашу заявку #%s.\n\n"+
			"📅 Дата: %s\n"+
			"🕐 Время: %s\n"+
			"⏱ Длительность: %s\n"+
			"📚 Тема: %s\n"+
			"💰 Стоимость: %s",
		session.ID,
		FormatDate(session.Date),
		session.Time,
		FormatDuration(session.DurationMinutes),
		session.Topic,
		FormatFee(session.Fee),
	)
	if session.Meeting != nil {
		text += fmt.Sprintf(
			"\n\n🔗 Ссылка на встречу: %s\n"+
				"Вход открывается за 15 минут до начала.",
			session.Meeting.URL,
		)
	}
	return text
}

// renderMentorConfirmation текст подтверждения для ментора
func renderMentorConfirmation(session *model.SessionRequest) string {
	text := fmt.Sprintf(
		"✅ **Вы подтвердили сессию #%s**\n\n"+
			"📅 Дата: %s\n"+
			"🕐 Время: %s\n"+
			"⏱ Длительность: %s\n"+
			"📚 Тема: %s",
		session.ID,
		FormatDate(session.Date),
		session.Time,
		FormatDuration(session.DurationMinutes),
		session.Topic,
	)
	if session.Meeting != nil {
		text += fmt.Sprintf("\n\n🔗 Ссылка на встречу: %s", session.Meeting.URL)
	}
	return text
}

// renderNewRequest текст уведомления ментора о новой заявке
func renderNewRequest(session *model.SessionRequest) string {
	return fmt.Sprintf(
		"⏳ **Новая заявка на сессию #%s**\n\n"+
			"📅 Дата: %s\n"+
			"🕐 Время: %s\n"+
			"⏱ Длительность: %s\n"+
			"📚 Тема: %s\n"+
			"💰 Стоимость: %s\n\n"+
			"Подтвердите или отклоните заявку.",
		session.ID,
		FormatDate(session.Date),
		session.Time,
		FormatDuration(session.DurationMinutes),
		session.Topic,
		FormatFee(session.Fee),
	)
}

// renderDecline текст уведомления менти об отклонении
func renderDecline(session *model.SessionRequest) string {
	return fmt.Sprintf(
		"🚫 **Заявка отклонена**\n\n"+
			"К сожалению, ментор отклонил вашу заявку #%s.\n"+
			"Попробуйте выбрать другое время.",
		session.ID,
	)
}
