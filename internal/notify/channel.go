package notify

import (
	"context"

	"go.uber.org/zap"
)

type DeliveryOutcome string

const (
	OutcomeDelivered DeliveryOutcome = "delivered" // Сообщение отправлено
	OutcomeSaved     DeliveryOutcome = "saved"     // Сохранено черновиком, считается успехом
	OutcomeCancelled DeliveryOutcome = "cancelled" // Пользователь отменил отправку
	OutcomeSimulated DeliveryOutcome = "simulated" // Канал недоступен, доставка залогирована
	OutcomeFailed    DeliveryOutcome = "failed"    // Попытка отправки не удалась
)

// Sent считается ли исход успешной отправкой.
// Неуспех только при отмене пользователем или ошибке канала.
func (o DeliveryOutcome) Sent() bool {
	return o != OutcomeCancelled && o != OutcomeFailed
}

// Message одно сообщение для доставки адресату
type Message struct {
	Address string // Адрес получателя в терминах канала (для Telegram - chat ID)
	Text    string
}

// Channel канал доставки уведомлений
type Channel interface {
	IsAvailable() bool
	Send(ctx context.Context, msg Message) (DeliveryOutcome, error)
}

// SimulatedChannel канал-заглушка: пишет сообщение в лог вместо отправки.
// Используется, когда настоящий канал недоступен в текущем окружении.
type SimulatedChannel struct {
	logger *zap.Logger
}

// NewSimulatedChannel создаёт лог-канал
func NewSimulatedChannel(logger *zap.Logger) *SimulatedChannel {
	return &SimulatedChannel{logger: logger}
}

func (c *SimulatedChannel) IsAvailable() bool {
	return true
}

// Send логирует сообщение и сообщает об успешной симуляции
func (c *SimulatedChannel) Send(ctx context.Context, msg Message) (DeliveryOutcome, error) {
	c.logger.Info("Simulated notification delivery",
		zap.String("address", msg.Address),
		zap.String("text", msg.Text),
	)
	return OutcomeSimulated, nil
}
