package notify

import (
	"fmt"
	"time"

	"github.com/mentorhub/mentor_sessions/internal/model"
)

// FormatDate форматирует дату слота для сообщения
func FormatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("02.01.2006")
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// FormatFee форматирует стоимость сессии
func FormatFee(fee float64) string {
	if fee == 0 {
		return "Бесплатно"
	}
	return fmt.Sprintf("%.2f ₽", fee)
}

// StatusDisplay представляет отображение статуса запроса
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetStatusDisplay возвращает emoji и текст для статуса запроса
func GetStatusDisplay(status model.SessionStatus) StatusDisplay {
	displays := map[model.SessionStatus]StatusDisplay{
		model.SessionStatusPending:   {"⏳", "Ожидает решения"},
		model.SessionStatusConfirmed: {"✅", "Подтверждена"},
		model.SessionStatusRejected:  {"🚫", "Отклонена"},
		model.SessionStatusCancelled: {"❌", "Отменена"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}
