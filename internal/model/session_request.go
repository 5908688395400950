package model

import "time"

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending_approval" // Ожидает решения ментора
	SessionStatusConfirmed SessionStatus = "confirmed"        // Подтверждено ментором
	SessionStatusRejected  SessionStatus = "rejected"         // Отклонено ментором
	SessionStatusCancelled SessionStatus = "cancelled"        // Отменено менти до решения
)

// DefaultDurationMinutes длительность сессии по умолчанию
const DefaultDurationMinutes = 60

// DefaultTopic тема по умолчанию, если менти не указал свою
const DefaultTopic = "Общая консультация"

type SessionRequest struct {
	ID              string         `json:"id"`
	MentorID        int64          `json:"mentor_id"`
	MenteeID        int64          `json:"mentee_id"`
	Date            string         `json:"date"`
	Time            string         `json:"time"`
	DurationMinutes int            `json:"duration_minutes"`
	Topic           string         `json:"topic"`
	Fee             float64        `json:"fee"`
	Status          SessionStatus  `json:"status"`
	Meeting         *MeetingInfo   `json:"meeting,omitempty"`
	RequestedAt     time.Time      `json:"requested_at"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty"`
	Demo            bool           `json:"demo,omitempty"` // Запись создана локально в демо-режиме, не авторитетна
}

// IsPending проверяет, что запрос ещё ждёт решения ментора
func (r *SessionRequest) IsPending() bool {
	return r.Status == SessionStatusPending
}

// IsConfirmed проверяет, что запрос подтверждён
func (r *SessionRequest) IsConfirmed() bool {
	return r.Status == SessionStatusConfirmed
}

// IsTerminal проверяет, что запрос в конечном статусе
func (r *SessionRequest) IsTerminal() bool {
	return r.Status == SessionStatusConfirmed ||
		r.Status == SessionStatusRejected ||
		r.Status == SessionStatusCancelled
}

// CanTransition проверяет допустимость перехода статуса.
// Единственные допустимые переходы - из pending_approval в конечный статус.
func (r *SessionRequest) CanTransition(to SessionStatus) bool {
	if !r.IsPending() {
		return false
	}
	switch to {
	case SessionStatusConfirmed, SessionStatusRejected, SessionStatusCancelled:
		return true
	}
	return false
}

// ScheduledStart возвращает время начала сессии.
// Дата и время хранятся строками в том виде, в котором их выбрал менти.
func (r *SessionRequest) ScheduledStart() (time.Time, error) {
	return time.Parse("2006-01-02 15:04", r.Date+" "+r.Time)
}

// ScheduledEnd возвращает время окончания сессии
func (r *SessionRequest) ScheduledEnd() (time.Time, error) {
	start, err := r.ScheduledStart()
	if err != nil {
		return time.Time{}, err
	}
	minutes := r.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultDurationMinutes
	}
	return start.Add(time.Duration(minutes) * time.Minute), nil
}
