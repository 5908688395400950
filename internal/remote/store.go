package remote

import (
	"context"

	"github.com/mentorhub/mentor_sessions/internal/model"
)

// CreateSessionInput тело запроса на создание сессии в удалённом хранилище
type CreateSessionInput struct {
	MentorID        int64   `json:"mentorId"`
	MenteeID        int64   `json:"menteeId"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	DurationMinutes int     `json:"durationMinutes"`
	Topic           string  `json:"topic"`
	Fee             float64 `json:"fee"`
}

// Store доступ к хранилищу запросов на сессии.
// Реализации: Client (удалённый REST) и DemoStore (локальный демо-режим).
type Store interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*model.SessionRequest, error)
	GetSession(ctx context.Context, id string) (*model.SessionRequest, error)
	UpdateStatus(ctx context.Context, id string, status model.SessionStatus, actorID int64, actorRole string) (*model.SessionRequest, error)
	UpdateMeeting(ctx context.Context, id string, meeting model.MeetingInfo) (*model.SessionRequest, error)
}
