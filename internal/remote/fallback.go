package remote

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mentorhub/mentor_sessions/internal/model"
	"go.uber.org/zap"
)

// DemoStore локальная замена удалённого хранилища для демо-режима.
// Включается только явным выбором пользователя после TransportError.
// Каждая запись помечена Demo: true и не считается авторитетной.
type DemoStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.SessionRequest
	logger   *zap.Logger
}

// NewDemoStore создаёт пустое демо-хранилище
func NewDemoStore(logger *zap.Logger) *DemoStore {
	return &DemoStore{
		sessions: make(map[string]*model.SessionRequest),
		logger:   logger,
	}
}

// CreateSession создаёт локальную демо-запись
func (s *DemoStore) CreateSession(ctx context.Context, input CreateSessionInput) (*model.SessionRequest, error) {
	session := &model.SessionRequest{
		ID:              "demo-" + uuid.NewString(),
		MentorID:        input.MentorID,
		MenteeID:        input.MenteeID,
		Date:            input.Date,
		Time:            input.Time,
		DurationMinutes: input.DurationMinutes,
		Topic:           input.Topic,
		Fee:             input.Fee,
		Status:          model.SessionStatusPending,
		RequestedAt:     time.Now().UTC(),
		Demo:            true,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Warn("Demo mode: session request created locally, record is not authoritative",
		zap.String("session_id", session.ID),
	)

	return copySession(session), nil
}

// GetSession получает демо-запись по ID
func (s *DemoStore) GetSession(ctx context.Context, id string) (*model.SessionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, model.NewValidationError("id", "session not found in demo store")
	}
	return copySession(session), nil
}

// UpdateStatus обновляет статус демо-записи с теми же правилами переходов, что у хранилища
func (s *DemoStore) UpdateStatus(ctx context.Context, id string, status model.SessionStatus, actorID int64, actorRole string) (*model.SessionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, model.NewValidationError("id", "session not found in demo store")
	}

	if !session.CanTransition(status) {
		return nil, &model.StateError{ID: id, Status: session.Status, Op: "update status"}
	}

	now := time.Now().UTC()
	session.Status = status
	session.DecidedAt = &now

	s.logger.Info("Demo mode: session status updated locally",
		zap.String("session_id", id),
		zap.String("status", string(status)),
	)

	return copySession(session), nil
}

// UpdateMeeting прикрепляет данные встречи к подтверждённой демо-записи
func (s *DemoStore) UpdateMeeting(ctx context.Context, id string, meeting model.MeetingInfo) (*model.SessionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, model.NewValidationError("id", "session not found in demo store")
	}

	if session.Status != model.SessionStatusConfirmed {
		return nil, &model.StateError{ID: id, Status: session.Status, Op: "attach meeting"}
	}

	m := meeting
	session.Meeting = &m

	return copySession(session), nil
}

// copySession возвращает копию, чтобы вызывающий код не менял хранимую запись
func copySession(s *model.SessionRequest) *model.SessionRequest {
	out := *s
	if s.Meeting != nil {
		m := *s.Meeting
		out.Meeting = &m
	}
	if s.DecidedAt != nil {
		t := *s.DecidedAt
		out.DecidedAt = &t
	}
	return &out
}
