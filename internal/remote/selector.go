package remote

import (
	"context"
	"sync"

	"github.com/mentorhub/mentor_sessions/internal/model"
	"go.uber.org/zap"
)

// Selector переключатель между удалённым хранилищем и локальным демо-режимом.
// Сам реализует Store и делегирует активному хранилищу. Демо-режим
// включается только явно, после того как TransportError показана пользователю.
type Selector struct {
	mu       sync.RWMutex
	remote   Store
	demo     Store
	demoMode bool
	logger   *zap.Logger
}

// NewSelector создаёт селектор с удалённым хранилищем по умолчанию
func NewSelector(remote Store, demo Store, logger *zap.Logger) *Selector {
	return &Selector{
		remote: remote,
		demo:   demo,
		logger: logger,
	}
}

// EnableDemoMode переводит работу на локальное демо-хранилище
func (s *Selector) EnableDemoMode() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.demoMode {
		return
	}
	s.demoMode = true
	s.logger.Warn("Demo mode enabled: remote store is unreachable, records created from now on are local and not authoritative")
}

// DisableDemoMode возвращает работу с удалённым хранилищем
func (s *Selector) DisableDemoMode() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.demoMode {
		return
	}
	s.demoMode = false
	s.logger.Info("Demo mode disabled, using remote store")
}

// DemoMode проверяет, активен ли демо-режим
func (s *Selector) DemoMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demoMode
}

// current возвращает активное хранилище
func (s *Selector) current() Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.demoMode {
		return s.demo
	}
	return s.remote
}

func (s *Selector) CreateSession(ctx context.Context, input CreateSessionInput) (*model.SessionRequest, error) {
	return s.current().CreateSession(ctx, input)
}

func (s *Selector) GetSession(ctx context.Context, id string) (*model.SessionRequest, error) {
	return s.current().GetSession(ctx, id)
}

func (s *Selector) UpdateStatus(ctx context.Context, id string, status model.SessionStatus, actorID int64, actorRole string) (*model.SessionRequest, error) {
	return s.current().UpdateStatus(ctx, id, status, actorID, actorRole)
}

func (s *Selector) UpdateMeeting(ctx context.Context, id string, meeting model.MeetingInfo) (*model.SessionRequest, error) {
	return s.current().UpdateMeeting(ctx, id, meeting)
}
