package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DecisionSource источник наблюдения за решениями менторов.
// Конкретные реализации: опрос хранилища (app.DecisionPoller) для боевого
// режима и таймер автоподтверждения (TimerDecisionSource) для разработки.
type DecisionSource interface {
	Watch(sessionID string)
	Unwatch(sessionID string)
}

// TimerDecisionSource заглушка для разработки: автоматически подтверждает
// заявку через заданную задержку вместо настоящего решения ментора.
// Автоподтверждение - не продуктовое поведение, в бою не подключается.
type TimerDecisionSource struct {
	decisions *DecisionService
	mentorOf  func(sessionID string) (int64, bool)
	delay     time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewTimerDecisionSource создаёт таймерный источник решений.
// mentorOf отдаёт ID ментора для заявки (обычно из рабочей копии).
func NewTimerDecisionSource(
	decisions *DecisionService,
	mentorOf func(sessionID string) (int64, bool),
	delay time.Duration,
	logger *zap.Logger,
) *TimerDecisionSource {
	return &TimerDecisionSource{
		decisions: decisions,
		mentorOf:  mentorOf,
		delay:     delay,
		logger:    logger,
		timers:    make(map[string]*time.Timer),
	}
}

// Watch ставит таймер автоподтверждения для заявки
func (s *TimerDecisionSource) Watch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.timers[sessionID]; exists {
		return
	}

	s.timers[sessionID] = time.AfterFunc(s.delay, func() {
		s.fire(sessionID)
	})

	s.logger.Debug("Auto-confirmation timer scheduled",
		zap.String("session_id", sessionID),
		zap.Duration("delay", s.delay),
	)
}

// Unwatch снимает таймер, если он ещё не сработал
func (s *TimerDecisionSource) Unwatch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, exists := s.timers[sessionID]; exists {
		timer.Stop()
		delete(s.timers, sessionID)
	}
}

// Stop снимает все таймеры; после остановки источник ничего не подтверждает
func (s *TimerDecisionSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// fire выполняет автоподтверждение по сработавшему таймеру
func (s *TimerDecisionSource) fire(sessionID string) {
	s.mu.Lock()
	delete(s.timers, sessionID)
	s.mu.Unlock()

	mentorID, ok := s.mentorOf(sessionID)
	if !ok {
		s.logger.Warn("Auto-confirmation skipped, session no longer tracked",
			zap.String("session_id", sessionID),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.decisions.Accept(ctx, sessionID, mentorID); err != nil {
		s.logger.Error("Auto-confirmation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Session auto-confirmed by development timer",
		zap.String("session_id", sessionID),
	)
}
