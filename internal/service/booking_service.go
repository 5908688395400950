package service

import (
	"context"
	"errors"
	"sync"

	"github.com/mentorhub/mentor_sessions/internal/model"
	"github.com/mentorhub/mentor_sessions/internal/notify"
	"github.com/mentorhub/mentor_sessions/internal/remote"
	"go.uber.org/zap"
)

// SubmitInput данные новой заявки на сессию
type SubmitInput struct {
	MentorID        int64
	MenteeID        int64
	Date            string
	Time            string
	DurationMinutes int
	Topic           string
	Fee             float64
}

// BookingService принимает заявки менти и держит рабочие копии
// до решения ментора. Система записи - удалённое хранилище, его статус
// при расхождении считается авторитетным.
type BookingService struct {
	store      *remote.Selector
	addresses  AddressResolver
	dispatcher *notify.Dispatcher
	source     DecisionSource
	logger     *zap.Logger

	mu      sync.RWMutex
	working map[string]*model.SessionRequest // id -> рабочая копия
}

func NewBookingService(
	store *remote.Selector,
	addresses AddressResolver,
	dispatcher *notify.Dispatcher,
	source DecisionSource,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		store:      store,
		addresses:  addresses,
		dispatcher: dispatcher,
		source:     source,
		logger:     logger,
		working:    make(map[string]*model.SessionRequest),
	}
}

// Submit валидирует и отправляет заявку в хранилище.
// Ровно один вызов создания на попытку: при ошибке заявка не пересоздаётся
// автоматически, вызывающая сторона может отправить заново сама.
func (s *BookingService) Submit(ctx context.Context, input SubmitInput) (*model.SessionRequest, error) {
	// Валидация до любого сетевого вызова
	if err := validateSubmit(input); err != nil {
		return nil, err
	}

	if input.DurationMinutes <= 0 {
		input.DurationMinutes = model.DefaultDurationMinutes
	}
	if input.Topic == "" {
		input.Topic = model.DefaultTopic
	}

	session, err := s.store.CreateSession(ctx, remote.CreateSessionInput{
		MentorID:        input.MentorID,
		MenteeID:        input.MenteeID,
		Date:            input.Date,
		Time:            input.Time,
		DurationMinutes: input.DurationMinutes,
		Topic:           input.Topic,
		Fee:             input.Fee,
	})
	if err != nil {
		var transportErr *model.TransportError
		if errors.As(err, &transportErr) {
			s.logger.Warn("Remote store unreachable on submit, caller may enable demo mode",
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.mu.Lock()
	s.working[session.ID] = session
	s.mu.Unlock()

	if s.source != nil {
		s.source.Watch(session.ID)
	}

	s.logger.Info("Session request submitted",
		zap.String("session_id", session.ID),
		zap.Int64("mentor_id", session.MentorID),
		zap.Int64("mentee_id", session.MenteeID),
		zap.String("status", string(session.Status)),
	)

	// Уведомляем ментора о новой заявке, неуспех не блокирует заявку
	s.notifyMentor(ctx, session)

	return session, nil
}

// Get возвращает рабочую копию заявки
func (s *BookingService) Get(id string) (*model.SessionRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.working[id]
	return session, ok
}

// Refresh перечитывает заявку из хранилища и обновляет рабочую копию.
// Удалённый статус авторитетен при любом расхождении.
func (s *BookingService) Refresh(ctx context.Context, id string) (*model.SessionRequest, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, tracked := s.working[id]; tracked {
		s.working[id] = session
	}
	s.mu.Unlock()

	return session, nil
}

// CancelLocal отбрасывает рабочую копию до решения ментора.
// Удалённая запись не удаляется - мы просто перестаём её ждать.
func (s *BookingService) CancelLocal(id string) {
	s.mu.Lock()
	session, ok := s.working[id]
	if ok {
		delete(s.working, id)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	if s.source != nil {
		s.source.Unwatch(id)
	}

	s.logger.Info("Session request discarded locally",
		zap.String("session_id", id),
		zap.String("last_known_status", string(session.Status)),
	)
}

// EnableDemoMode явно включает демо-режим после показанной пользователю TransportError
func (s *BookingService) EnableDemoMode() {
	s.store.EnableDemoMode()
}

// DemoMode проверяет, активен ли демо-режим
func (s *BookingService) DemoMode() bool {
	return s.store.DemoMode()
}

// notifyMentor отправляет ментору уведомление о новой заявке
func (s *BookingService) notifyMentor(ctx context.Context, session *model.SessionRequest) {
	if s.dispatcher == nil {
		return
	}

	if s.addresses == nil {
		return
	}

	address, err := s.addresses.Resolve(ctx, session.MentorID)
	if err != nil {
		s.logger.Warn("Mentor contact lookup failed, skipping new request notification",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return
	}

	s.dispatcher.SendNewRequest(ctx, session, address)
}

// validateSubmit проверяет входные данные заявки без обращения к сети
func validateSubmit(input SubmitInput) error {
	if input.MentorID <= 0 {
		return model.NewValidationError("mentorId", "must be a positive integer")
	}
	if input.MenteeID <= 0 {
		return model.NewValidationError("menteeId", "must be a positive integer")
	}
	if input.MentorID == input.MenteeID {
		return model.NewValidationError("menteeId", "mentor and mentee must differ")
	}
	if input.Date == "" {
		return model.NewValidationError("date", "must not be empty")
	}
	if input.Time == "" {
		return model.NewValidationError("time", "must not be empty")
	}
	if input.Fee < 0 {
		return model.NewValidationError("fee", "must not be negative")
	}
	return nil
}
