package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mentorhub/mentor_sessions/internal/model"
	"github.com/mentorhub/mentor_sessions/internal/notify"
	"github.com/mentorhub/mentor_sessions/internal/remote"
)

// mockStore хранилище для тестов с управляемыми отказами
type mockStore struct {
	mu       sync.Mutex
	sessions map[string]*model.SessionRequest
	nextID   int

	createCalls  int
	getCalls     int
	statusCalls  int
	meetingCalls int

	failCreate  error
	failGet     error
	failStatus  error
	failMeeting error
}

func newMockStore() *mockStore {
	return &mockStore{sessions: make(map[string]*model.SessionRequest)}
}

func (s *mockStore) CreateSession(ctx context.Context, input remote.CreateSessionInput) (*model.SessionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	if s.failCreate != nil {
		return nil, s.failCreate
	}

	s.nextID++
	session := &model.SessionRequest{
		ID:              fmt.Sprintf("sess-%d", s.nextID),
		MentorID:        input.MentorID,
		MenteeID:        input.MenteeID,
		Date:            input.Date,
		Time:            input.Time,
		DurationMinutes: input.DurationMinutes,
		Topic:           input.Topic,
		Fee:             input.Fee,
		Status:          model.SessionStatusPending,
		RequestedAt:     time.Now().UTC(),
	}
	s.sessions[session.ID] = session
	return copyOf(session), nil
}

func (s *mockStore) GetSession(ctx context.Context, id string) (*model.SessionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getCalls++
	if s.failGet != nil {
		return nil, s.failGet
	}

	session, ok := s.sessions[id]
	if !ok {
		return nil, model.NewValidationError("id", "session not found")
	}
	return copyOf(session), nil
}

func (s *mockStore) UpdateStatus(ctx context.Context, id string, status model.SessionStatus, actorID int64, actorRole string) (*model.SessionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statusCalls++
	if s.failStatus != nil {
		return nil, s.failStatus
	}

	session, ok := s.sessions[id]
	if !ok {
		return nil, model.NewValidationError("id", "session not found")
	}
	if !session.CanTransition(status) {
		return nil, &model.StateError{ID: id, Status: session.Status, Op: "update status"}
	}

	now := time.Now().UTC()
	session.Status = status
	session.DecidedAt = &now
	return copyOf(session), nil
}

func (s *mockStore) UpdateMeeting(ctx context.Context, id string, meeting model.MeetingInfo) (*model.SessionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meetingCalls++
	if s.failMeeting != nil {
		return nil, s.failMeeting
	}

	session, ok := s.sessions[id]
	if !ok {
		return nil, model.NewValidationError("id", "session not found")
	}
	if session.Status != model.SessionStatusConfirmed {
		return nil, &model.StateError{ID: id, Status: session.Status, Op: "attach meeting"}
	}

	m := meeting
	session.Meeting = &m
	return copyOf(session), nil
}

// status текущий статус записи в хранилище, в обход клиентского кода
func (s *mockStore) status(id string) model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		return session.Status
	}
	return ""
}

func copyOf(s *model.SessionRequest) *model.SessionRequest {
	out := *s
	if s.Meeting != nil {
		m := *s.Meeting
		out.Meeting = &m
	}
	return &out
}

// staticResolver резолвер адресов по фиксированной таблице
type staticResolver struct {
	addresses map[int64]string
}

func (r *staticResolver) Resolve(ctx context.Context, userID int64) (string, error) {
	address, ok := r.addresses[userID]
	if !ok {
		return "", fmt.Errorf("contact for user %d not found", userID)
	}
	return address, nil
}

// mockChannel канал доставки для тестов
type mockChannel struct {
	mu        sync.Mutex
	available bool
	sent      []notify.Message
}

func (c *mockChannel) IsAvailable() bool {
	return c.available
}

func (c *mockChannel) Send(ctx context.Context, msg notify.Message) (notify.DeliveryOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return notify.OutcomeDelivered, nil
}

func (c *mockChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// recordingSource источник решений, запоминающий Watch/Unwatch
type recordingSource struct {
	mu        sync.Mutex
	watched   []string
	unwatched []string
}

func (s *recordingSource) Watch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watched = append(s.watched, sessionID)
}

func (s *recordingSource) Unwatch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unwatched = append(s.unwatched, sessionID)
}
