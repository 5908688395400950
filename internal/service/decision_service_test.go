package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mentorhub/mentor_sessions/internal/meeting"
	"github.com/mentorhub/mentor_sessions/internal/model"
	"github.com/mentorhub/mentor_sessions/internal/notify"
	"github.com/mentorhub/mentor_sessions/internal/remote"
	"go.uber.org/zap"
)

func newDecisionFixture(store *mockStore, channel *mockChannel) *DecisionService {
	logger := zap.NewNop()
	dispatcher := notify.NewDispatcher(channel, logger)
	resolver := &staticResolver{addresses: map[int64]string{5: "100", 2: "200"}}
	return NewDecisionService(store, meeting.NewProvisioner("", ""), dispatcher, resolver, logger)
}

func seedPending(t *testing.T, store *mockStore) *model.SessionRequest {
	t.Helper()
	session, err := store.CreateSession(context.Background(), remote.CreateSessionInput{
		MentorID:        5,
		MenteeID:        2,
		Date:            "2025-08-15",
		Time:            "14:00",
		DurationMinutes: 60,
		Topic:           "Go",
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session
}

func TestAcceptHappyPath(t *testing.T) {
	store := newMockStore()
	channel := &mockChannel{available: true}
	svc := newDecisionFixture(store, channel)
	pending := seedPending(t, store)

	result, err := svc.Accept(context.Background(), pending.ID, 5)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if result.Degraded() {
		t.Errorf("unexpected degradation: %v", result.Warnings)
	}
	if result.Request.Status != model.SessionStatusConfirmed {
		t.Errorf("status = %s, want confirmed", result.Request.Status)
	}
	if result.Request.Meeting == nil {
		t.Fatal("confirmed request must carry a meeting")
	}
	if !strings.Contains(result.Request.Meeting.URL, meeting.RoomToken(pending.ID)) {
		t.Errorf("meeting url %q must contain token for %q", result.Request.Meeting.URL, pending.ID)
	}
	// Подтверждение уходит обеим сторонам
	if channel.sentCount() != 2 {
		t.Errorf("notifications = %d, want 2", channel.sentCount())
	}
}

func TestAcceptIsIdempotent(t *testing.T) {
	store := newMockStore()
	channel := &mockChannel{available: true}
	svc := newDecisionFixture(store, channel)
	pending := seedPending(t, store)

	first, err := svc.Accept(context.Background(), pending.ID, 5)
	if err != nil {
		t.Fatalf("first Accept: %v", err)
	}

	second, err := svc.Accept(context.Background(), pending.ID, 5)
	if err != nil {
		t.Fatalf("second Accept: %v", err)
	}

	if !second.AlreadyConfirmed {
		t.Error("second accept must be a no-op")
	}
	if second.Request.Status != model.SessionStatusConfirmed {
		t.Errorf("status = %s", second.Request.Status)
	}
	if first.Request.Meeting.URL != second.Request.Meeting.URL {
		t.Error("repeated accept must return the same record")
	}
	// Повторный accept не делает второй переход статуса
	if store.statusCalls != 1 {
		t.Errorf("statusCalls = %d, want 1", store.statusCalls)
	}
}

func TestAcceptAfterDeclineIsStateError(t *testing.T) {
	store := newMockStore()
	channel := &mockChannel{available: true}
	svc := newDecisionFixture(store, channel)
	pending := seedPending(t, store)

	if _, err := svc.Decline(context.Background(), pending.ID, 5); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	_, err := svc.Accept(context.Background(), pending.ID, 5)

	var stateErr *model.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("err = %v, want StateError", err)
	}
	if stateErr.Status != model.SessionStatusRejected {
		t.Errorf("state error status = %s", stateErr.Status)
	}
}

func TestDeclineIsIdempotent(t *testing.T) {
	store := newMockStore()
	channel := &mockChannel{available: true}
	svc := newDecisionFixture(store, channel)
	pending := seedPending(t, store)

	first, err := svc.Decline(context.Background(), pending.ID, 5)
	if err != nil {
		t.Fatalf("first Decline: %v", err)
	}
	if first.Status != model.SessionStatusRejected {
		t.Errorf("status = %s", first.Status)
	}
	if first.Meeting != nil {
		t.Error("declined request must not carry a meeting")
	}

	sentAfterFirst := channel.sentCount()

	second, err := svc.Decline(context.Background(), pending.ID, 5)
	if err != nil {
		t.Fatalf("second Decline: %v", err)
	}
	if second.Status != model.SessionStatusRejected {
		t.Errorf("status = %s", second.Status)
	}
	// Повторное отклонение не шлёт новых уведомлений и не трогает хранилище
	if channel.sentCount() != sentAfterFirst {
		t.Error("repeated decline must not dispatch again")
	}
	if store.statusCalls != 1 {
		t.Errorf("statusCalls = %d, want 1", store.statusCalls)
	}
}

func TestDeclineDoesNotProvision(t *testing.T) {
	store := newMockStore()
	channel := &mockChannel{available: true}
	svc := newDecisionFixture(store, channel)
	pending := seedPending(t, store)

	if _, err := svc.Decline(context.Background(), pending.ID, 5); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	if store.meetingCalls != 0 {
		t.Errorf("meetingCalls = %d, want 0", store.meetingCalls)
	}
}

func TestAcceptByWrongMentor(t *testing.T) {
	store := newMockStore()
	svc := newDecisionFixture(store, &mockChannel{available: true})
	pending := seedPending(t, store)

	_, err := svc.Accept(context.Background(), pending.ID, 999)

	var validationErr *model.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if store.status(pending.ID) != model.SessionStatusPending {
		t.Error("record must stay pending")
	}
}

func TestAcceptAbortsWhenStatusUpdateFails(t *testing.T) {
	store := newMockStore()
	channel := &mockChannel{available: true}
	svc := newDecisionFixture(store, channel)
	pending := seedPending(t, store)

	store.failStatus = &model.TransportError{Op: "PUT status", Err: errors.New("timeout")}

	_, err := svc.Accept(context.Background(), pending.ID, 5)

	var transportErr *model.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	// Переход не состоялся: ни встречи, ни уведомлений, запись pending
	if store.status(pending.ID) != model.SessionStatusPending {
		t.Error("record must stay pending after transport failure")
	}
	if store.meetingCalls != 0 {
		t.Errorf("meetingCalls = %d, want 0", store.meetingCalls)
	}
	if channel.sentCount() != 0 {
		t.Errorf("notifications = %d, want 0", channel.sentCount())
	}
}

func TestAcceptDegradedWhenMeetingPersistFails(t *testing.T) {
	store := newMockStore()
	channel := &mockChannel{available: true}
	svc := newDecisionFixture(store, channel)
	pending := seedPending(t, store)

	store.failMeeting = &model.TransportError{Op: "PUT meeting", Err: errors.New("timeout")}

	result, err := svc.Accept(context.Background(), pending.ID, 5)
	if err != nil {
		t.Fatalf("Accept must not hard-fail after the status write: %v", err)
	}

	// Статус записан и не откатывается, отказ встречи - degraded success
	if !result.Degraded() {
		t.Error("result must be degraded")
	}
	if result.Request.Status != model.SessionStatusConfirmed {
		t.Errorf("status = %s, want confirmed", result.Request.Status)
	}
	if store.status(pending.ID) != model.SessionStatusConfirmed {
		t.Error("remote record must stay confirmed")
	}
}

func TestAcceptDegradedWhenChannelUnavailable(t *testing.T) {
	store := newMockStore()
	channel := &mockChannel{available: false}
	svc := newDecisionFixture(store, channel)
	pending := seedPending(t, store)

	result, err := svc.Accept(context.Background(), pending.ID, 5)
	if err != nil {
		t.Fatalf("Accept must not fail on unavailable channel: %v", err)
	}

	if !result.Degraded() {
		t.Error("simulated delivery must mark the result degraded")
	}
	if result.Notification == nil || !result.Notification.Simulated {
		t.Errorf("notification = %+v, want simulated", result.Notification)
	}
	if result.Request.Status != model.SessionStatusConfirmed {
		t.Errorf("status = %s", result.Request.Status)
	}
}

func TestAcceptDegradedWhenContactMissing(t *testing.T) {
	store := newMockStore()
	logger := zap.NewNop()
	dispatcher := notify.NewDispatcher(&mockChannel{available: true}, logger)
	resolver := &staticResolver{addresses: map[int64]string{}} // контактов нет
	svc := NewDecisionService(store, meeting.NewProvisioner("", ""), dispatcher, resolver, logger)
	pending := seedPending(t, store)

	result, err := svc.Accept(context.Background(), pending.ID, 5)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !result.Degraded() {
		t.Error("missing contact must degrade the result, not fail it")
	}
}

func TestResend(t *testing.T) {
	store := newMockStore()
	channel := &mockChannel{available: true}
	svc := newDecisionFixture(store, channel)
	pending := seedPending(t, store)

	if _, err := svc.Accept(context.Background(), pending.ID, 5); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	sentAfterAccept := channel.sentCount()

	result, err := svc.Resend(context.Background(), pending.ID)
	if err != nil {
		t.Fatalf("Resend: %v", err)
	}
	if result.Degraded() {
		t.Errorf("resend degraded: %+v", result)
	}
	// Каждый resend - новая попытка доставки
	if channel.sentCount() != sentAfterAccept+2 {
		t.Errorf("notifications = %d, want %d", channel.sentCount(), sentAfterAccept+2)
	}
}

func TestResendOnPendingIsStateError(t *testing.T) {
	store := newMockStore()
	svc := newDecisionFixture(store, &mockChannel{available: true})
	pending := seedPending(t, store)

	_, err := svc.Resend(context.Background(), pending.ID)

	var stateErr *model.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("err = %v, want StateError", err)
	}
}

// TestBookingScenario сценарий целиком: заявка -> подтверждение -> встреча -> рассылка
func TestBookingScenario(t *testing.T) {
	store := newMockStore()
	logger := zap.NewNop()
	selector := remote.NewSelector(store, remote.NewDemoStore(logger), logger)
	channel := &mockChannel{available: false} // канал недоступен в этом окружении
	dispatcher := notify.NewDispatcher(channel, logger)
	resolver := &staticResolver{addresses: map[int64]string{5: "100", 2: "200"}}

	bookingSvc := NewBookingService(selector, resolver, dispatcher, &recordingSource{}, logger)
	decisionSvc := NewDecisionService(selector, meeting.NewProvisioner("", ""), dispatcher, resolver, logger)

	session, err := bookingSvc.Submit(context.Background(), SubmitInput{
		MentorID: 5,
		MenteeID: 2,
		Date:     "2025-08-15",
		Time:     "14:00",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if session.Status != model.SessionStatusPending {
		t.Fatalf("status = %s, want pending_approval", session.Status)
	}

	result, err := decisionSvc.Accept(context.Background(), session.ID, 5)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if result.Request.Status != model.SessionStatusConfirmed {
		t.Errorf("status = %s, want confirmed", result.Request.Status)
	}
	if result.Request.Meeting == nil || !strings.Contains(result.Request.Meeting.URL, meeting.RoomToken(session.ID)) {
		t.Errorf("meeting = %+v, want url with token for %q", result.Request.Meeting, session.ID)
	}
	// Канал недоступен: рассылка симулируется, исход успешный, но degraded
	if result.Notification == nil || !result.Notification.Simulated {
		t.Errorf("notification = %+v", result.Notification)
	}
	if !result.Degraded() {
		t.Error("simulated delivery must be reported as degraded success")
	}
}
