package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mentorhub/mentor_sessions/internal/model"
	"github.com/mentorhub/mentor_sessions/internal/notify"
	"github.com/mentorhub/mentor_sessions/internal/remote"
	"go.uber.org/zap"
)

func newBookingFixture(store *mockStore) (*BookingService, *mockChannel, *recordingSource) {
	logger := zap.NewNop()
	selector := remote.NewSelector(store, remote.NewDemoStore(logger), logger)
	channel := &mockChannel{available: true}
	dispatcher := notify.NewDispatcher(channel, logger)
	resolver := &staticResolver{addresses: map[int64]string{5: "100", 2: "200"}}
	source := &recordingSource{}
	return NewBookingService(selector, resolver, dispatcher, source, logger), channel, source
}

func validSubmit() SubmitInput {
	return SubmitInput{
		MentorID: 5,
		MenteeID: 2,
		Date:     "2025-08-15",
		Time:     "14:00",
		Fee:      0,
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitInput)
		field  string
	}{
		{"zero mentor", func(in *SubmitInput) { in.MentorID = 0 }, "mentorId"},
		{"negative mentee", func(in *SubmitInput) { in.MenteeID = -1 }, "menteeId"},
		{"mentor equals mentee", func(in *SubmitInput) { in.MenteeID = in.MentorID }, "menteeId"},
		{"empty date", func(in *SubmitInput) { in.Date = "" }, "date"},
		{"empty time", func(in *SubmitInput) { in.Time = "" }, "time"},
		{"negative fee", func(in *SubmitInput) { in.Fee = -1 }, "fee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			svc, _, _ := newBookingFixture(store)

			input := validSubmit()
			tt.mutate(&input)

			_, err := svc.Submit(context.Background(), input)

			var validationErr *model.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("field = %q, want %q", validationErr.Field, tt.field)
			}
			// Ошибка валидации не должна доходить до сети
			if store.createCalls != 0 {
				t.Errorf("createCalls = %d, want 0", store.createCalls)
			}
		})
	}
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	store := newMockStore()
	svc, channel, source := newBookingFixture(store)

	session, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if session.Status != model.SessionStatusPending {
		t.Errorf("status = %s, want pending_approval", session.Status)
	}
	if session.Meeting != nil {
		t.Error("new request must not carry a meeting")
	}
	if session.DurationMinutes != model.DefaultDurationMinutes {
		t.Errorf("duration = %d, want default %d", session.DurationMinutes, model.DefaultDurationMinutes)
	}
	if session.Topic != model.DefaultTopic {
		t.Errorf("topic = %q, want default", session.Topic)
	}
	if store.createCalls != 1 {
		t.Errorf("createCalls = %d, want exactly 1", store.createCalls)
	}

	// Рабочая копия и наблюдение за решением
	if _, ok := svc.Get(session.ID); !ok {
		t.Error("working copy must be tracked after submit")
	}
	if len(source.watched) != 1 || source.watched[0] != session.ID {
		t.Errorf("watched = %v", source.watched)
	}

	// Ментор уведомлён о новой заявке
	if channel.sentCount() != 1 {
		t.Errorf("mentor notifications = %d, want 1", channel.sentCount())
	}
}

func TestSubmitDoesNotRetryCreate(t *testing.T) {
	store := newMockStore()
	store.failCreate = &model.TransportError{Op: "POST /sessions", Err: errors.New("timeout")}
	svc, _, _ := newBookingFixture(store)

	_, err := svc.Submit(context.Background(), validSubmit())

	var transportErr *model.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	// Ровно один вызов создания, без автоматических повторов
	if store.createCalls != 1 {
		t.Errorf("createCalls = %d, want exactly 1", store.createCalls)
	}
}

func TestCancelLocal(t *testing.T) {
	store := newMockStore()
	svc, _, source := newBookingFixture(store)

	session, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	svc.CancelLocal(session.ID)

	if _, ok := svc.Get(session.ID); ok {
		t.Error("working copy must be discarded")
	}
	if len(source.unwatched) != 1 || source.unwatched[0] != session.ID {
		t.Errorf("unwatched = %v", source.unwatched)
	}
	// Удалённая запись не трогается
	if store.status(session.ID) != model.SessionStatusPending {
		t.Error("remote record must stay pending after local cancel")
	}
}

func TestEnableDemoModeAfterTransportError(t *testing.T) {
	store := newMockStore()
	store.failCreate = &model.TransportError{Op: "POST /sessions", Err: errors.New("unreachable")}
	svc, _, _ := newBookingFixture(store)

	if _, err := svc.Submit(context.Background(), validSubmit()); err == nil {
		t.Fatal("expected transport error")
	}

	// Демо-режим включается только явным выбором после показанной ошибки
	svc.EnableDemoMode()
	if !svc.DemoMode() {
		t.Fatal("demo mode must be on")
	}

	session, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("Submit in demo mode: %v", err)
	}
	if !session.Demo {
		t.Error("demo record must be labeled as non-authoritative")
	}
	if session.Status != model.SessionStatusPending {
		t.Errorf("status = %s", session.Status)
	}
}

func TestRefreshPrefersRemoteState(t *testing.T) {
	store := newMockStore()
	svc, _, _ := newBookingFixture(store)

	session, _ := svc.Submit(context.Background(), validSubmit())

	// Ментор решил через другой клиент
	if _, err := store.UpdateStatus(context.Background(), session.ID, model.SessionStatusRejected, 5, "mentor"); err != nil {
		t.Fatalf("seed decision: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.Status != model.SessionStatusRejected {
		t.Errorf("status = %s, want rejected", refreshed.Status)
	}

	working, ok := svc.Get(session.ID)
	if !ok || working.Status != model.SessionStatusRejected {
		t.Error("working copy must follow the authoritative remote status")
	}
}
