package service

import (
	"context"
	"fmt"

	"github.com/mentorhub/mentor_sessions/internal/meeting"
	"github.com/mentorhub/mentor_sessions/internal/model"
	"github.com/mentorhub/mentor_sessions/internal/notify"
	"github.com/mentorhub/mentor_sessions/internal/remote"
	"go.uber.org/zap"
)

// AcceptResult итог подтверждения заявки.
// Подтверждение может пройти частично: статус записан, но встреча или
// уведомления не прошли - это degraded success, а не жёсткая ошибка.
type AcceptResult struct {
	Request          *model.SessionRequest
	AlreadyConfirmed bool
	Notification     *notify.Result
	Warnings         []string
}

// Degraded проверяет, что подтверждение прошло не полностью
func (r *AcceptResult) Degraded() bool {
	return len(r.Warnings) > 0
}

// DecisionService выполняет решения ментора по заявкам: подтверждение
// с провижнингом встречи и рассылкой, либо отклонение.
type DecisionService struct {
	store       remote.Store
	provisioner *meeting.Provisioner
	dispatcher  *notify.Dispatcher
	addresses   AddressResolver
	logger      *zap.Logger
}

// AddressResolver находит адрес доставки уведомлений для пользователя
type AddressResolver interface {
	Resolve(ctx context.Context, userID int64) (string, error)
}

func NewDecisionService(
	store remote.Store,
	provisioner *meeting.Provisioner,
	dispatcher *notify.Dispatcher,
	addresses AddressResolver,
	logger *zap.Logger,
) *DecisionService {
	return &DecisionService{
		store:       store,
		provisioner: provisioner,
		dispatcher:  dispatcher,
		addresses:   addresses,
		logger:      logger,
	}
}

// Accept подтверждает заявку от имени ментора.
// Порядок: статус -> встреча -> уведомления. Отказ на записи статуса
// прерывает всё, запись остаётся pending. Отказы после записи статуса
// не откатывают её - подтверждение возвращается как degraded success,
// повторный Accept по уже подтверждённой записи безопасен и ничего не меняет.
func (s *DecisionService) Accept(ctx context.Context, sessionID string, mentorID int64) (*AcceptResult, error) {
	// Перечитываем состояние перед переходом: ретраи после транспортных
	// ошибок не должны повторять уже выполненный переход
	current, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if current.MentorID != mentorID {
		return nil, model.NewValidationError("mentorId", "no permission to decide on this session")
	}

	// Идемпотентность: повторное подтверждение - no-op
	if current.IsConfirmed() {
		return &AcceptResult{Request: current, AlreadyConfirmed: true}, nil
	}

	if !current.IsPending() {
		stateErr := &model.StateError{ID: sessionID, Status: current.Status, Op: "accept"}
		s.logger.Error("Invalid accept transition", zap.Error(stateErr))
		return nil, stateErr
	}

	confirmed, err := s.store.UpdateStatus(ctx, sessionID, model.SessionStatusConfirmed, mentorID, "mentor")
	if err != nil {
		// Переход не состоялся, запись осталась pending
		return nil, err
	}

	result := &AcceptResult{Request: confirmed}

	// Провижнинг детерминирован и без побочных эффектов, его можно звать повторно
	meetingInfo := s.provisioner.Provision(sessionID)

	withMeeting, err := s.store.UpdateMeeting(ctx, sessionID, meetingInfo)
	if err != nil {
		s.logger.Error("Failed to persist meeting link after confirmation",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		result.Warnings = append(result.Warnings, "meeting link not persisted: "+err.Error())
	} else {
		result.Request = withMeeting
	}

	s.notifyConfirmation(ctx, result)

	s.logger.Info("Session request accepted",
		zap.String("session_id", sessionID),
		zap.Int64("mentor_id", mentorID),
		zap.Bool("degraded", result.Degraded()),
	)

	return result, nil
}

// Decline отклоняет заявку от имени ментора.
// Идемпотентно: повторное отклонение уже отклонённой записи - no-op.
func (s *DecisionService) Decline(ctx context.Context, sessionID string, mentorID int64) (*model.SessionRequest, error) {
	current, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if current.MentorID != mentorID {
		return nil, model.NewValidationError("mentorId", "no permission to decide on this session")
	}

	if current.Status == model.SessionStatusRejected {
		return current, nil
	}

	if !current.IsPending() {
		stateErr := &model.StateError{ID: sessionID, Status: current.Status, Op: "decline"}
		s.logger.Error("Invalid decline transition", zap.Error(stateErr))
		return nil, stateErr
	}

	rejected, err := s.store.UpdateStatus(ctx, sessionID, model.SessionStatusRejected, mentorID, "mentor")
	if err != nil {
		return nil, err
	}

	// Отклонение не провижнит встречу и шлёт только уведомление менти
	if s.dispatcher != nil && s.addresses != nil {
		if address, addrErr := s.addresses.Resolve(ctx, rejected.MenteeID); addrErr == nil {
			s.dispatcher.SendDecline(ctx, rejected, address)
		} else {
			s.logger.Warn("Mentee contact lookup failed, skipping decline notification",
				zap.String("session_id", sessionID),
				zap.Error(addrErr),
			)
		}
	}

	s.logger.Info("Session request declined",
		zap.String("session_id", sessionID),
		zap.Int64("mentor_id", mentorID),
	)

	return rejected, nil
}

// Resend повторно отправляет подтверждение по текущему состоянию записи.
// Текст рендерится заново, так что уже прикреплённая встреча попадёт в сообщение.
func (s *DecisionService) Resend(ctx context.Context, sessionID string) (*notify.Result, error) {
	current, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !current.IsConfirmed() {
		stateErr := &model.StateError{ID: sessionID, Status: current.Status, Op: "resend confirmation"}
		s.logger.Error("Resend requested for non-confirmed session", zap.Error(stateErr))
		return nil, stateErr
	}

	result := &AcceptResult{Request: current}
	s.notifyConfirmation(ctx, result)
	if result.Notification == nil {
		if len(result.Warnings) > 0 {
			return nil, fmt.Errorf("confirmation not dispatched: %s", result.Warnings[len(result.Warnings)-1])
		}
		return nil, fmt.Errorf("notification dispatcher is not configured")
	}
	return result.Notification, nil
}

// notifyConfirmation рассылает подтверждение обеим сторонам, фиксируя деградацию в result
func (s *DecisionService) notifyConfirmation(ctx context.Context, result *AcceptResult) {
	if s.dispatcher == nil {
		return
	}

	session := result.Request

	mentorAddress, err := s.resolve(ctx, session.MentorID)
	if err != nil {
		result.Warnings = append(result.Warnings, "mentor contact lookup failed: "+err.Error())
		return
	}
	menteeAddress, err := s.resolve(ctx, session.MenteeID)
	if err != nil {
		result.Warnings = append(result.Warnings, "mentee contact lookup failed: "+err.Error())
		return
	}

	notification := s.dispatcher.SendConfirmation(ctx, session, mentorAddress, menteeAddress)
	result.Notification = &notification
	if notification.Degraded() {
		result.Warnings = append(result.Warnings, "confirmation delivery degraded")
	}
}

func (s *DecisionService) resolve(ctx context.Context, userID int64) (string, error) {
	if s.addresses == nil {
		return "", fmt.Errorf("address resolver is not configured")
	}
	return s.addresses.Resolve(ctx, userID)
}
