package app

import (
	"context"
	"sync"
	"time"

	"github.com/mentorhub/mentor_sessions/internal/model"
	"github.com/mentorhub/mentor_sessions/internal/remote"
	"go.uber.org/zap"
)

// DecisionPoller наблюдает за решениями менторов опросом хранилища.
// Замена push-уведомлениям: периодически перечитывает наблюдаемые заявки
// и отдаёт запись в callback, как только она вышла из pending_approval.
// Реализует service.DecisionSource.
type DecisionPoller struct {
	store      remote.Store
	interval   time.Duration
	onDecision func(*model.SessionRequest)
	logger     *zap.Logger
	stopChan   chan struct{}
	stopOnce   sync.Once

	mu      sync.Mutex
	watched map[string]struct{}
}

// NewDecisionPoller создаёт новый поллер решений
func NewDecisionPoller(
	store remote.Store,
	interval time.Duration,
	onDecision func(*model.SessionRequest),
	logger *zap.Logger,
) *DecisionPoller {
	return &DecisionPoller{
		store:      store,
		interval:   interval,
		onDecision: onDecision,
		logger:     logger,
		stopChan:   make(chan struct{}),
		watched:    make(map[string]struct{}),
	}
}

// Watch добавляет заявку в наблюдение
func (p *DecisionPoller) Watch(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watched[sessionID] = struct{}{}
}

// Unwatch убирает заявку из наблюдения
func (p *DecisionPoller) Unwatch(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.watched, sessionID)
}

// Start запускает цикл опроса
func (p *DecisionPoller) Start(ctx context.Context) {
	p.logger.Info("Starting decision poller", zap.Duration("interval", p.interval))
	go p.run(ctx)
}

// Stop останавливает опрос; повисших таймеров после остановки не остаётся
func (p *DecisionPoller) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping decision poller")
		close(p.stopChan)
	})
}

// run цикл опроса заявок
func (p *DecisionPoller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-p.stopChan:
			p.logger.Info("Decision poller stopped")
			return
		case <-ctx.Done():
			p.logger.Info("Decision poller cancelled")
			return
		}
	}
}

// poll перечитывает все наблюдаемые заявки
func (p *DecisionPoller) poll(ctx context.Context) {
	p.mu.Lock()
	ids := make([]string, 0, len(p.watched))
	for id := range p.watched {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		session, err := p.store.GetSession(ctx, id)
		if err != nil {
			// Транспортные сбои переживаем и пробуем на следующем тике
			p.logger.Warn("Decision poll failed",
				zap.String("session_id", id),
				zap.Error(err),
			)
			continue
		}

		if !session.IsTerminal() {
			continue
		}

		p.Unwatch(id)

		p.logger.Info("Mentor decision observed",
			zap.String("session_id", id),
			zap.String("status", string(session.Status)),
		)

		if p.onDecision != nil {
			p.onDecision(session)
		}
	}
}
