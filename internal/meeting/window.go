package meeting

import "time"

const (
	// JoinBeforeStart за сколько до начала открывается вход в комнату
	JoinBeforeStart = 15 * time.Minute

	// JoinAfterStart сколько после начала вход остаётся открытым
	JoinAfterStart = 60 * time.Minute
)

// CanJoin проверяет, попадает ли момент now в окно входа [start-15м, start+60м].
// Чистая функция от времени - пересчитывается на каждый запрос, никогда не кэшируется.
func CanJoin(scheduledStart, now time.Time) bool {
	open := scheduledStart.Add(-JoinBeforeStart)
	close := scheduledStart.Add(JoinAfterStart)
	return !now.Before(open) && !now.After(close)
}

// IsStartingSoon проверяет, что сессия вот-вот начнётся: now в [start-15м, start)
func IsStartingSoon(scheduledStart, now time.Time) bool {
	open := scheduledStart.Add(-JoinBeforeStart)
	return !now.Before(open) && now.Before(scheduledStart)
}

// IsActive проверяет, что сессия идёт: now в [start, end)
func IsActive(scheduledStart, scheduledEnd, now time.Time) bool {
	return !now.Before(scheduledStart) && now.Before(scheduledEnd)
}
