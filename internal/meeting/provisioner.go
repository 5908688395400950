package meeting

import (
	"fmt"
	"strings"
	"time"

	"github.com/mentorhub/mentor_sessions/internal/model"
)

const (
	// DefaultProvider провайдер видеовстреч по умолчанию
	DefaultProvider = "jitsi"

	// DefaultURLTemplate шаблон ссылки на комнату, %s - токен комнаты
	DefaultURLTemplate = "https://meet.jit.si/mentor-session-%s"
)

// Provisioner детерминированно выводит ссылку на комнату видеовстречи из ID сессии.
// Никакой сети и случайности - повторный вызов для того же ID безопасен и даёт тот же URL.
type Provisioner struct {
	provider    string
	urlTemplate string
}

// NewProvisioner создаёт провижнер с настройками провайдера
func NewProvisioner(provider, urlTemplate string) *Provisioner {
	if provider == "" {
		provider = DefaultProvider
	}
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	return &Provisioner{
		provider:    provider,
		urlTemplate: urlTemplate,
	}
}

// Provision выводит данные комнаты для сессии.
// Чистая функция от sessionID, если не считать метки времени создания.
func (p *Provisioner) Provision(sessionID string) model.MeetingInfo {
	return model.MeetingInfo{
		URL:       fmt.Sprintf(p.urlTemplate, RoomToken(sessionID)),
		Provider:  p.provider,
		CreatedAt: time.Now().UTC(),
	}
}

// RoomToken приводит ID сессии к URL-безопасному токену комнаты.
// Буквы и цифры сохраняются, всё остальное заменяется дефисом, повторы дефисов схлопываются.
func RoomToken(sessionID string) string {
	var b strings.Builder
	lastDash := true // не начинаем с дефиса
	for _, r := range strings.ToLower(sessionID) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
