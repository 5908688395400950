package model

import "time"

// MeetingInfo данные о комнате видеовстречи.
// Присутствует у запроса только в статусе confirmed.
type MeetingInfo struct {
	URL       string    `json:"url"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}
