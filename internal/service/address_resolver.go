package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mentorhub/mentor_sessions/internal/repository"
)

// ContactAddressResolver находит адрес доставки в таблице контактов
type ContactAddressResolver struct {
	contacts *repository.ContactRepository
}

func NewContactAddressResolver(contacts *repository.ContactRepository) *ContactAddressResolver {
	return &ContactAddressResolver{contacts: contacts}
}

// Resolve возвращает Telegram chat ID пользователя строкой
func (r *ContactAddressResolver) Resolve(ctx context.Context, userID int64) (string, error) {
	contact, err := r.contacts.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get contact: %w", err)
	}
	if contact == nil {
		return "", fmt.Errorf("contact for user %d not found", userID)
	}
	return strconv.FormatInt(contact.TelegramChatID, 10), nil
}
