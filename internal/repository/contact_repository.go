package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentor_sessions/internal/model"
	"github.com/mentorhub/mentor_sessions/internal/repository/base"
)

const contactsTable = "contacts"

var contactColumns = []string{"id", "user_id", "name", "telegram_chat_id", "created_at"}

// ContactRepository доступ к контактам участников.
// Контакты нужны только для доставки уведомлений, ядро ими не владеет.
type ContactRepository struct {
	base *base.Repository
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{base: base.NewRepository(pool)}
}

// GetByUserID получает контакт по ID пользователя
func (r *ContactRepository) GetByUserID(ctx context.Context, userID int64) (*model.Contact, error) {
	row := r.base.FindOne(ctx, contactsTable, contactColumns, map[string]interface{}{
		"user_id": userID,
	})

	var contact model.Contact
	err := row.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.Name,
		&contact.TelegramChatID,
		&contact.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact by user id: %w", err)
	}

	return &contact, nil
}

// GetByChatID получает контакт по Telegram chat ID
func (r *ContactRepository) GetByChatID(ctx context.Context, chatID int64) (*model.Contact, error) {
	row := r.base.FindOne(ctx, contactsTable, contactColumns, map[string]interface{}{
		"telegram_chat_id": chatID,
	})

	var contact model.Contact
	err := row.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.Name,
		&contact.TelegramChatID,
		&contact.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact by chat id: %w", err)
	}

	return &contact, nil
}

// Upsert создаёт или обновляет контакт пользователя
func (r *ContactRepository) Upsert(ctx context.Context, contact *model.Contact) error {
	existing, err := r.GetByUserID(ctx, contact.UserID)
	if err != nil {
		return fmt.Errorf("check existing contact: %w", err)
	}

	if existing != nil {
		_, err = r.base.Update(ctx, contactsTable,
			map[string]interface{}{
				"name":             contact.Name,
				"telegram_chat_id": contact.TelegramChatID,
			},
			map[string]interface{}{"user_id": contact.UserID},
		)
		if err != nil {
			return fmt.Errorf("update contact: %w", err)
		}
		contact.ID = existing.ID
		return nil
	}

	id, err := r.base.Insert(ctx, contactsTable, map[string]interface{}{
		"user_id":          contact.UserID,
		"name":             contact.Name,
		"telegram_chat_id": contact.TelegramChatID,
	})
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	contact.ID = id

	return nil
}
