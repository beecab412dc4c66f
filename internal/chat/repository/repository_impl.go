package repository

import (
	"context"

	chatdomain "github.com/AndreaSpaggiari/sito-andrea/internal/chat/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() chatdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, message *chatdomain.Message) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO chat_messages (id, room, user_id, display_name, body, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID, message.Room, message.UserID, message.DisplayName, message.Body, message.SentAt,
	).Error
}

func (r *repo) ListRecent(ctx context.Context, db *gorm.DB, room string, limit int) ([]chatdomain.Message, error) {
	var messages []chatdomain.Message
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM (
			SELECT * FROM chat_messages WHERE room = ? ORDER BY sent_at DESC, id DESC LIMIT ?
		 ) recent ORDER BY sent_at ASC, id ASC`,
		room, limit,
	).Scan(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
