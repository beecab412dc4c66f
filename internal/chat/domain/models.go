package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const DefaultRoom = "generale"

type Message struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Room        string       `json:"room" gorm:"type:text;not null;index"`
	UserID      snowflake.ID `json:"user_id" gorm:"column:user_id;not null"`
	DisplayName string       `json:"display_name" gorm:"type:text;not null"`
	Body        string       `json:"body" gorm:"type:text;not null"`
	SentAt      time.Time    `json:"sent_at" gorm:"not null"`
}

func (Message) TableName() string { return "chat_messages" }

// Event is what subscribers receive over the stream: a chat message or
// a presence change.
type Event struct {
	Kind        string       `json:"kind"`
	Room        string       `json:"room"`
	UserID      snowflake.ID `json:"user_id,omitempty"`
	DisplayName string       `json:"display_name,omitempty"`
	Body        string       `json:"body,omitempty"`
	At          time.Time    `json:"at"`
}

const (
	EventMessage = "message"
	EventJoin    = "join"
	EventLeave   = "leave"
)

type PostRequest struct {
	Room        string
	UserID      snowflake.ID
	DisplayName string
	Body        string
}

type Service interface {
	History(ctx context.Context, room string, limit int) ([]Message, error)
	Post(ctx context.Context, req PostRequest) (*Message, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, message *Message) error
	ListRecent(ctx context.Context, db *gorm.DB, room string, limit int) ([]Message, error)
}

var (
	ErrEmptyBody   = errors.New("empty_body")
	ErrBodyTooLong = errors.New("body_too_long")
	ErrInvalidID   = errors.New("invalid_id")
)
