// Package domain contains core types for the auth service.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleMember   Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleMember:
		return true
	}
	return false
}

// User represents a portal account.
type User struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Email        string       `json:"email" gorm:"type:text;not null;uniqueIndex"`
	DisplayName  string       `json:"display_name" gorm:"type:text;not null"`
	Role         Role         `json:"role" gorm:"type:text;not null;default:member"`
	PasswordHash *string      `json:"-" gorm:"type:text"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

// Session is a persisted login session. Only the token hash is stored.
type Session struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID     snowflake.ID `json:"user_id" gorm:"column:user_id;not null;index"`
	TokenHash  string       `json:"-" gorm:"column:token_hash;type:text;not null;uniqueIndex"`
	UserAgent  string       `json:"user_agent" gorm:"type:text"`
	IPAddress  string       `json:"ip_address" gorm:"type:text"`
	ExpiresAt  time.Time    `json:"expires_at" gorm:"not null;index"`
	RevokedAt  *time.Time   `json:"revoked_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt time.Time    `json:"last_seen_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Session) TableName() string { return "sessions" }

type EnsureProfileRequest struct {
	Email       string
	DisplayName string
	Password    string
	Role        Role
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
}

type Service interface {
	// EnsureProfile returns the account for the given email, creating
	// it on first sight. An existing account is returned untouched.
	EnsureProfile(ctx context.Context, req EnsureProfileRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*User, error)
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)
}

type Repository interface {
	FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	InsertUser(ctx context.Context, db *gorm.DB, user *User) error
	InsertSession(ctx context.Context, db *gorm.DB, session *Session) error
	FindSessionByTokenHash(ctx context.Context, db *gorm.DB, hash string) (*Session, error)
	RevokeSession(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	TouchSession(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrSessionExpired     = errors.New("session_expired")
	ErrUserNotFound       = errors.New("user_not_found")
)
