package repository

import (
	"context"
	"time"

	authdomain "github.com/AndreaSpaggiari/sito-andrea/internal/auth/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() authdomain.Repository {
	return &repo{}
}

func (r *repo) FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM users WHERE email = ?`, email,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM users WHERE id = ?`, id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) InsertUser(ctx context.Context, db *gorm.DB, user *authdomain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, email, display_name, role, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, user.Role, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	).Error
}

func (r *repo) InsertSession(ctx context.Context, db *gorm.DB, session *authdomain.Session) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sessions (
			id, user_id, token_hash, user_agent, ip_address,
			expires_at, revoked_at, created_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.TokenHash, session.UserAgent, session.IPAddress,
		session.ExpiresAt, session.RevokedAt, session.CreatedAt, session.LastSeenAt,
	).Error
}

func (r *repo) FindSessionByTokenHash(ctx context.Context, db *gorm.DB, hash string) (*authdomain.Session, error) {
	var session authdomain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM sessions WHERE token_hash = ?`, hash,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *repo) RevokeSession(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		at, id,
	).Error
}

func (r *repo) TouchSession(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`,
		at, id,
	).Error
}
