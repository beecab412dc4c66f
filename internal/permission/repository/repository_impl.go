package repository

import (
	"context"
	"time"

	permissiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/permission/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() permissiondomain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID snowflake.ID, section permissiondomain.Section) (*permissiondomain.SectionGrant, error) {
	var grant permissiondomain.SectionGrant
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM section_permissions WHERE user_id = ? AND section = ?`,
		userID, section,
	).Scan(&grant).Error
	if err != nil {
		return nil, err
	}
	if grant.ID == 0 {
		return nil, nil
	}
	return &grant, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, grant *permissiondomain.SectionGrant) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO section_permissions (id, user_id, section, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		grant.ID, grant.UserID, grant.Section, grant.State, grant.CreatedAt, grant.UpdatedAt,
	).Error
}

func (r *repo) UpdateState(ctx context.Context, db *gorm.DB, grant *permissiondomain.SectionGrant) error {
	grant.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`UPDATE section_permissions SET state = ?, updated_at = ? WHERE id = ?`,
		grant.State, grant.UpdatedAt, grant.ID,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]permissiondomain.SectionGrant, error) {
	var grants []permissiondomain.SectionGrant
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM section_permissions WHERE user_id = ? ORDER BY section ASC`,
		userID,
	).Scan(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *repo) ListByState(ctx context.Context, db *gorm.DB, state permissiondomain.State) ([]permissiondomain.SectionGrant, error) {
	var grants []permissiondomain.SectionGrant
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM section_permissions WHERE state = ? ORDER BY created_at ASC`,
		state,
	).Scan(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}
