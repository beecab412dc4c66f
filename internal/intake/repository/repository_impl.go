package repository

import (
	"context"

	intakedomain "github.com/AndreaSpaggiari/sito-andrea/internal/intake/domain"
	"gorm.io/gorm"
)

type Repository interface {
	InsertUpload(ctx context.Context, db *gorm.DB, upload *intakedomain.ScanUpload) error
	ListUploads(ctx context.Context, db *gorm.DB, limit int) ([]intakedomain.ScanUpload, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) InsertUpload(ctx context.Context, db *gorm.DB, upload *intakedomain.ScanUpload) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO scan_uploads (
			id, kind, filename, content_type, size_bytes,
			provider, model, succeeded, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		upload.ID, upload.Kind, upload.Filename, upload.ContentType, upload.SizeBytes,
		upload.Provider, upload.Model, upload.Succeeded, upload.CreatedAt,
	).Error
}

func (r *repo) ListUploads(ctx context.Context, db *gorm.DB, limit int) ([]intakedomain.ScanUpload, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var uploads []intakedomain.ScanUpload
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM scan_uploads ORDER BY created_at DESC LIMIT ?`, limit,
	).Scan(&uploads).Error
	if err != nil {
		return nil, err
	}
	return uploads, nil
}
