package service

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	intakedomain "github.com/AndreaSpaggiari/sito-andrea/internal/intake/domain"
	intakerepo "github.com/AndreaSpaggiari/sito-andrea/internal/intake/repository"
)

const maxImageBytes = 8 << 20

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Repo      intakerepo.Repository
	Extractor intakedomain.Extractor `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      intakerepo.Repository
	extractor intakedomain.Extractor
}

func New(p Params) intakedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("intake.service"),
		clock:     p.Clock,
		repo:      p.Repo,
		extractor: p.Extractor,
	}
}

func (s *Service) Analyze(ctx context.Context, req intakedomain.AnalyzeRequest) (*intakedomain.Descriptor, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	descriptor, err := s.extractor.Extract(ctx, req.Image, req.ContentType)
	s.audit(ctx, intakedomain.KindProductionForm, req, err == nil)
	if err != nil {
		return nil, err
	}

	normalized := descriptor.Normalize()
	return &normalized, nil
}

func (s *Service) AnalyzeMatchSheet(ctx context.Context, req intakedomain.AnalyzeRequest) (*intakedomain.MatchSheet, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	sheet, err := s.extractor.ExtractMatchSheet(ctx, req.Image, req.ContentType)
	s.audit(ctx, intakedomain.KindMatchSheet, req, err == nil)
	if err != nil {
		return nil, err
	}
	if sheet.HomeTeam == "" || sheet.AwayTeam == "" {
		return nil, intakedomain.ErrExtractionFailed
	}
	return &sheet, nil
}

func (s *Service) ListUploads(ctx context.Context, limit int) ([]intakedomain.ScanUpload, error) {
	return s.repo.ListUploads(ctx, s.db, limit)
}

func (s *Service) validate(req intakedomain.AnalyzeRequest) error {
	if s.extractor == nil {
		return intakedomain.ErrNotConfigured
	}
	if len(req.Image) == 0 || len(req.Image) > maxImageBytes {
		return intakedomain.ErrEmptyImage
	}
	if !allowedContentTypes[strings.ToLower(strings.TrimSpace(req.ContentType))] {
		return intakedomain.ErrUnsupportedMedia
	}
	return nil
}

// audit records the attempt regardless of outcome; a failed write only
// logs, the analysis result still stands.
func (s *Service) audit(ctx context.Context, kind string, req intakedomain.AnalyzeRequest, succeeded bool) {
	upload := &intakedomain.ScanUpload{
		ID:          ulid.Make().String(),
		Kind:        kind,
		Filename:    strings.TrimSpace(req.Filename),
		ContentType: req.ContentType,
		SizeBytes:   int64(len(req.Image)),
		Provider:    s.extractor.Provider(),
		Model:       s.extractor.Model(),
		Succeeded:   succeeded,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if upload.Filename == "" {
		upload.Filename = "upload"
	}
	if err := s.repo.InsertUpload(ctx, s.db, upload); err != nil {
		s.log.Warn("scan audit write failed", zap.Error(err))
	}
}
