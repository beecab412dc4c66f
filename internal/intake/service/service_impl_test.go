package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	intakedomain "github.com/AndreaSpaggiari/sito-andrea/internal/intake/domain"
	intakerepo "github.com/AndreaSpaggiari/sito-andrea/internal/intake/repository"
)

type stubExtractor struct {
	descriptor intakedomain.Descriptor
	sheet      intakedomain.MatchSheet
	err        error
	calls      int
}

func (s *stubExtractor) Provider() string { return "stub" }
func (s *stubExtractor) Model() string    { return "stub-model" }

func (s *stubExtractor) Extract(context.Context, []byte, string) (intakedomain.Descriptor, error) {
	s.calls++
	return s.descriptor, s.err
}

func (s *stubExtractor) ExtractMatchSheet(context.Context, []byte, string) (intakedomain.MatchSheet, error) {
	s.calls++
	return s.sheet, s.err
}

func newTestService(t *testing.T, extractor intakedomain.Extractor) (intakedomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(`
		CREATE TABLE scan_uploads (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			succeeded INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     clock.NewFakeClock(time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)),
		Repo:      intakerepo.Provide(),
		Extractor: extractor,
	})
	return svc, db
}

func validRequest() intakedomain.AnalyzeRequest {
	return intakedomain.AnalyzeRequest{
		Image:       []byte("fake-image"),
		Filename:    "scheda.jpg",
		ContentType: "image/jpeg",
	}
}

func TestAnalyzeNormalizesDescriptor(t *testing.T) {
	extractor := &stubExtractor{descriptor: intakedomain.Descriptor{
		Scheda:          "S-1",
		CoilWeight:      -5,
		RequestedWeight: 800,
	}}
	svc, _ := newTestService(t, extractor)

	descriptor, err := svc.Analyze(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if descriptor.Scheda != "S-1" {
		t.Fatalf("scheda = %q", descriptor.Scheda)
	}
	if descriptor.CoilCode != "N/D" || descriptor.Alloy != "N/D" || descriptor.ClientName != "N/D" {
		t.Fatalf("missing strings must default to N/D: %+v", descriptor)
	}
	if descriptor.CoilWeight != 0 {
		t.Fatalf("negative weight must clamp to 0, got %v", descriptor.CoilWeight)
	}
	if descriptor.RequestedWeight != 800 {
		t.Fatalf("requested weight = %v", descriptor.RequestedWeight)
	}
}

func TestAnalyzeRecordsAudit(t *testing.T) {
	extractor := &stubExtractor{}
	svc, _ := newTestService(t, extractor)

	if _, err := svc.Analyze(context.Background(), validRequest()); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	uploads, err := svc.ListUploads(context.Background(), 10)
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(uploads) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(uploads))
	}
	row := uploads[0]
	if row.Kind != intakedomain.KindProductionForm || !row.Succeeded || row.Provider != "stub" {
		t.Fatalf("audit row = %+v", row)
	}
	if len(row.ID) != 26 {
		t.Fatalf("upload id %q is not a ulid", row.ID)
	}
}

func TestAnalyzeAuditsFailures(t *testing.T) {
	extractor := &stubExtractor{err: intakedomain.ErrExtractionFailed}
	svc, _ := newTestService(t, extractor)

	if _, err := svc.Analyze(context.Background(), validRequest()); err == nil {
		t.Fatalf("expected extraction error")
	}

	uploads, err := svc.ListUploads(context.Background(), 10)
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(uploads) != 1 || uploads[0].Succeeded {
		t.Fatalf("failed attempts must be audited as such: %+v", uploads)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{})

	req := validRequest()
	req.Image = nil
	if _, err := svc.Analyze(context.Background(), req); err != intakedomain.ErrEmptyImage {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}

	req = validRequest()
	req.ContentType = "application/pdf"
	if _, err := svc.Analyze(context.Background(), req); err != intakedomain.ErrUnsupportedMedia {
		t.Fatalf("expected ErrUnsupportedMedia, got %v", err)
	}
}

func TestAnalyzeWithoutExtractor(t *testing.T) {
	svc, _ := newTestService(t, nil)

	if _, err := svc.Analyze(context.Background(), validRequest()); err != intakedomain.ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestAnalyzeMatchSheetRequiresTeams(t *testing.T) {
	extractor := &stubExtractor{sheet: intakedomain.MatchSheet{HomeTeam: "Alfa"}}
	svc, _ := newTestService(t, extractor)

	if _, err := svc.AnalyzeMatchSheet(context.Background(), validRequest()); err != intakedomain.ErrExtractionFailed {
		t.Fatalf("expected ErrExtractionFailed on partial sheet, got %v", err)
	}
}
