package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Descriptor is the candidate order record produced by scanning a paper
// production form. Every field is optional at the boundary; Normalize
// applies the portal's defaults before the record reaches the ledger.
type Descriptor struct {
	Scheda            string     `json:"scheda"`
	CoilCode          string     `json:"coil_code"`
	CoilWeight        float64    `json:"coil_weight"`
	Thickness         float64    `json:"thickness"`
	Width             float64    `json:"width"`
	Measure           float64    `json:"measure"`
	Alloy             string     `json:"alloy"`
	PhysicalState     string     `json:"physical_state"`
	ClientName        string     `json:"client_name"`
	RequestedWeight   float64    `json:"requested_weight"`
	TheoreticalWeight float64    `json:"theoretical_weight"`
	DeliveryDate      *time.Time `json:"delivery_date,omitempty"`
}

// Normalize defaults missing strings to "N/D" and clamps negative
// numerics to zero. Missing numerics stay zero.
func (d Descriptor) Normalize() Descriptor {
	d.Scheda = defaultString(d.Scheda)
	d.CoilCode = defaultString(d.CoilCode)
	d.Alloy = defaultString(d.Alloy)
	d.PhysicalState = defaultString(d.PhysicalState)
	d.ClientName = defaultString(d.ClientName)
	d.CoilWeight = clampPositive(d.CoilWeight)
	d.Thickness = clampPositive(d.Thickness)
	d.Width = clampPositive(d.Width)
	d.Measure = clampPositive(d.Measure)
	d.RequestedWeight = clampPositive(d.RequestedWeight)
	d.TheoreticalWeight = clampPositive(d.TheoreticalWeight)
	return d
}

func defaultString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "N/D"
	}
	return s
}

func clampPositive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// MatchSheet is the scanned result of one handball match report.
type MatchSheet struct {
	HomeTeam  string     `json:"home_team"`
	AwayTeam  string     `json:"away_team"`
	HomeScore int        `json:"home_score"`
	AwayScore int        `json:"away_score"`
	Round     int        `json:"round"`
	PlayedAt  *time.Time `json:"played_at,omitempty"`
}

// ScanUpload is the audit row written for every analysis call.
type ScanUpload struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Kind        string    `json:"kind" gorm:"type:text;not null"`
	Filename    string    `json:"filename" gorm:"type:text;not null"`
	ContentType string    `json:"content_type" gorm:"type:text;not null"`
	SizeBytes   int64     `json:"size_bytes" gorm:"not null"`
	Provider    string    `json:"provider" gorm:"type:text;not null"`
	Model       string    `json:"model" gorm:"type:text;not null"`
	Succeeded   bool      `json:"succeeded" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
}

func (ScanUpload) TableName() string { return "scan_uploads" }

const (
	KindProductionForm = "production_form"
	KindMatchSheet     = "match_sheet"
)

// Extractor turns a photographed form into structured fields by
// delegating to an external multimodal model.
type Extractor interface {
	Provider() string
	Model() string
	Extract(ctx context.Context, image []byte, contentType string) (Descriptor, error)
	ExtractMatchSheet(ctx context.Context, image []byte, contentType string) (MatchSheet, error)
}

type AnalyzeRequest struct {
	Image       []byte
	Filename    string
	ContentType string
}

type Service interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*Descriptor, error)
	AnalyzeMatchSheet(ctx context.Context, req AnalyzeRequest) (*MatchSheet, error)
	ListUploads(ctx context.Context, limit int) ([]ScanUpload, error)
}

var (
	ErrEmptyImage       = errors.New("empty_image")
	ErrUnsupportedMedia = errors.New("unsupported_media")
	ErrExtractionFailed = errors.New("extraction_failed")
	ErrNotConfigured    = errors.New("extractor_not_configured")
)
