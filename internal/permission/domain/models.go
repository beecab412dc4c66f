package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Section is a gated area of the portal.
type Section string

const (
	SectionProduzione Section = "produzione"
	SectionPallamano  Section = "pallamano"
	SectionPersonale  Section = "personale"
)

func (s Section) Valid() bool {
	switch s {
	case SectionProduzione, SectionPallamano, SectionPersonale:
		return true
	}
	return false
}

// State is the review status of a section request.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateDenied   State = "denied"
)

func (s State) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateDenied:
		return true
	}
	return false
}

// SectionGrant is one user's access record for one section. At most one
// row exists per (user, section).
type SectionGrant struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_section_permissions_user_section"`
	Section   Section      `json:"section" gorm:"type:text;not null;uniqueIndex:idx_section_permissions_user_section"`
	State     State        `json:"state" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SectionGrant) TableName() string { return "section_permissions" }

type DecideRequest struct {
	UserID  string `json:"user_id"`
	Section string `json:"section"`
	State   string `json:"state"`
}

type Service interface {
	// Request records interest in a section. The first call creates a
	// pending row; later calls return the current row untouched, so an
	// approval or denial is never reset by re-asking.
	Request(ctx context.Context, userID snowflake.ID, section Section) (*SectionGrant, error)
	Decide(ctx context.Context, req DecideRequest) (*SectionGrant, error)
	Check(ctx context.Context, userID snowflake.ID, section Section) (State, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]SectionGrant, error)
	ListPending(ctx context.Context) ([]SectionGrant, error)
}

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, userID snowflake.ID, section Section) (*SectionGrant, error)
	Insert(ctx context.Context, db *gorm.DB, grant *SectionGrant) error
	UpdateState(ctx context.Context, db *gorm.DB, grant *SectionGrant) error
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]SectionGrant, error)
	ListByState(ctx context.Context, db *gorm.DB, state State) ([]SectionGrant, error)
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidSection = errors.New("invalid_section")
	ErrInvalidState   = errors.New("invalid_state")
)
