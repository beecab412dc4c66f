package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// PhaseCategory drives what happens when a work order finishes a phase.
// Categories are resolved once, when a phase row is created or seeded,
// never re-derived from the name at finish time.
type PhaseCategory string

const (
	CategoryNormal    PhaseCategory = "NORMAL"
	CategoryMultiOut  PhaseCategory = "MULTI_OUT"
	CategoryMultiSame PhaseCategory = "MULTI_SAME_MACHINE"
	CategoryExitStep  PhaseCategory = "EXIT_STEP"
	CategoryScrap     PhaseCategory = "SCRAP"
)

// Machine is a production machine on the shop floor.
type Machine struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Disposal  bool         `json:"disposal" gorm:"not null;default:false"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Machine) TableName() string { return "machines" }

// Phase is a processing operation a machine can apply to a work order.
type Phase struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	Name      string        `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Category  PhaseCategory `json:"category" gorm:"type:text;not null;default:NORMAL"`
	Sentinel  bool          `json:"sentinel" gorm:"not null;default:false"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Phase) TableName() string { return "phases" }

// Client is a customer the factory produces for.
type Client struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Client) TableName() string { return "clients" }

// SentinelPhaseName is the reserved phase of orders that have not started yet.
const SentinelPhaseName = "IN ATTESA"

// ResolveCategory maps a legacy phase name to its category. The shop's
// historical phase names are Italian; matching is case-insensitive and
// tolerates both "X" and the "×" sign between the two operation words.
func ResolveCategory(name string) PhaseCategory {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "×", " X ")
	normalized = strings.Join(strings.Fields(normalized), " ")

	switch {
	case normalized == "SCARTO":
		return CategoryScrap
	case normalized == "MOLTEPLICE":
		return CategoryMultiSame
	case strings.Contains(normalized, "MOLTEPLICE X ALTRA"):
		return CategoryMultiOut
	case strings.Contains(normalized, "TAGLIO") && strings.Contains(normalized, "SBAVATURA"):
		return CategoryMultiOut
	case strings.Contains(normalized, "STAGNATURA"):
		return CategoryExitStep
	default:
		return CategoryNormal
	}
}
