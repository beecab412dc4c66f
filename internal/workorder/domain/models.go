package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the lifecycle state of a work order.
//
//	awaiting -> in_progress -> finished
//	                        -> exiting -> finished
//
// A finished order never reopens; downstream work is always a new order.
type Status string

const (
	StatusAwaiting   Status = "awaiting"
	StatusInProgress Status = "in_progress"
	StatusExiting    Status = "exiting"
	StatusFinished   Status = "finished"
)

// WorkOrder is one unit of material moving through the shop floor.
//
// Invariants maintained by the service layer:
//   - StartedAt is set iff status is in_progress, exiting or finished.
//   - FinishedAt and ProcessedWeight are set iff status is finished.
//   - PhaseID references the sentinel phase iff status is awaiting.
type WorkOrder struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	ParentID  *snowflake.ID `json:"parent_id,omitempty" gorm:"column:parent_id;index"`
	MachineID snowflake.ID  `json:"machine_id" gorm:"column:machine_id;not null;index"`
	PhaseID   snowflake.ID  `json:"phase_id" gorm:"column:phase_id;not null"`
	ClientID  snowflake.ID  `json:"client_id" gorm:"column:client_id;not null"`
	Status    Status        `json:"status" gorm:"type:text;not null;index"`

	// Material descriptor, copied from the paper form and carried
	// unchanged through successor orders.
	Scheda        string  `json:"scheda" gorm:"type:text;not null"`
	CoilCode      string  `json:"coil_code" gorm:"type:text;not null"`
	Alloy         string  `json:"alloy" gorm:"type:text;not null"`
	PhysicalState string  `json:"physical_state" gorm:"type:text;not null"`
	Thickness     float64 `json:"thickness" gorm:"not null"`
	Width         float64 `json:"width" gorm:"not null"`
	Measure       float64 `json:"measure" gorm:"not null"`

	RequestedWeight   float64  `json:"requested_weight" gorm:"not null"`
	TheoreticalWeight float64  `json:"theoretical_weight" gorm:"not null"`
	ProcessedWeight   *float64 `json:"processed_weight,omitempty"`
	PieceCount        *int     `json:"piece_count,omitempty"`
	PassCount         *int     `json:"pass_count,omitempty"`
	WoundLength       *int     `json:"wound_length,omitempty"`

	QueuedAt     time.Time  `json:"queued_at" gorm:"not null"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (WorkOrder) TableName() string { return "work_orders" }
