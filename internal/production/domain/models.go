package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MachineOutput is one machine's finished production for a single day.
type MachineOutput struct {
	MachineID   snowflake.ID `json:"machine_id"`
	MachineName string       `json:"machine_name"`
	OrderCount  int          `json:"order_count"`
	TotalWeight float64      `json:"total_weight"`
}

// MachineAverage is one machine's rolling daily average over a window.
type MachineAverage struct {
	MachineID   snowflake.ID `json:"machine_id"`
	MachineName string       `json:"machine_name"`
	TotalWeight float64      `json:"total_weight"`
	CountedDays int          `json:"counted_days"`
	Average     float64      `json:"average"`
}

// BacklogEntry is the queue depth waiting on one machine.
type BacklogEntry struct {
	MachineID       snowflake.ID `json:"machine_id"`
	MachineName     string       `json:"machine_name"`
	OrderCount      int          `json:"order_count"`
	RequestedWeight float64      `json:"requested_weight"`
}

// MatrixCell is the finished weight for one (machine, phase) pair.
type MatrixCell struct {
	MachineID snowflake.ID `json:"machine_id"`
	PhaseID   snowflake.ID `json:"phase_id"`
	Weight    float64      `json:"weight"`
}

// Matrix is the phase-by-machine production breakdown for a date range,
// with row, column and grand totals precomputed for rendering.
type Matrix struct {
	From          time.Time                `json:"from"`
	To            time.Time                `json:"to"`
	Cells         []MatrixCell             `json:"cells"`
	MachineTotals map[snowflake.ID]float64 `json:"machine_totals"`
	PhaseTotals   map[snowflake.ID]float64 `json:"phase_totals"`
	GrandTotal    float64                  `json:"grand_total"`
}

// DayCountPolicy decides whether a calendar day participates in the
// rolling-average denominator, given that day's finished weight.
type DayCountPolicy interface {
	Counts(day time.Time, weight float64) bool
	Name() string
}

type Service interface {
	DailyOutput(ctx context.Context, date time.Time) ([]MachineOutput, error)
	RollingAverage(ctx context.Context, days int) ([]MachineAverage, error)
	Backlog(ctx context.Context) ([]BacklogEntry, error)
	Matrix(ctx context.Context, from, to time.Time) (*Matrix, error)
}

var ErrInvalidRange = errors.New("invalid_range")
