package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (*WorkOrder, error)
	Start(ctx context.Context, req StartRequest) (*WorkOrder, error)
	Finish(ctx context.Context, req FinishRequest) (*FinishResult, error)
	GetByID(ctx context.Context, id string) (*WorkOrder, error)
	List(ctx context.Context, req ListRequest) ([]WorkOrder, error)
}

// EnqueueRequest carries the normalized descriptor of a new order.
// String fields default to "N/D" and numeric fields to zero upstream;
// only the target machine has no safe default.
type EnqueueRequest struct {
	MachineID         string     `json:"machine_id"`
	ClientName        string     `json:"client_name"`
	Scheda            string     `json:"scheda"`
	CoilCode          string     `json:"coil_code"`
	Alloy             string     `json:"alloy"`
	PhysicalState     string     `json:"physical_state"`
	Thickness         float64    `json:"thickness"`
	Width             float64    `json:"width"`
	Measure           float64    `json:"measure"`
	RequestedWeight   float64    `json:"requested_weight"`
	TheoreticalWeight float64    `json:"theoretical_weight"`
	DeliveryDate      *time.Time `json:"delivery_date,omitempty"`
}

type StartRequest struct {
	OrderID string `json:"order_id"`
	PhaseID string `json:"phase_id"`
}

type FinishRequest struct {
	OrderID            string  `json:"order_id"`
	Weight             float64 `json:"weight"`
	PassCount          int     `json:"pass_count"`
	PieceCount         int     `json:"piece_count"`
	SuccessorMachineID string  `json:"successor_machine_id,omitempty"`
}

// FinishResult reports the finished order and the successor spawned by
// its phase category, if any.
type FinishResult struct {
	Order     *WorkOrder `json:"order"`
	Successor *WorkOrder `json:"successor,omitempty"`
}

type ListRequest struct {
	MachineID string
	Status    string
}

var (
	ErrInvalidDescriptor = errors.New("invalid_descriptor")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrMissingTarget     = errors.New("missing_target")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidID         = errors.New("invalid_id")
)
