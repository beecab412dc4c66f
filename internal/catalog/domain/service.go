package domain

import (
	"context"
	"errors"
)

type Service interface {
	ListMachines(ctx context.Context) ([]Machine, error)
	ListPhases(ctx context.Context) ([]Phase, error)
	ListClients(ctx context.Context) ([]Client, error)
	GetMachine(ctx context.Context, id string) (*Machine, error)
	GetPhase(ctx context.Context, id string) (*Phase, error)
	// EnsureClient returns the client with the given name, creating it
	// when the scanned form names a client the catalog has not seen yet.
	EnsureClient(ctx context.Context, name string) (*Client, error)
	DisposalMachine(ctx context.Context) (*Machine, error)
	SentinelPhase(ctx context.Context) (*Phase, error)
}

var (
	ErrNotFound    = errors.New("not_found")
	ErrInvalidID   = errors.New("invalid_id")
	ErrInvalidName = errors.New("invalid_name")
)
