package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListMachines(ctx context.Context, db *gorm.DB) ([]Machine, error)
	ListPhases(ctx context.Context, db *gorm.DB) ([]Phase, error)
	ListClients(ctx context.Context, db *gorm.DB) ([]Client, error)
	FindMachineByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Machine, error)
	FindPhaseByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Phase, error)
	FindClientByName(ctx context.Context, db *gorm.DB, name string) (*Client, error)
	InsertClient(ctx context.Context, db *gorm.DB, client *Client) error
	FindDisposalMachine(ctx context.Context, db *gorm.DB) (*Machine, error)
	FindSentinelPhase(ctx context.Context, db *gorm.DB) (*Phase, error)
}
