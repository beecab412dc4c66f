package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	MachineID snowflake.ID
	Status    Status
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *WorkOrder) error
	Update(ctx context.Context, db *gorm.DB, order *WorkOrder) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*WorkOrder, error)
	// FindByIDForUpdate locks the row for the duration of the enclosing
	// transaction on databases that support it.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*WorkOrder, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]WorkOrder, error)
}
