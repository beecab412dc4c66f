package repository

import (
	"context"

	catalogdomain "github.com/AndreaSpaggiari/sito-andrea/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) ListMachines(ctx context.Context, db *gorm.DB) ([]catalogdomain.Machine, error) {
	var machines []catalogdomain.Machine
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, disposal, created_at FROM machines ORDER BY code ASC`,
	).Scan(&machines).Error
	if err != nil {
		return nil, err
	}
	return machines, nil
}

func (r *repo) ListPhases(ctx context.Context, db *gorm.DB) ([]catalogdomain.Phase, error) {
	var phases []catalogdomain.Phase
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, category, sentinel, created_at FROM phases ORDER BY name ASC`,
	).Scan(&phases).Error
	if err != nil {
		return nil, err
	}
	return phases, nil
}

func (r *repo) ListClients(ctx context.Context, db *gorm.DB) ([]catalogdomain.Client, error) {
	var clients []catalogdomain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, created_at FROM clients ORDER BY name ASC`,
	).Scan(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *repo) FindMachineByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Machine, error) {
	var machine catalogdomain.Machine
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, disposal, created_at FROM machines WHERE id = ?`, id,
	).Scan(&machine).Error
	if err != nil {
		return nil, err
	}
	if machine.ID == 0 {
		return nil, nil
	}
	return &machine, nil
}

func (r *repo) FindPhaseByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Phase, error) {
	var phase catalogdomain.Phase
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, category, sentinel, created_at FROM phases WHERE id = ?`, id,
	).Scan(&phase).Error
	if err != nil {
		return nil, err
	}
	if phase.ID == 0 {
		return nil, nil
	}
	return &phase, nil
}

func (r *repo) FindClientByName(ctx context.Context, db *gorm.DB, name string) (*catalogdomain.Client, error) {
	var client catalogdomain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, created_at FROM clients WHERE name = ?`, name,
	).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID == 0 {
		return nil, nil
	}
	return &client, nil
}

func (r *repo) InsertClient(ctx context.Context, db *gorm.DB, client *catalogdomain.Client) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO clients (id, name, created_at) VALUES (?, ?, ?)`,
		client.ID,
		client.Name,
		client.CreatedAt,
	).Error
}

func (r *repo) FindDisposalMachine(ctx context.Context, db *gorm.DB) (*catalogdomain.Machine, error) {
	var machine catalogdomain.Machine
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, disposal, created_at FROM machines WHERE disposal = ? LIMIT 1`, true,
	).Scan(&machine).Error
	if err != nil {
		return nil, err
	}
	if machine.ID == 0 {
		return nil, nil
	}
	return &machine, nil
}

func (r *repo) FindSentinelPhase(ctx context.Context, db *gorm.DB) (*catalogdomain.Phase, error) {
	var phase catalogdomain.Phase
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, category, sentinel, created_at FROM phases WHERE sentinel = ? LIMIT 1`, true,
	).Scan(&phase).Error
	if err != nil {
		return nil, err
	}
	if phase.ID == 0 {
		return nil, nil
	}
	return &phase, nil
}
