package service

import (
	"context"
	"strings"
	"time"

	catalogdomain "github.com/AndreaSpaggiari/sito-andrea/internal/catalog/domain"
	"github.com/AndreaSpaggiari/sito-andrea/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  catalogdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  catalogdomain.Repository
	genID *snowflake.Node
}

func New(p Params) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) ListMachines(ctx context.Context) ([]catalogdomain.Machine, error) {
	return s.repo.ListMachines(ctx, s.db)
}

func (s *Service) ListPhases(ctx context.Context) ([]catalogdomain.Phase, error) {
	return s.repo.ListPhases(ctx, s.db)
}

func (s *Service) ListClients(ctx context.Context) ([]catalogdomain.Client, error) {
	return s.repo.ListClients(ctx, s.db)
}

func (s *Service) GetMachine(ctx context.Context, id string) (*catalogdomain.Machine, error) {
	machineID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	machine, err := s.repo.FindMachineByID(ctx, s.db, machineID)
	if err != nil {
		return nil, err
	}
	if machine == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return machine, nil
}

func (s *Service) GetPhase(ctx context.Context, id string) (*catalogdomain.Phase, error) {
	phaseID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	phase, err := s.repo.FindPhaseByID(ctx, s.db, phaseID)
	if err != nil {
		return nil, err
	}
	if phase == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return phase, nil
}

func (s *Service) EnsureClient(ctx context.Context, name string) (*catalogdomain.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}

	existing, err := s.repo.FindClientByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	client := &catalogdomain.Client{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertClient(ctx, s.db, client); err != nil {
		// Another request may have created the same client concurrently.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindClientByName(ctx, s.db, name)
		}
		return nil, err
	}
	return client, nil
}

func (s *Service) DisposalMachine(ctx context.Context) (*catalogdomain.Machine, error) {
	machine, err := s.repo.FindDisposalMachine(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if machine == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return machine, nil
}

func (s *Service) SentinelPhase(ctx context.Context) (*catalogdomain.Phase, error) {
	phase, err := s.repo.FindSentinelPhase(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if phase == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return phase, nil
}
