package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	permissiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/permission/domain"
	"github.com/AndreaSpaggiari/sito-andrea/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  permissiondomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  permissiondomain.Repository
}

func New(p Params) permissiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("permission.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Request(ctx context.Context, userID snowflake.ID, section permissiondomain.Section) (*permissiondomain.SectionGrant, error) {
	if userID == 0 {
		return nil, permissiondomain.ErrInvalidID
	}
	if !section.Valid() {
		return nil, permissiondomain.ErrInvalidSection
	}

	existing, err := s.repo.Find(ctx, s.db, userID, section)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.clock.Now().UTC()
	grant := &permissiondomain.SectionGrant{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Section:   section,
		State:     permissiondomain.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, grant); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the race with a concurrent request; the stored row
			// is authoritative either way.
			return s.repo.Find(ctx, s.db, userID, section)
		}
		return nil, err
	}

	s.log.Info("section access requested",
		zap.String("user_id", userID.String()),
		zap.String("section", string(section)),
	)
	return grant, nil
}

func (s *Service) Decide(ctx context.Context, req permissiondomain.DecideRequest) (*permissiondomain.SectionGrant, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, permissiondomain.ErrInvalidID
	}
	section := permissiondomain.Section(strings.ToLower(strings.TrimSpace(req.Section)))
	if !section.Valid() {
		return nil, permissiondomain.ErrInvalidSection
	}
	state := permissiondomain.State(strings.ToLower(strings.TrimSpace(req.State)))
	if state != permissiondomain.StateApproved && state != permissiondomain.StateDenied {
		return nil, permissiondomain.ErrInvalidState
	}

	grant, err := s.repo.Find(ctx, s.db, userID, section)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, permissiondomain.ErrNotFound
	}

	grant.State = state
	if err := s.repo.UpdateState(ctx, s.db, grant); err != nil {
		return nil, err
	}

	s.log.Info("section access decided",
		zap.String("user_id", userID.String()),
		zap.String("section", string(section)),
		zap.String("state", string(state)),
	)
	return grant, nil
}

// Check reports pending for users that never asked; callers treat
// anything but approved as no access.
func (s *Service) Check(ctx context.Context, userID snowflake.ID, section permissiondomain.Section) (permissiondomain.State, error) {
	if !section.Valid() {
		return "", permissiondomain.ErrInvalidSection
	}
	grant, err := s.repo.Find(ctx, s.db, userID, section)
	if err != nil {
		return "", err
	}
	if grant == nil {
		return permissiondomain.StatePending, nil
	}
	return grant.State, nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID) ([]permissiondomain.SectionGrant, error) {
	if userID == 0 {
		return nil, permissiondomain.ErrInvalidID
	}
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *Service) ListPending(ctx context.Context) ([]permissiondomain.SectionGrant, error) {
	return s.repo.ListByState(ctx, s.db, permissiondomain.StatePending)
}
