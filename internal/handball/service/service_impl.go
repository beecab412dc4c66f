package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	handballdomain "github.com/AndreaSpaggiari/sito-andrea/internal/handball/domain"
	"github.com/AndreaSpaggiari/sito-andrea/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  handballdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  handballdomain.Repository
}

func New(p Params) handballdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("handball.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) ListTeams(ctx context.Context) ([]handballdomain.Team, error) {
	return s.repo.ListTeams(ctx, s.db)
}

func (s *Service) ListMatches(ctx context.Context) ([]handballdomain.Match, error) {
	return s.repo.ListMatches(ctx, s.db)
}

// Standings recomputes the table from every played match; nothing is
// stored. Ordering: points, then goal difference, then goals for, then
// name for a stable tail.
func (s *Service) Standings(ctx context.Context) ([]handballdomain.StandingsRow, error) {
	teams, err := s.repo.ListTeams(ctx, s.db)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.ListMatches(ctx, s.db)
	if err != nil {
		return nil, err
	}

	rows := map[snowflake.ID]*handballdomain.StandingsRow{}
	for _, team := range teams {
		rows[team.ID] = &handballdomain.StandingsRow{TeamID: team.ID, TeamName: team.Name}
	}

	for _, match := range matches {
		if !match.Played() {
			continue
		}
		home, away := rows[match.HomeTeamID], rows[match.AwayTeamID]
		if home == nil || away == nil {
			continue
		}
		hs, as := *match.HomeScore, *match.AwayScore

		home.Played++
		away.Played++
		home.GoalsFor += hs
		home.GoalsAgainst += as
		away.GoalsFor += as
		away.GoalsAgainst += hs

		switch {
		case hs > as:
			home.Won++
			home.Points += 2
			away.Lost++
		case hs < as:
			away.Won++
			away.Points += 2
			home.Lost++
		default:
			home.Drawn++
			away.Drawn++
			home.Points++
			away.Points++
		}
	}

	table := make([]handballdomain.StandingsRow, 0, len(rows))
	for _, row := range rows {
		table = append(table, *row)
	}
	sort.Slice(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference() != b.GoalDifference() {
			return a.GoalDifference() > b.GoalDifference()
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.TeamName < b.TeamName
	})
	return table, nil
}

func (s *Service) CreateTeam(ctx context.Context, req handballdomain.CreateTeamRequest) (*handballdomain.Team, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, handballdomain.ErrInvalidName
	}

	team := &handballdomain.Team{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.InsertTeam(ctx, s.db, team); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, handballdomain.ErrDuplicate
		}
		return nil, err
	}
	return team, nil
}

func (s *Service) ScheduleMatch(ctx context.Context, req handballdomain.ScheduleMatchRequest) (*handballdomain.Match, error) {
	homeID, err := snowflake.ParseString(strings.TrimSpace(req.HomeTeamID))
	if err != nil {
		return nil, handballdomain.ErrInvalidID
	}
	awayID, err := snowflake.ParseString(strings.TrimSpace(req.AwayTeamID))
	if err != nil {
		return nil, handballdomain.ErrInvalidID
	}
	if homeID == awayID {
		return nil, handballdomain.ErrSameTeam
	}

	for _, teamID := range []snowflake.ID{homeID, awayID} {
		team, err := s.repo.FindTeamByID(ctx, s.db, teamID)
		if err != nil {
			return nil, err
		}
		if team == nil {
			return nil, handballdomain.ErrNotFound
		}
	}

	now := s.clock.Now().UTC()
	match := &handballdomain.Match{
		ID:         s.genID.Generate(),
		Round:      req.Round,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertMatch(ctx, s.db, match); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *Service) RecordResult(ctx context.Context, req handballdomain.RecordResultRequest) (*handballdomain.Match, error) {
	matchID, err := snowflake.ParseString(strings.TrimSpace(req.MatchID))
	if err != nil {
		return nil, handballdomain.ErrInvalidID
	}
	if req.HomeScore < 0 || req.AwayScore < 0 {
		return nil, handballdomain.ErrInvalidScore
	}

	match, err := s.repo.FindMatchByID(ctx, s.db, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, handballdomain.ErrNotFound
	}

	playedAt := req.PlayedAt
	if playedAt == nil {
		now := s.clock.Now().UTC()
		playedAt = &now
	}

	homeScore, awayScore := req.HomeScore, req.AwayScore
	match.HomeScore = &homeScore
	match.AwayScore = &awayScore
	match.PlayedAt = playedAt

	if err := s.repo.UpdateMatch(ctx, s.db, match); err != nil {
		return nil, err
	}

	s.log.Info("match result recorded",
		zap.String("match_id", match.ID.String()),
		zap.Int("home_score", homeScore),
		zap.Int("away_score", awayScore),
	)
	return match, nil
}
