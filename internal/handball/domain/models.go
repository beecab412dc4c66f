package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Team struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Team) TableName() string { return "handball_teams" }

// Match scores stay null until the result is recorded.
type Match struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	Round      int          `json:"round" gorm:"not null"`
	HomeTeamID snowflake.ID `json:"home_team_id" gorm:"column:home_team_id;not null"`
	AwayTeamID snowflake.ID `json:"away_team_id" gorm:"column:away_team_id;not null"`
	HomeScore  *int         `json:"home_score,omitempty"`
	AwayScore  *int         `json:"away_score,omitempty"`
	PlayedAt   *time.Time   `json:"played_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Match) TableName() string { return "handball_matches" }

func (m Match) Played() bool { return m.HomeScore != nil && m.AwayScore != nil }

// StandingsRow is one team's totals over all played matches. The league
// scores two points for a win and one for a draw.
type StandingsRow struct {
	TeamID       snowflake.ID `json:"team_id"`
	TeamName     string       `json:"team_name"`
	Played       int          `json:"played"`
	Won          int          `json:"won"`
	Drawn        int          `json:"drawn"`
	Lost         int          `json:"lost"`
	GoalsFor     int          `json:"goals_for"`
	GoalsAgainst int          `json:"goals_against"`
	Points       int          `json:"points"`
}

func (r StandingsRow) GoalDifference() int { return r.GoalsFor - r.GoalsAgainst }

type CreateTeamRequest struct {
	Name string `json:"name"`
}

type ScheduleMatchRequest struct {
	Round      int    `json:"round"`
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
}

type RecordResultRequest struct {
	MatchID   string     `json:"match_id"`
	HomeScore int        `json:"home_score"`
	AwayScore int        `json:"away_score"`
	PlayedAt  *time.Time `json:"played_at,omitempty"`
}

type Service interface {
	ListTeams(ctx context.Context) ([]Team, error)
	ListMatches(ctx context.Context) ([]Match, error)
	Standings(ctx context.Context) ([]StandingsRow, error)
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*Team, error)
	ScheduleMatch(ctx context.Context, req ScheduleMatchRequest) (*Match, error)
	RecordResult(ctx context.Context, req RecordResultRequest) (*Match, error)
}

type Repository interface {
	ListTeams(ctx context.Context, db *gorm.DB) ([]Team, error)
	ListMatches(ctx context.Context, db *gorm.DB) ([]Match, error)
	FindTeamByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Team, error)
	FindMatchByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Match, error)
	InsertTeam(ctx context.Context, db *gorm.DB, team *Team) error
	InsertMatch(ctx context.Context, db *gorm.DB, match *Match) error
	UpdateMatch(ctx context.Context, db *gorm.DB, match *Match) error
}

var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidScore = errors.New("invalid_score")
	ErrSameTeam     = errors.New("same_team")
	ErrDuplicate    = errors.New("duplicate")
)
