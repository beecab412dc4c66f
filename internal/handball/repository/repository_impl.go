package repository

import (
	"context"
	"time"

	handballdomain "github.com/AndreaSpaggiari/sito-andrea/internal/handball/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() handballdomain.Repository {
	return &repo{}
}

func (r *repo) ListTeams(ctx context.Context, db *gorm.DB) ([]handballdomain.Team, error) {
	var teams []handballdomain.Team
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM handball_teams ORDER BY name ASC`,
	).Scan(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *repo) ListMatches(ctx context.Context, db *gorm.DB) ([]handballdomain.Match, error) {
	var matches []handballdomain.Match
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM handball_matches ORDER BY round ASC, id ASC`,
	).Scan(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *repo) FindTeamByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*handballdomain.Team, error) {
	var team handballdomain.Team
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM handball_teams WHERE id = ?`, id,
	).Scan(&team).Error
	if err != nil {
		return nil, err
	}
	if team.ID == 0 {
		return nil, nil
	}
	return &team, nil
}

func (r *repo) FindMatchByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*handballdomain.Match, error) {
	var match handballdomain.Match
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM handball_matches WHERE id = ?`, id,
	).Scan(&match).Error
	if err != nil {
		return nil, err
	}
	if match.ID == 0 {
		return nil, nil
	}
	return &match, nil
}

func (r *repo) InsertTeam(ctx context.Context, db *gorm.DB, team *handballdomain.Team) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO handball_teams (id, name, created_at) VALUES (?, ?, ?)`,
		team.ID, team.Name, team.CreatedAt,
	).Error
}

func (r *repo) InsertMatch(ctx context.Context, db *gorm.DB, match *handballdomain.Match) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO handball_matches (
			id, round, home_team_id, away_team_id,
			home_score, away_score, played_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		match.ID, match.Round, match.HomeTeamID, match.AwayTeamID,
		match.HomeScore, match.AwayScore, match.PlayedAt,
		match.CreatedAt, match.UpdatedAt,
	).Error
}

func (r *repo) UpdateMatch(ctx context.Context, db *gorm.DB, match *handballdomain.Match) error {
	match.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`UPDATE handball_matches
		 SET home_score = ?, away_score = ?, played_at = ?, updated_at = ?
		 WHERE id = ?`,
		match.HomeScore, match.AwayScore, match.PlayedAt, match.UpdatedAt, match.ID,
	).Error
}
