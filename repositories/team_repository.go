package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound           = errors.New("team not found")
	ErrTeamNameConflict       = errors.New("team name conflict within competition")
	ErrTeamInvalidCompetition = errors.New("invalid competition reference")
)

type TeamRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, competitionID int, teams []models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.Team, error)
	GetSmallest(ctx context.Context, exec SQLExecutor, competitionID int) (*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) CreateBatch(ctx context.Context, exec SQLExecutor, competitionID int, teams []models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (competition_id, name, color, emoji)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	for i := range teams {
		teams[i].CompetitionID = competitionID
		err := executor.QueryRowContext(ctx, query,
			competitionID, teams[i].Name, teams[i].Color, teams[i].Emoji,
		).Scan(&teams[i].ID, &teams[i].CreatedAt)
		if err != nil {
			return r.handleTeamError(err)
		}
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	executor := r.getExecutor(exec)
	query := `SELECT id, competition_id, name, color, emoji, created_at FROM teams WHERE id = $1`

	t := &models.Team{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.CompetitionID, &t.Name, &t.Color, &t.Emoji, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.Team, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT t.id, t.competition_id, t.name, t.color, t.emoji, t.created_at, COUNT(p.id)
		FROM teams t
		LEFT JOIN participants p ON p.team_id = t.id
		WHERE t.competition_id = $1
		GROUP BY t.id
		ORDER BY t.id ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if scanErr := rows.Scan(
			&t.ID, &t.CompetitionID, &t.Name, &t.Color, &t.Emoji, &t.CreatedAt, &t.MemberCount,
		); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return teams, nil
}

// GetSmallest возвращает команду с наименьшим числом участников.
// При равенстве побеждает команда с меньшим id, чтобы распределение было детерминированным.
func (r *postgresTeamRepository) GetSmallest(ctx context.Context, exec SQLExecutor, competitionID int) (*models.Team, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT t.id, t.competition_id, t.name, t.color, t.emoji, t.created_at
		FROM teams t
		LEFT JOIN participants p ON p.team_id = t.id
		WHERE t.competition_id = $1
		GROUP BY t.id
		ORDER BY COUNT(p.id) ASC, t.id ASC
		LIMIT 1`

	t := &models.Team{}
	err := executor.QueryRowContext(ctx, query, competitionID).Scan(
		&t.ID, &t.CompetitionID, &t.Name, &t.Color, &t.Emoji, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to pick smallest team: %w", err)
	}
	return t, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "teams_competition_id_name_key" {
				return ErrTeamNameConflict
			}
		case "23503":
			if pqErr.Constraint == "teams_competition_id_fkey" {
				return ErrTeamInvalidCompetition
			}
		}
	}
	return err
}
