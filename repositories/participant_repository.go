package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound      = errors.New("participant not found")
	ErrParticipantAlreadyJoined = errors.New("user already joined this competition")
	ErrParticipantInvalidTeam   = errors.New("invalid team reference")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	GetByCompetitionAndUser(ctx context.Context, exec SQLExecutor, competitionID, userID int) (*models.Participant, error)
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.Participant, error)
	CountByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) (int, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (competition_id, user_id, team_id, pool_member)
		VALUES ($1, $2, $3, $4)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query,
		p.CompetitionID, p.UserID, p.TeamID, p.PoolMember,
	).Scan(&p.ID, &p.JoinedAt)

	return r.handleParticipantError(err)
}

func (r *postgresParticipantRepository) GetByCompetitionAndUser(ctx context.Context, exec SQLExecutor, competitionID, userID int) (*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, user_id, team_id, pool_member, joined_at
		FROM participants
		WHERE competition_id = $1 AND user_id = $2`

	p := &models.Participant{}
	err := executor.QueryRowContext(ctx, query, competitionID, userID).Scan(
		&p.ID, &p.CompetitionID, &p.UserID, &p.TeamID, &p.PoolMember, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT p.id, p.competition_id, p.user_id, p.team_id, p.pool_member, p.joined_at,
			u.id, u.first_name, u.last_name, u.nickname, u.avatar_key
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.competition_id = $1
		ORDER BY p.joined_at ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var u models.User
		if scanErr := rows.Scan(
			&p.ID, &p.CompetitionID, &p.UserID, &p.TeamID, &p.PoolMember, &p.JoinedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.AvatarKey,
		); scanErr != nil {
			return nil, scanErr
		}
		p.User = &u
		participants = append(participants, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *postgresParticipantRepository) CountByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE competition_id = $1`, competitionID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "participants_competition_id_user_id_key" {
				return ErrParticipantAlreadyJoined
			}
		case "23503":
			if pqErr.Constraint == "participants_team_id_fkey" {
				return ErrParticipantInvalidTeam
			}
		}
	}
	return err
}
