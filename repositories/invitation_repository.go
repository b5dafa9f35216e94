package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/lib/pq"
)

var (
	ErrInvitationNotFound        = errors.New("invitation not found")
	ErrInvitationAlreadyResolved = errors.New("invitation already resolved")
	ErrInvitationInvalidInvitee  = errors.New("invalid invitee reference")
)

type InvitationRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, competitionID, inviterID int, inviteeIDs []int) (int, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Invitation, error)
	ListPendingByInvitee(ctx context.Context, inviteeID int) ([]models.Invitation, error)
	Resolve(ctx context.Context, exec SQLExecutor, id, inviteeID int, status models.InvitationStatus, respondedAt time.Time) error
}

type postgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) InvitationRepository {
	return &postgresInvitationRepository{db: db}
}

func (r *postgresInvitationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateBatch создаёт приглашения пачкой. Повторные приглашения того же
// пользователя молча пропускаются. Возвращает число созданных записей.
func (r *postgresInvitationRepository) CreateBatch(ctx context.Context, exec SQLExecutor, competitionID, inviterID int, inviteeIDs []int) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO invitations (competition_id, inviter_id, invitee_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (competition_id, invitee_id) DO NOTHING`

	created := 0
	for _, inviteeID := range inviteeIDs {
		result, err := executor.ExecContext(ctx, query,
			competitionID, inviterID, inviteeID, models.InvitationPending,
		)
		if err != nil {
			return created, r.handleInvitationError(err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return created, fmt.Errorf("failed to check affected rows: %w", err)
		}
		created += int(rowsAffected)
	}
	return created, nil
}

func (r *postgresInvitationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Invitation, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, inviter_id, invitee_id, status, created_at, responded_at
		FROM invitations
		WHERE id = $1`

	inv := &models.Invitation{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.CompetitionID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt, &inv.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *postgresInvitationRepository) ListPendingByInvitee(ctx context.Context, inviteeID int) ([]models.Invitation, error) {
	executor := r.getExecutor(nil)
	query := `
		SELECT
			i.id, i.competition_id, i.inviter_id, i.invitee_id, i.status, i.created_at, i.responded_at,
			c.id, c.creator_id, c.name, c.status, c.cadence, c.visibility, c.scoring_type, c.team_mode,
			c.start_date, c.end_date,
			u.id, u.first_name, u.last_name, u.nickname, u.avatar_key
		FROM invitations i
		JOIN competitions c ON c.id = i.competition_id
		JOIN users u ON u.id = i.inviter_id
		WHERE i.invitee_id = $1 AND i.status = $2 AND c.status <> $3
		ORDER BY i.created_at DESC`

	rows, err := executor.QueryContext(ctx, query, inviteeID, models.InvitationPending, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]models.Invitation, 0)
	for rows.Next() {
		var inv models.Invitation
		var c models.Competition
		var u models.User
		if scanErr := rows.Scan(
			&inv.ID, &inv.CompetitionID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt, &inv.RespondedAt,
			&c.ID, &c.CreatorID, &c.Name, &c.Status, &c.Cadence, &c.Visibility, &c.ScoringType, &c.TeamMode,
			&c.StartDate, &c.EndDate,
			&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.AvatarKey,
		); scanErr != nil {
			return nil, scanErr
		}
		inv.Competition = &c
		inv.Inviter = &u
		invitations = append(invitations, inv)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return invitations, nil
}

// Resolve переводит приглашение из pending в конечный статус. Условие
// status = 'pending' гарантирует, что приглашение разрешается ровно один раз.
func (r *postgresInvitationRepository) Resolve(ctx context.Context, exec SQLExecutor, id, inviteeID int, status models.InvitationStatus, respondedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE invitations
		SET status = $1, responded_at = $2
		WHERE id = $3 AND invitee_id = $4 AND status = $5`

	result, err := executor.ExecContext(ctx, query, status, respondedAt, id, inviteeID, models.InvitationPending)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		var current models.InvitationStatus
		checkErr := executor.QueryRowContext(ctx,
			`SELECT status FROM invitations WHERE id = $1 AND invitee_id = $2`, id, inviteeID,
		).Scan(&current)
		if checkErr != nil {
			if errors.Is(checkErr, sql.ErrNoRows) {
				return ErrInvitationNotFound
			}
			return checkErr
		}
		return ErrInvitationAlreadyResolved
	}
	return nil
}

func (r *postgresInvitationRepository) handleInvitationError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" {
			if pqErr.Constraint == "invitations_invitee_id_fkey" {
				return ErrInvitationInvalidInvitee
			}
		}
	}
	return err
}
