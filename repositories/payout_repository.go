package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/lib/pq"
)

var ErrPayoutDuplicate = errors.New("payout already recorded for this place")

type PayoutRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, payouts []models.Payout) error
	ExistsForCompetition(ctx context.Context, exec SQLExecutor, competitionID int) (bool, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]models.Payout, error)
}

type postgresPayoutRepository struct {
	db *sql.DB
}

func NewPostgresPayoutRepository(db *sql.DB) PayoutRepository {
	return &postgresPayoutRepository{db: db}
}

func (r *postgresPayoutRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPayoutRepository) CreateBatch(ctx context.Context, exec SQLExecutor, payouts []models.Payout) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO payouts (competition_id, user_id, place, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, settled_at`

	for i := range payouts {
		err := executor.QueryRowContext(ctx, query,
			payouts[i].CompetitionID, payouts[i].UserID, payouts[i].Place, payouts[i].Amount,
		).Scan(&payouts[i].ID, &payouts[i].SettledAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return ErrPayoutDuplicate
			}
			return err
		}
	}
	return nil
}

func (r *postgresPayoutRepository) ExistsForCompetition(ctx context.Context, exec SQLExecutor, competitionID int) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM payouts WHERE competition_id = $1)`, competitionID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresPayoutRepository) ListByCompetition(ctx context.Context, competitionID int) ([]models.Payout, error) {
	executor := r.getExecutor(nil)
	query := `
		SELECT
			p.id, p.competition_id, p.user_id, p.place, p.amount, p.settled_at,
			u.id, u.first_name, u.last_name, u.nickname, u.avatar_key
		FROM payouts p
		JOIN users u ON u.id = p.user_id
		WHERE p.competition_id = $1
		ORDER BY p.place ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payouts := make([]models.Payout, 0)
	for rows.Next() {
		var p models.Payout
		var u models.User
		if scanErr := rows.Scan(
			&p.ID, &p.CompetitionID, &p.UserID, &p.Place, &p.Amount, &p.SettledAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.AvatarKey,
		); scanErr != nil {
			return nil, scanErr
		}
		p.User = &u
		payouts = append(payouts, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return payouts, nil
}
