package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	ErrPoolNotFound             = errors.New("prize pool not found")
	ErrPoolAlreadyExists        = errors.New("prize pool already exists for competition")
	ErrContributionDuplicate    = errors.New("contribution with this charge reference already recorded")
	ErrContributorAlreadyInPool = errors.New("user already contributed to this pool")
)

type PrizePoolRepository interface {
	Create(ctx context.Context, exec SQLExecutor, pool *models.PrizePool) error
	GetByCompetitionID(ctx context.Context, exec SQLExecutor, competitionID int) (*models.PrizePool, error)
	AddContribution(ctx context.Context, exec SQLExecutor, contribution *models.Contribution) error
	TotalCollected(ctx context.Context, exec SQLExecutor, poolID int) (decimal.Decimal, error)
	ListContributions(ctx context.Context, exec SQLExecutor, poolID int) ([]models.Contribution, error)
}

type postgresPrizePoolRepository struct {
	db *sql.DB
}

func NewPostgresPrizePoolRepository(db *sql.DB) PrizePoolRepository {
	return &postgresPrizePoolRepository{db: db}
}

func (r *postgresPrizePoolRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPrizePoolRepository) Create(ctx context.Context, exec SQLExecutor, pool *models.PrizePool) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO prize_pools (competition_id, mode, amount, payout_structure)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		pool.CompetitionID, pool.Mode, pool.Amount, pool.PayoutStructure,
	).Scan(&pool.ID, &pool.CreatedAt)

	return r.handlePoolError(err)
}

func (r *postgresPrizePoolRepository) GetByCompetitionID(ctx context.Context, exec SQLExecutor, competitionID int) (*models.PrizePool, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, mode, amount, payout_structure, created_at
		FROM prize_pools
		WHERE competition_id = $1`

	p := &models.PrizePool{}
	err := executor.QueryRowContext(ctx, query, competitionID).Scan(
		&p.ID, &p.CompetitionID, &p.Mode, &p.Amount, &p.PayoutStructure, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPrizePoolRepository) AddContribution(ctx context.Context, exec SQLExecutor, c *models.Contribution) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO pool_contributions (pool_id, user_id, amount, charge_ref)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		c.PoolID, c.UserID, c.Amount, c.ChargeRef,
	).Scan(&c.ID, &c.CreatedAt)

	return r.handlePoolError(err)
}

func (r *postgresPrizePoolRepository) TotalCollected(ctx context.Context, exec SQLExecutor, poolID int) (decimal.Decimal, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COALESCE(SUM(amount), 0) FROM pool_contributions WHERE pool_id = $1`

	var total decimal.Decimal
	if err := executor.QueryRowContext(ctx, query, poolID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *postgresPrizePoolRepository) ListContributions(ctx context.Context, exec SQLExecutor, poolID int) ([]models.Contribution, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, pool_id, user_id, amount, charge_ref, created_at
		FROM pool_contributions
		WHERE pool_id = $1
		ORDER BY created_at ASC`

	rows, err := executor.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contributions := make([]models.Contribution, 0)
	for rows.Next() {
		var c models.Contribution
		if scanErr := rows.Scan(
			&c.ID, &c.PoolID, &c.UserID, &c.Amount, &c.ChargeRef, &c.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		contributions = append(contributions, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return contributions, nil
}

func (r *postgresPrizePoolRepository) handlePoolError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "prize_pools_competition_id_key":
				return ErrPoolAlreadyExists
			case "pool_contributions_charge_ref_key":
				return ErrContributionDuplicate
			case "pool_contributions_pool_id_user_id_key":
				return ErrContributorAlreadyInPool
			}
		}
	}
	return err
}
