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
	ErrCompetitionNotFound       = errors.New("competition not found")
	ErrCompetitionNotDraft       = errors.New("competition is not a draft")
	ErrCompetitionSlugConflict   = errors.New("competition slug conflict")
	ErrCompetitionInvalidCreator = errors.New("invalid creator reference")
)

type ListCompetitionsFilter struct {
	CreatorID     *int
	ParticipantID *int
	Status        *models.CompetitionStatus
	Visibility    *models.Visibility
	Limit         int
	Offset        int
}

type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error)
	List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error)
	Finalize(ctx context.Context, exec SQLExecutor, id int, slug string, finalizedAt time.Time) error
	DeleteDraft(ctx context.Context, id, creatorID int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error
	UpdateCoverKey(ctx context.Context, competitionID int, coverKey *string) error
	ListEndedActive(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Competition, error)
	ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]models.Competition, error)
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

func (r *postgresCompetitionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const competitionColumns = `
	id, creator_id, name, description, slug, status, cadence, visibility,
	scoring_type, scoring_goal, team_mode, start_date, end_date,
	finalized_at, created_at, cover_key`

func (r *postgresCompetitionRepository) Create(ctx context.Context, c *models.Competition) error {
	executor := r.getExecutor(nil)
	// slug и finalized_at выставляются только при финализации
	query := `
		INSERT INTO competitions (
			creator_id, name, description, status, cadence, visibility,
			scoring_type, scoring_goal, team_mode, start_date, end_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		c.CreatorID, c.Name, c.Description, c.Status, c.Cadence, c.Visibility,
		c.ScoringType, c.ScoringGoal, c.TeamMode, c.StartDate, c.EndDate,
	).Scan(&c.ID, &c.CreatedAt)

	return r.handleCompetitionError(err)
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + competitionColumns + ` FROM competitions WHERE id = $1`

	c := &models.Competition{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.CreatorID, &c.Name, &c.Description, &c.Slug, &c.Status, &c.Cadence, &c.Visibility,
		&c.ScoringType, &c.ScoringGoal, &c.TeamMode, &c.StartDate, &c.EndDate,
		&c.FinalizedAt, &c.CreatedAt, &c.CoverKey,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitionRepository) List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error) {
	executor := r.getExecutor(nil)
	// Черновики не попадают ни в один список, даже для их создателя.
	query := `SELECT` + competitionColumns + ` FROM competitions WHERE status <> $1`

	args := []interface{}{models.StatusDraft}
	argID := 2

	if filter.CreatorID != nil {
		query += fmt.Sprintf(" AND creator_id = $%d", argID)
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.ParticipantID != nil {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM participants p WHERE p.competition_id = competitions.id AND p.user_id = $%d)", argID)
		args = append(args, *filter.ParticipantID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Visibility != nil {
		query += fmt.Sprintf(" AND visibility = $%d", argID)
		args = append(args, *filter.Visibility)
		argID++
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	competitions := make([]models.Competition, 0)
	for rows.Next() {
		var c models.Competition
		if scanErr := rows.Scan(
			&c.ID, &c.CreatorID, &c.Name, &c.Description, &c.Slug, &c.Status, &c.Cadence, &c.Visibility,
			&c.ScoringType, &c.ScoringGoal, &c.TeamMode, &c.StartDate, &c.EndDate,
			&c.FinalizedAt, &c.CreatedAt, &c.CoverKey,
		); scanErr != nil {
			return nil, scanErr
		}
		competitions = append(competitions, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return competitions, nil
}

// Finalize переводит черновик в active. Условие status = 'draft' защищает
// от повторной финализации: при гонке выигрывает ровно один вызов.
func (r *postgresCompetitionRepository) Finalize(ctx context.Context, exec SQLExecutor, id int, slug string, finalizedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE competitions
		SET status = $1, slug = $2, finalized_at = $3
		WHERE id = $4 AND status = $5`

	result, err := executor.ExecContext(ctx, query,
		models.StatusActive, slug, finalizedAt, id, models.StatusDraft,
	)
	if err != nil {
		return r.handleCompetitionError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		var status models.CompetitionStatus
		checkErr := executor.QueryRowContext(ctx, `SELECT status FROM competitions WHERE id = $1`, id).Scan(&status)
		if checkErr != nil {
			if errors.Is(checkErr, sql.ErrNoRows) {
				return ErrCompetitionNotFound
			}
			return checkErr
		}
		return ErrCompetitionNotDraft
	}
	return nil
}

func (r *postgresCompetitionRepository) DeleteDraft(ctx context.Context, id, creatorID int) error {
	executor := r.getExecutor(nil)
	query := `DELETE FROM competitions WHERE id = $1 AND creator_id = $2 AND status = $3`
	result, err := executor.ExecContext(ctx, query, id, creatorID, models.StatusDraft)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE competitions SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleCompetitionError(err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateCoverKey(ctx context.Context, competitionID int, coverKey *string) error {
	executor := r.getExecutor(nil)
	query := `UPDATE competitions SET cover_key = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, coverKey, competitionID)
	if err != nil {
		return fmt.Errorf("failed to update competition cover key: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

// ListEndedActive возвращает активные соревнования, у которых прошла дата окончания.
func (r *postgresCompetitionRepository) ListEndedActive(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Competition, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + competitionColumns + `
		FROM competitions
		WHERE status = $1 AND end_date <= $2`

	rows, err := executor.QueryContext(ctx, query, models.StatusActive, currentTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query ended competitions: %w", err)
	}
	defer rows.Close()

	var competitions []*models.Competition
	for rows.Next() {
		var c models.Competition
		if scanErr := rows.Scan(
			&c.ID, &c.CreatorID, &c.Name, &c.Description, &c.Slug, &c.Status, &c.Cadence, &c.Visibility,
			&c.ScoringType, &c.ScoringGoal, &c.TeamMode, &c.StartDate, &c.EndDate,
			&c.FinalizedAt, &c.CreatedAt, &c.CoverKey,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan ended competition: %w", scanErr)
		}
		competitions = append(competitions, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during ended competition rows iteration: %w", err)
	}
	return competitions, nil
}

// ListStaleDrafts возвращает черновики, созданные раньше cutoff и так и не финализированные.
func (r *postgresCompetitionRepository) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]models.Competition, error) {
	executor := r.getExecutor(nil)
	query := `SELECT` + competitionColumns + `
		FROM competitions
		WHERE status = $1 AND created_at < $2`

	rows, err := executor.QueryContext(ctx, query, models.StatusDraft, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := make([]models.Competition, 0)
	for rows.Next() {
		var c models.Competition
		if scanErr := rows.Scan(
			&c.ID, &c.CreatorID, &c.Name, &c.Description, &c.Slug, &c.Status, &c.Cadence, &c.Visibility,
			&c.ScoringType, &c.ScoringGoal, &c.TeamMode, &c.StartDate, &c.EndDate,
			&c.FinalizedAt, &c.CreatedAt, &c.CoverKey,
		); scanErr != nil {
			return nil, scanErr
		}
		drafts = append(drafts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (r *postgresCompetitionRepository) handleCompetitionError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "competitions_slug_key" {
				return ErrCompetitionSlugConflict
			}
		case "23503":
			if pqErr.Constraint == "competitions_creator_id_fkey" {
				return ErrCompetitionInvalidCreator
			}
		}
	}
	return err
}
