package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/lib/pq"
)

var ErrScoreInvalidParticipant = errors.New("score for user not participating in competition")

type ScoreRepository interface {
	Upsert(ctx context.Context, score *models.Score) error
	UserTotal(ctx context.Context, competitionID, userID int) (int64, error)
	TotalsByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.LeaderboardEntry, error)
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert записывает дневной результат. Повторная отправка за тот же день
// перезаписывает значение, а не суммирует его.
func (r *postgresScoreRepository) Upsert(ctx context.Context, s *models.Score) error {
	executor := r.getExecutor(nil)
	query := `
		INSERT INTO scores (competition_id, user_id, day, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (competition_id, user_id, day)
		DO UPDATE SET value = EXCLUDED.value, recorded_at = now()
		RETURNING id, recorded_at`

	err := executor.QueryRowContext(ctx, query,
		s.CompetitionID, s.UserID, s.Day, s.Value,
	).Scan(&s.ID, &s.RecordedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrScoreInvalidParticipant
		}
		return err
	}
	return nil
}

func (r *postgresScoreRepository) UserTotal(ctx context.Context, competitionID, userID int) (int64, error) {
	executor := r.getExecutor(nil)
	var total int64
	err := executor.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(value), 0) FROM scores WHERE competition_id = $1 AND user_id = $2`,
		competitionID, userID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TotalsByCompetition агрегирует очки по участникам. Участники без единой
// записи тоже попадают в выдачу с нулевой суммой.
func (r *postgresScoreRepository) TotalsByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.LeaderboardEntry, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT
			p.user_id, u.nickname, u.avatar_key, p.team_id, p.pool_member,
			COALESCE(SUM(s.value), 0) AS total
		FROM participants p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN scores s ON s.competition_id = p.competition_id AND s.user_id = p.user_id
		WHERE p.competition_id = $1
		GROUP BY p.user_id, u.nickname, u.avatar_key, p.team_id, p.pool_member
		ORDER BY total DESC, p.user_id ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	rank := 0
	for rows.Next() {
		var e models.LeaderboardEntry
		if scanErr := rows.Scan(
			&e.UserID, &e.Nickname, &e.AvatarKey, &e.TeamID, &e.PoolMember, &e.Total,
		); scanErr != nil {
			return nil, scanErr
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
