package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/models/activity"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const activityColumns = `uuid,
					user_id,
					name,
					duration_seconds,
					current_streak,
					longest_streak,
					last_completed_day,
					archived_at,
					created_at,
					updated_at`

func scanActivity(row pgx.Row) (*activity.Activity, error) {
	a := &activity.Activity{}
	err := row.Scan(
		&a.UUID,
		&a.UserID,
		&a.Name,
		&a.DurationSeconds,
		&a.CurrentStreak,
		&a.LongestStreak,
		&a.LastCompletedDay,
		&a.ArchivedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Storage) CreateActivity(ctx context.Context, a *activity.Activity) error {
	start := time.Now()

	query := `INSERT INTO activities
				(uuid, user_id, name, created_at)
				VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, query, a.UUID, a.UserID, a.Name, a.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось создать активность", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("создание активности: %w", err)
	}

	s.warnIfSlow("create_activity", start)
	return nil
}

func (s *Storage) GetActivityByID(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error) {
	start := time.Now()

	query := `SELECT ` + activityColumns + `
				FROM activities
				WHERE uuid = $1 AND user_id = $2`

	a, err := scanActivity(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить активность", err)
		return nil, fmt.Errorf("получение активности: %w", err)
	}

	s.warnIfSlow("get_activity", start)
	return a, nil
}

func (s *Storage) UpdateActivity(ctx context.Context, a *activity.Activity) error {
	start := time.Now()

	query := `UPDATE activities
				SET name = $1,
					archived_at = $2,
					updated_at = NOW()
				WHERE uuid = $3 AND user_id = $4
				RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query, a.Name, a.ArchivedAt, a.UUID, a.UserID).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить активность", err)
		return fmt.Errorf("обновление активности: %w", err)
	}

	s.warnIfSlow("update_activity", start)
	return nil
}

func (s *Storage) ListActivities(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*activity.Activity, error) {
	start := time.Now()

	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = $1`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		logger.Error("Repository: Не удалось получить активности", err)
		return nil, fmt.Errorf("получение активностей: %w", err)
	}
	defer rows.Close()

	activities := []*activity.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования активности", zap.Error(err))
			continue
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	s.warnIfSlow("list_activities", start)
	return activities, nil
}

// DeleteActivity удаляет активность; задачи и записи уходят каскадом,
// тепловая карта не пересчитывается
func (s *Storage) DeleteActivity(ctx context.Context, userID, id uuid.UUID) error {
	start := time.Now()

	res, err := s.pool.Exec(ctx,
		`DELETE FROM activities WHERE uuid = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось удалить активность", err)
		return fmt.Errorf("удаление активности: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	s.warnIfSlow("delete_activity", start)
	return nil
}
