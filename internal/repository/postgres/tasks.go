package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const taskColumns = `uuid,
					user_id,
					activity_uuid,
					name,
					archived_at,
					created_at,
					updated_at`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.UserID,
		&t.ActivityUUID,
		&t.Name,
		&t.ArchivedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(uuid, user_id, activity_uuid, name, created_at)
				VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query, t.UUID, t.UserID, t.ActivityUUID, t.Name, t.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось создать задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("создание задачи: %w", err)
	}

	s.warnIfSlow("create_task", start)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE uuid = $1 AND user_id = $2`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	s.warnIfSlow("get_task", start)
	return t, nil
}

func (s *Storage) ListTasksByActivity(ctx context.Context, userID, activityID uuid.UUID, includeArchived bool) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE user_id = $1 AND activity_uuid = $2`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, userID, activityID)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	s.warnIfSlow("list_tasks", start)
	return tasks, nil
}

func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
				SET name = $1,
					archived_at = $2,
					updated_at = NOW()
				WHERE uuid = $3 AND user_id = $4
				RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query, t.Name, t.ArchivedAt, t.UUID, t.UserID).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	s.warnIfSlow("update_task", start)
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	start := time.Now()

	res, err := s.pool.Exec(ctx,
		`DELETE FROM tasks WHERE uuid = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	s.warnIfSlow("delete_task", start)
	return nil
}
