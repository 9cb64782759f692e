package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/models/tag"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Storage) CreateTag(ctx context.Context, t *tag.Tag) error {
	start := time.Now()

	query := `INSERT INTO tags
				(uuid, user_id, name, created_at)
				VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, query, t.UUID, t.UserID, t.Name, t.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось создать тег", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("создание тега: %w", err)
	}

	s.warnIfSlow("create_tag", start)
	return nil
}

func (s *Storage) GetTagByName(ctx context.Context, userID uuid.UUID, name string) (*tag.Tag, error) {
	start := time.Now()

	query := `SELECT uuid, user_id, name, created_at
				FROM tags
				WHERE user_id = $1 AND name = $2`

	t := &tag.Tag{}
	err := s.pool.QueryRow(ctx, query, userID, name).
		Scan(&t.UUID, &t.UserID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить тег", err)
		return nil, fmt.Errorf("получение тега: %w", err)
	}

	s.warnIfSlow("get_tag", start)
	return t, nil
}

func (s *Storage) ListTags(ctx context.Context, userID uuid.UUID) ([]*tag.Tag, error) {
	start := time.Now()

	query := `SELECT uuid, user_id, name, created_at
				FROM tags
				WHERE user_id = $1
				ORDER BY name`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		logger.Error("Repository: Не удалось получить теги", err)
		return nil, fmt.Errorf("получение тегов: %w", err)
	}
	defer rows.Close()

	tags := []*tag.Tag{}
	for rows.Next() {
		t := &tag.Tag{}
		if err := rows.Scan(&t.UUID, &t.UserID, &t.Name, &t.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования тега", zap.Error(err))
			continue
		}
		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	s.warnIfSlow("list_tags", start)
	return tags, nil
}

func (s *Storage) DeleteTag(ctx context.Context, userID, id uuid.UUID) error {
	start := time.Now()

	// связи entry_tags удаляются каскадно
	res, err := s.pool.Exec(ctx,
		`DELETE FROM tags WHERE uuid = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось удалить тег", err)
		return fmt.Errorf("удаление тега: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	s.warnIfSlow("delete_tag", start)
	return nil
}
