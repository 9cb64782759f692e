package postgres

import (
	"context"
	"fmt"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/models/heatmap"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Storage) HeatmapRange(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*heatmap.Day, error) {
	start := time.Now()

	query := `SELECT user_id, day, count, created_at, updated_at
				FROM heatmap_days
				WHERE user_id = $1`
	args := []any{userID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND day >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND day <= $%d", len(args))
	}
	query += " ORDER BY day"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить тепловую карту", err)
		return nil, fmt.Errorf("получение тепловой карты: %w", err)
	}
	defer rows.Close()

	days := []*heatmap.Day{}
	for rows.Next() {
		d := &heatmap.Day{}
		if err := rows.Scan(&d.UserID, &d.Day, &d.Count, &d.CreatedAt, &d.UpdatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования дня", zap.Error(err))
			continue
		}
		days = append(days, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	s.warnIfSlow("heatmap_range", start)
	return days, nil
}
