package service

import (
	"context"
	"fmt"
	"time"

	"timeTracker/internal/clock"
	"timeTracker/internal/models/heatmap"

	"github.com/google/uuid"
)

type HeatmapService struct {
	days HeatmapRepository
}

func NewHeatmapService(days HeatmapRepository) HeatmapService {
	return HeatmapService{days: days}
}

// Range возвращает дни с завершёнными сессиями в диапазоне (включительно),
// по возрастанию дат. Дни без завершений опускаются: непрерывность
// последовательности не гарантируется.
func (s *HeatmapService) Range(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*heatmap.Day, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, NewValidationError("from", "начало диапазона позже конца")
	}

	var fromDay, toDay *time.Time
	if from != nil {
		d := clock.DayOf(*from)
		fromDay = &d
	}
	if to != nil {
		d := clock.DayOf(*to)
		toDay = &d
	}

	days, err := s.days.HeatmapRange(ctx, userID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("получение тепловой карты: %w", err)
	}
	return days, nil
}
