package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeTracker/internal/clock"
	"timeTracker/internal/logger"
	"timeTracker/internal/models/activity"
	"timeTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ActivityService struct {
	activities ActivityRepository
	now        clock.NowFunc
}

func NewActivityService(activities ActivityRepository) ActivityService {
	return ActivityService{
		activities: activities,
		now:        time.Now,
	}
}

func (s *ActivityService) Create(ctx context.Context, userID uuid.UUID, name string) (*activity.Activity, error) {
	act := &activity.Activity{
		UUID:      uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: s.now(),
	}

	if err := s.activities.CreateActivity(ctx, act); err != nil {
		return nil, fmt.Errorf("создание активности: %w", err)
	}

	logger.Info("Service: Активность создана", zap.String("activity_id", act.UUID.String()))
	return act, nil
}

func (s *ActivityService) GetByID(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error) {
	act, err := s.activities.GetActivityByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("активность", id.String())
		}
		return nil, fmt.Errorf("получение активности: %w", err)
	}
	return act, nil
}

func (s *ActivityService) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*activity.Activity, error) {
	act, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	act.Name = name
	if err := s.activities.UpdateActivity(ctx, act); err != nil {
		return nil, fmt.Errorf("переименование активности: %w", err)
	}
	return act, nil
}

func (s *ActivityService) Archive(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error) {
	act, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if act.IsArchived() {
		return nil, NewConflict(CodeAlreadyArchived, "активность уже в архиве")
	}

	now := s.now()
	act.ArchivedAt = &now
	if err := s.activities.UpdateActivity(ctx, act); err != nil {
		return nil, fmt.Errorf("архивация активности: %w", err)
	}

	logger.Info("Service: Активность заархивирована", zap.String("activity_id", id.String()))
	return act, nil
}

func (s *ActivityService) Unarchive(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error) {
	act, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if !act.IsArchived() {
		return nil, NewConflict(CodeNotArchived, "активность не в архиве")
	}

	act.ArchivedAt = nil
	if err := s.activities.UpdateActivity(ctx, act); err != nil {
		return nil, fmt.Errorf("разархивация активности: %w", err)
	}

	logger.Info("Service: Активность возвращена из архива", zap.String("activity_id", id.String()))
	return act, nil
}

func (s *ActivityService) List(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*activity.Activity, error) {
	acts, err := s.activities.ListActivities(ctx, userID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("получение активностей: %w", err)
	}
	return acts, nil
}

// Delete жёстко удаляет активность каскадом вместе с её задачами и записями
func (s *ActivityService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.activities.DeleteActivity(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound("активность", id.String())
		}
		return fmt.Errorf("удаление активности: %w", err)
	}

	logger.Info("Service: Активность удалена", zap.String("activity_id", id.String()))
	return nil
}
