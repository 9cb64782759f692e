package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeTracker/internal/clock"
	"timeTracker/internal/logger"
	"timeTracker/internal/models/task"
	"timeTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskService struct {
	tasks      TaskRepository
	activities ActivityRepository
	now        clock.NowFunc
}

func NewTaskService(tasks TaskRepository, activities ActivityRepository) TaskService {
	return TaskService{
		tasks:      tasks,
		activities: activities,
		now:        time.Now,
	}
}

// Create создаёт подзадачу активности; владельцы задачи и активности совпадают
func (s *TaskService) Create(ctx context.Context, userID, activityID uuid.UUID, name string) (*task.Task, error) {
	if _, err := s.activities.GetActivityByID(ctx, userID, activityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("активность", activityID.String())
		}
		return nil, fmt.Errorf("получение активности: %w", err)
	}

	t := &task.Task{
		UUID:         uuid.New(),
		UserID:       userID,
		ActivityUUID: activityID,
		Name:         name,
		CreatedAt:    s.now(),
	}

	if err := s.tasks.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана", zap.String("task_id", t.UUID.String()))
	return t, nil
}

func (s *TaskService) GetByID(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.GetTaskByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*task.Task, error) {
	t, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	t.Name = name
	if err := s.tasks.UpdateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("переименование задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) Archive(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	t, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if t.IsArchived() {
		return nil, NewConflict(CodeAlreadyArchived, "задача уже в архиве")
	}

	now := s.now()
	t.ArchivedAt = &now
	if err := s.tasks.UpdateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("архивация задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) ListByActivity(ctx context.Context, userID, activityID uuid.UUID, includeArchived bool) ([]*task.Task, error) {
	if _, err := s.activities.GetActivityByID(ctx, userID, activityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("активность", activityID.String())
		}
		return nil, fmt.Errorf("получение активности: %w", err)
	}

	tasks, err := s.tasks.ListTasksByActivity(ctx, userID, activityID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.tasks.DeleteTask(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound("задача", id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}
