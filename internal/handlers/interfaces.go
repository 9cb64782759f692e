package handlers

import (
	"context"
	"time"

	"timeTracker/internal/models/activity"
	"timeTracker/internal/models/entry"
	"timeTracker/internal/models/heatmap"
	"timeTracker/internal/models/tag"
	"timeTracker/internal/models/task"

	"github.com/google/uuid"
)

type EntryService interface {
	Start(ctx context.Context, userID, activityID uuid.UUID, taskID *uuid.UUID, description *string) (*entry.TimeEntry, error)
	Stop(ctx context.Context, userID, entryID uuid.UUID, distractions *int) (*entry.TimeEntry, error)
	CreateManual(ctx context.Context, userID, activityID uuid.UUID, taskID *uuid.UUID, description *string, startedAt, stoppedAt time.Time) (*entry.TimeEntry, error)
	Update(ctx context.Context, userID, entryID uuid.UUID, patch entry.Patch) (*entry.TimeEntry, error)
	FindActive(ctx context.Context, userID uuid.UUID) (*entry.TimeEntry, error)
	FindAll(ctx context.Context, userID uuid.UUID, f entry.Filter) ([]*entry.TimeEntry, error)
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
}

type ActivityService interface {
	Create(ctx context.Context, userID uuid.UUID, name string) (*activity.Activity, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error)
	Rename(ctx context.Context, userID, id uuid.UUID, name string) (*activity.Activity, error)
	Archive(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error)
	Unarchive(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error)
	List(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*activity.Activity, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type TaskService interface {
	Create(ctx context.Context, userID, activityID uuid.UUID, name string) (*task.Task, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*task.Task, error)
	Rename(ctx context.Context, userID, id uuid.UUID, name string) (*task.Task, error)
	Archive(ctx context.Context, userID, id uuid.UUID) (*task.Task, error)
	ListByActivity(ctx context.Context, userID, activityID uuid.UUID, includeArchived bool) ([]*task.Task, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type TagService interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, name string) (*tag.Tag, error)
	List(ctx context.Context, userID uuid.UUID) ([]*tag.Tag, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type HeatmapService interface {
	Range(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*heatmap.Day, error)
}
