package service

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

// EntryRepository - хранилище записей времени. Stop и CreateStopped выполняют
// всю последовательность остановки (отметка, прогресс активности, тепловая
// карта) как одну транзакцию; чистую функцию прогресса передаёт сервис.
type EntryRepository interface {
	Create(ctx context.Context, e *entry.TimeEntry) error
	CreateStopped(ctx context.Context, e *entry.TimeEntry, apply activity.ProgressFunc) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*entry.TimeEntry, error)
	GetActive(ctx context.Context, userID uuid.UUID) (*entry.TimeEntry, error)
	List(ctx context.Context, userID uuid.UUID, f entry.Filter) ([]*entry.TimeEntry, error)
	Stop(ctx context.Context, userID, id uuid.UUID, stoppedAt time.Time, durationSeconds int64, distractions *int, apply activity.ProgressFunc) (*entry.TimeEntry, error)
	Update(ctx context.Context, e *entry.TimeEntry, tagIDs []uuid.UUID, replaceTags bool) (*entry.TimeEntry, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	GetActiveOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*entry.TimeEntry, error)
}

// методы остальных хранилищ именуются с сущностью, чтобы одно хранилище
// (postgres или inmemory) могло реализовать все интерфейсы сразу

type ActivityRepository interface {
	CreateActivity(ctx context.Context, a *activity.Activity) error
	GetActivityByID(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error)
	UpdateActivity(ctx context.Context, a *activity.Activity) error
	ListActivities(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*activity.Activity, error)
	DeleteActivity(ctx context.Context, userID, id uuid.UUID) error
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t *task.Task) error
	GetTaskByID(ctx context.Context, userID, id uuid.UUID) (*task.Task, error)
	ListTasksByActivity(ctx context.Context, userID, activityID uuid.UUID, includeArchived bool) ([]*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) error
	DeleteTask(ctx context.Context, userID, id uuid.UUID) error
}

type TagRepository interface {
	CreateTag(ctx context.Context, t *tag.Tag) error
	GetTagByName(ctx context.Context, userID uuid.UUID, name string) (*tag.Tag, error)
	ListTags(ctx context.Context, userID uuid.UUID) ([]*tag.Tag, error)
	DeleteTag(ctx context.Context, userID, id uuid.UUID) error
}

type HeatmapRepository interface {
	HeatmapRange(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*heatmap.Day, error)
}
