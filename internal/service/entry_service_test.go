package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"timeTracker/internal/models/activity"
	"timeTracker/internal/models/entry"
	"timeTracker/internal/models/task"
	"timeTracker/internal/repository"
	"timeTracker/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEntryRepository - мок хранилища записей
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Create(ctx context.Context, e *entry.TimeEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEntryRepository) CreateStopped(ctx context.Context, e *entry.TimeEntry, apply activity.ProgressFunc) error {
	args := m.Called(ctx, e, apply)
	return args.Error(0)
}

func (m *MockEntryRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*entry.TimeEntry, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryRepository) GetActive(ctx context.Context, userID uuid.UUID) (*entry.TimeEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryRepository) List(ctx context.Context, userID uuid.UUID, f entry.Filter) ([]*entry.TimeEntry, error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryRepository) Stop(ctx context.Context, userID, id uuid.UUID, stoppedAt time.Time, durationSeconds int64, distractions *int, apply activity.ProgressFunc) (*entry.TimeEntry, error) {
	args := m.Called(ctx, userID, id, stoppedAt, durationSeconds, distractions, apply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryRepository) Update(ctx context.Context, e *entry.TimeEntry, tagIDs []uuid.UUID, replaceTags bool) (*entry.TimeEntry, error) {
	args := m.Called(ctx, e, tagIDs, replaceTags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entry.TimeEntry), args.Error(1)
}

func (m *MockEntryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockEntryRepository) GetActiveOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*entry.TimeEntry, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entry.TimeEntry), args.Error(1)
}

// MockActivityRepository - мок хранилища активностей
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) CreateActivity(ctx context.Context, a *activity.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockActivityRepository) GetActivityByID(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activity.Activity), args.Error(1)
}

func (m *MockActivityRepository) UpdateActivity(ctx context.Context, a *activity.Activity) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockActivityRepository) ListActivities(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*activity.Activity, error) {
	args := m.Called(ctx, userID, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Activity), args.Error(1)
}

func (m *MockActivityRepository) DeleteActivity(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockTaskRepository - мок хранилища задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTaskByID(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListTasksByActivity(ctx context.Context, userID, activityID uuid.UUID, includeArchived bool) ([]*task.Task, error) {
	args := m.Called(ctx, userID, activityID, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateTask(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

var _ service.EntryRepository = (*MockEntryRepository)(nil)
var _ service.ActivityRepository = (*MockActivityRepository)(nil)
var _ service.TaskRepository = (*MockTaskRepository)(nil)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newEntryService(entries *MockEntryRepository, activities *MockActivityRepository, tasks *MockTaskRepository, now time.Time) service.EntryService {
	return service.NewEntryService(entries, activities, tasks, service.WithClock(fixedClock(now)))
}

func activeActivity(userID uuid.UUID) *activity.Activity {
	return &activity.Activity{
		UUID:      uuid.New(),
		UserID:    userID,
		Name:      "глубокая работа",
		CreatedAt: time.Now(),
	}
}

func TestEntryService_Start(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("success - timer starts", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		act := activeActivity(userID)

		entries.On("GetActive", mock.Anything, userID).Return(nil, repository.ErrNotFound)
		activities.On("GetActivityByID", mock.Anything, userID, act.UUID).Return(act, nil)
		entries.On("Create", mock.Anything, mock.AnythingOfType("*entry.TimeEntry")).Return(nil)

		svc := newEntryService(entries, activities, tasks, now)
		e, err := svc.Start(context.Background(), userID, act.UUID, nil, nil)

		require.NoError(t, err)
		assert.Equal(t, now, e.StartedAt)
		assert.Nil(t, e.StoppedAt)
		assert.True(t, e.IsActive())
		entries.AssertExpectations(t)
	})

	t.Run("conflict - active entry already exists", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		running := &entry.TimeEntry{UUID: uuid.New(), UserID: userID, StartedAt: now.Add(-time.Hour)}
		entries.On("GetActive", mock.Anything, userID).Return(running, nil)

		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.Start(context.Background(), userID, uuid.New(), nil, nil)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeActiveEntryExists, bizErr.Code)
		entries.AssertNotCalled(t, "Create")
	})

	t.Run("conflict - race loser gets the same error as sequential caller", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		act := activeActivity(userID)

		entries.On("GetActive", mock.Anything, userID).Return(nil, repository.ErrNotFound)
		activities.On("GetActivityByID", mock.Anything, userID, act.UUID).Return(act, nil)
		// индекс в хранилище поймал второй insert
		entries.On("Create", mock.Anything, mock.Anything).Return(repository.ErrActiveEntryExists)

		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.Start(context.Background(), userID, act.UUID, nil, nil)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeActiveEntryExists, bizErr.Code)
	})

	t.Run("not found - archived activity is invisible", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		archivedAt := now.Add(-time.Hour)
		act := activeActivity(userID)
		act.ArchivedAt = &archivedAt

		entries.On("GetActive", mock.Anything, userID).Return(nil, repository.ErrNotFound)
		activities.On("GetActivityByID", mock.Anything, userID, act.UUID).Return(act, nil)

		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.Start(context.Background(), userID, act.UUID, nil, nil)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeNotFound, bizErr.Code)
	})

	t.Run("not found - task belongs to another activity", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		act := activeActivity(userID)
		foreign := &task.Task{UUID: uuid.New(), UserID: userID, ActivityUUID: uuid.New(), Name: "чужая"}

		entries.On("GetActive", mock.Anything, userID).Return(nil, repository.ErrNotFound)
		activities.On("GetActivityByID", mock.Anything, userID, act.UUID).Return(act, nil)
		tasks.On("GetTaskByID", mock.Anything, userID, foreign.UUID).Return(foreign, nil)

		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.Start(context.Background(), userID, act.UUID, &foreign.UUID, nil)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeNotFound, bizErr.Code)
	})
}

func TestEntryService_Stop(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()
	activityID := uuid.New()
	startedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	now := startedAt.Add(25 * time.Minute)

	t.Run("success - duration computed from wall clock", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		running := &entry.TimeEntry{
			UUID:         entryID,
			UserID:       userID,
			ActivityUUID: activityID,
			StartedAt:    startedAt,
		}
		stoppedCopy := *running
		stoppedCopy.StoppedAt = &now
		stoppedCopy.DurationSeconds = 1500

		entries.On("GetByID", mock.Anything, userID, entryID).Return(running, nil)
		entries.On("Stop", mock.Anything, userID, entryID, now, int64(1500), (*int)(nil), mock.Anything).
			Return(&stoppedCopy, nil)

		svc := newEntryService(entries, activities, tasks, now)
		stopped, err := svc.Stop(context.Background(), userID, entryID, nil)

		require.NoError(t, err)
		assert.Equal(t, int64(1500), stopped.DurationSeconds)
		assert.False(t, stopped.IsActive())
		entries.AssertExpectations(t)
	})

	t.Run("conflict - entry already stopped", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		stoppedAt := startedAt.Add(10 * time.Minute)
		done := &entry.TimeEntry{
			UUID:      entryID,
			UserID:    userID,
			StartedAt: startedAt,
			StoppedAt: &stoppedAt,
		}
		entries.On("GetByID", mock.Anything, userID, entryID).Return(done, nil)

		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.Stop(context.Background(), userID, entryID, nil)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeAlreadyStopped, bizErr.Code)
		entries.AssertNotCalled(t, "Stop")
	})

	t.Run("conflict - race loser on concurrent stop", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		running := &entry.TimeEntry{
			UUID:         entryID,
			UserID:       userID,
			ActivityUUID: activityID,
			StartedAt:    startedAt,
		}
		entries.On("GetByID", mock.Anything, userID, entryID).Return(running, nil)
		entries.On("Stop", mock.Anything, userID, entryID, now, int64(1500), (*int)(nil), mock.Anything).
			Return(nil, repository.ErrAlreadyStopped)

		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.Stop(context.Background(), userID, entryID, nil)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeAlreadyStopped, bizErr.Code)
	})

	t.Run("not found - foreign entry", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		entries.On("GetByID", mock.Anything, userID, entryID).Return(nil, repository.ErrNotFound)

		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.Stop(context.Background(), userID, entryID, nil)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeNotFound, bizErr.Code)
	})
}

func TestEntryService_CreateManual(t *testing.T) {
	userID := uuid.New()

	t.Run("validation - start must precede stop", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

		svc := newEntryService(entries, activities, tasks, at)
		_, err := svc.CreateManual(context.Background(), userID, uuid.New(), nil, nil, at, at)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeValidation, bizErr.Code)
		entries.AssertNotCalled(t, "CreateStopped")
	})

	t.Run("success - aggregates keyed by stop timestamp", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		act := activeActivity(userID)
		startedAt := time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC)
		stoppedAt := startedAt.Add(45 * time.Minute)

		activities.On("GetActivityByID", mock.Anything, userID, act.UUID).Return(act, nil)
		entries.On("CreateStopped", mock.Anything, mock.AnythingOfType("*entry.TimeEntry"), mock.Anything).
			Run(func(args mock.Arguments) {
				apply := args.Get(2).(activity.ProgressFunc)
				probe := activity.Activity{}
				apply(&probe)
				// прогресс считает серию по дню остановки, 2025-03-08
				require.NotNil(t, probe.LastCompletedDay)
				assert.Equal(t, day(2025, 3, 8), *probe.LastCompletedDay)
				assert.Equal(t, int64(2700), probe.DurationSeconds)
			}).
			Return(nil)

		svc := newEntryService(entries, activities, tasks, stoppedAt.Add(48*time.Hour))
		e, err := svc.CreateManual(context.Background(), userID, act.UUID, nil, nil, startedAt, stoppedAt)

		require.NoError(t, err)
		assert.Equal(t, int64(2700), e.DurationSeconds)
		assert.False(t, e.IsActive())
		entries.AssertExpectations(t)
	})
}

func TestEntryService_Update(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()
	startedAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	stoppedAt := startedAt.Add(30 * time.Minute)

	stoppedEntry := func() *entry.TimeEntry {
		at := stoppedAt
		return &entry.TimeEntry{
			UUID:            entryID,
			UserID:          userID,
			ActivityUUID:    uuid.New(),
			StartedAt:       startedAt,
			StoppedAt:       &at,
			DurationSeconds: 1800,
		}
	}

	t.Run("conflict - active entry is not editable", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		running := &entry.TimeEntry{UUID: entryID, UserID: userID, StartedAt: startedAt}
		entries.On("GetByID", mock.Anything, userID, entryID).Return(running, nil)

		svc := newEntryService(entries, activities, tasks, stoppedAt)
		_, err := svc.Update(context.Background(), userID, entryID, entry.Patch{Rating: entry.Set(5)})

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeEntryActive, bizErr.Code)
	})

	t.Run("edit allowed exactly at the window boundary", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		e := stoppedEntry()
		entries.On("GetByID", mock.Anything, userID, entryID).Return(e, nil)
		entries.On("Update", mock.Anything, e, []uuid.UUID(nil), false).Return(e, nil)

		now := stoppedAt.Add(service.EditWindow)
		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.Update(context.Background(), userID, entryID, entry.Patch{Rating: entry.Set(4)})

		require.NoError(t, err)
		entries.AssertExpectations(t)
	})

	t.Run("forbidden - one second past the edit window", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		e := stoppedEntry()
		entries.On("GetByID", mock.Anything, userID, entryID).Return(e, nil)

		now := stoppedAt.Add(service.EditWindow + time.Second)
		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.Update(context.Background(), userID, entryID, entry.Patch{Rating: entry.Set(4)})

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeEditWindowExpired, bizErr.Code)
		entries.AssertNotCalled(t, "Update")
	})

	t.Run("empty patch returns entry unchanged", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		e := stoppedEntry()
		entries.On("GetByID", mock.Anything, userID, entryID).Return(e, nil)

		svc := newEntryService(entries, activities, tasks, stoppedAt.Add(time.Hour))
		got, err := svc.Update(context.Background(), userID, entryID, entry.Patch{})

		require.NoError(t, err)
		assert.Equal(t, e, got)
		entries.AssertNotCalled(t, "Update")
	})

	t.Run("null clears rating, explicit tag set replaces", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		e := stoppedEntry()
		rating := 3
		e.Rating = &rating
		tagID := uuid.New()

		entries.On("GetByID", mock.Anything, userID, entryID).Return(e, nil)
		entries.On("Update", mock.Anything, mock.MatchedBy(func(upd *entry.TimeEntry) bool {
			return upd.Rating == nil
		}), []uuid.UUID{tagID}, true).Return(e, nil)

		svc := newEntryService(entries, activities, tasks, stoppedAt.Add(time.Hour))
		_, err := svc.Update(context.Background(), userID, entryID, entry.Patch{
			Rating: entry.Clear[int](),
			TagIDs: entry.Set([]uuid.UUID{tagID}),
		})

		require.NoError(t, err)
		entries.AssertExpectations(t)
	})

	t.Run("null tag_ids clears the whole set", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		e := stoppedEntry()
		entries.On("GetByID", mock.Anything, userID, entryID).Return(e, nil)
		entries.On("Update", mock.Anything, e, []uuid.UUID(nil), true).Return(e, nil)

		svc := newEntryService(entries, activities, tasks, stoppedAt.Add(time.Hour))
		_, err := svc.Update(context.Background(), userID, entryID, entry.Patch{
			TagIDs: entry.Clear[[]uuid.UUID](),
		})

		require.NoError(t, err)
		entries.AssertExpectations(t)
	})

	t.Run("validation - timestamps cannot be nulled", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		e := stoppedEntry()
		entries.On("GetByID", mock.Anything, userID, entryID).Return(e, nil)

		svc := newEntryService(entries, activities, tasks, stoppedAt.Add(time.Hour))
		_, err := svc.Update(context.Background(), userID, entryID, entry.Patch{
			StartedAt: entry.Clear[time.Time](),
		})

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeValidation, bizErr.Code)
	})

	t.Run("revised timestamps recompute duration", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		e := stoppedEntry()
		newStop := startedAt.Add(time.Hour)

		entries.On("GetByID", mock.Anything, userID, entryID).Return(e, nil)
		entries.On("Update", mock.Anything, mock.MatchedBy(func(upd *entry.TimeEntry) bool {
			return upd.DurationSeconds == 3600
		}), []uuid.UUID(nil), false).Return(e, nil)

		svc := newEntryService(entries, activities, tasks, stoppedAt.Add(time.Hour))
		_, err := svc.Update(context.Background(), userID, entryID, entry.Patch{
			StoppedAt: entry.Set(newStop),
		})

		require.NoError(t, err)
		entries.AssertExpectations(t)
	})

	t.Run("not found - unknown tag in replacement set", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		e := stoppedEntry()
		tagID := uuid.New()

		entries.On("GetByID", mock.Anything, userID, entryID).Return(e, nil)
		entries.On("Update", mock.Anything, mock.Anything, []uuid.UUID{tagID}, true).
			Return(nil, repository.ErrTagNotFound)

		svc := newEntryService(entries, activities, tasks, stoppedAt.Add(time.Hour))
		_, err := svc.Update(context.Background(), userID, entryID, entry.Patch{
			TagIDs: entry.Set([]uuid.UUID{tagID}),
		})

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeNotFound, bizErr.Code)
	})
}

func TestEntryService_FindActive(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	t.Run("no active entry is not an error", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		entries.On("GetActive", mock.Anything, userID).Return(nil, repository.ErrNotFound)

		svc := newEntryService(entries, activities, tasks, now)
		e, err := svc.FindActive(context.Background(), userID)

		require.NoError(t, err)
		assert.Nil(t, e)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		entries.On("GetActive", mock.Anything, userID).Return(nil, errors.New("connection reset"))

		svc := newEntryService(entries, activities, tasks, now)
		_, err := svc.FindActive(context.Background(), userID)

		assert.Error(t, err)
	})
}

func TestEntryService_Delete(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()

	t.Run("not found maps to business error", func(t *testing.T) {
		entries := new(MockEntryRepository)
		activities := new(MockActivityRepository)
		tasks := new(MockTaskRepository)

		entries.On("Delete", mock.Anything, userID, entryID).Return(repository.ErrNotFound)

		svc := newEntryService(entries, activities, tasks, time.Now())
		err := svc.Delete(context.Background(), userID, entryID)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeNotFound, bizErr.Code)
	})
}
