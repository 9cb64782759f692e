package service_test

import (
	"context"
	"testing"
	"time"

	"timeTracker/internal/models/tag"
	"timeTracker/internal/repository"
	"timeTracker/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTagRepository - мок хранилища тегов
type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) CreateTag(ctx context.Context, t *tag.Tag) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTagRepository) GetTagByName(ctx context.Context, userID uuid.UUID, name string) (*tag.Tag, error) {
	args := m.Called(ctx, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tag.Tag), args.Error(1)
}

func (m *MockTagRepository) ListTags(ctx context.Context, userID uuid.UUID) ([]*tag.Tag, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tag.Tag), args.Error(1)
}

func (m *MockTagRepository) DeleteTag(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

var _ service.TagRepository = (*MockTagRepository)(nil)

func TestActivityService_ArchiveLifecycle(t *testing.T) {
	userID := uuid.New()

	t.Run("archiving an archived activity conflicts", func(t *testing.T) {
		activities := new(MockActivityRepository)

		act := activeActivity(userID)
		archivedAt := time.Now()
		act.ArchivedAt = &archivedAt

		activities.On("GetActivityByID", mock.Anything, userID, act.UUID).Return(act, nil)

		svc := service.NewActivityService(activities)
		_, err := svc.Archive(context.Background(), userID, act.UUID)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeAlreadyArchived, bizErr.Code)
		activities.AssertNotCalled(t, "UpdateActivity")
	})

	t.Run("unarchiving a live activity conflicts", func(t *testing.T) {
		activities := new(MockActivityRepository)

		act := activeActivity(userID)
		activities.On("GetActivityByID", mock.Anything, userID, act.UUID).Return(act, nil)

		svc := service.NewActivityService(activities)
		_, err := svc.Unarchive(context.Background(), userID, act.UUID)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeNotArchived, bizErr.Code)
	})

	t.Run("archive then unarchive round trip", func(t *testing.T) {
		activities := new(MockActivityRepository)

		act := activeActivity(userID)
		activities.On("GetActivityByID", mock.Anything, userID, act.UUID).Return(act, nil)
		activities.On("UpdateActivity", mock.Anything, act).Return(nil)

		svc := service.NewActivityService(activities)

		archived, err := svc.Archive(context.Background(), userID, act.UUID)
		require.NoError(t, err)
		assert.True(t, archived.IsArchived())

		restored, err := svc.Unarchive(context.Background(), userID, act.UUID)
		require.NoError(t, err)
		assert.False(t, restored.IsArchived())
	})

	t.Run("foreign activity reads as not found", func(t *testing.T) {
		activities := new(MockActivityRepository)

		id := uuid.New()
		activities.On("GetActivityByID", mock.Anything, userID, id).Return(nil, repository.ErrNotFound)

		svc := service.NewActivityService(activities)
		_, err := svc.GetByID(context.Background(), userID, id)

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeNotFound, bizErr.Code)
	})
}

func TestTagService_GetOrCreate(t *testing.T) {
	userID := uuid.New()

	t.Run("name is normalized before lookup", func(t *testing.T) {
		tags := new(MockTagRepository)

		existing := &tag.Tag{UUID: uuid.New(), UserID: userID, Name: "deep-work"}
		tags.On("GetTagByName", mock.Anything, userID, "deep-work").Return(existing, nil)

		svc := service.NewTagService(tags)
		got, err := svc.GetOrCreate(context.Background(), userID, "  Deep-Work ")

		require.NoError(t, err)
		assert.Equal(t, existing.UUID, got.UUID)
		tags.AssertNotCalled(t, "CreateTag")
	})

	t.Run("missing tag is created", func(t *testing.T) {
		tags := new(MockTagRepository)

		tags.On("GetTagByName", mock.Anything, userID, "focus").Return(nil, repository.ErrNotFound)
		tags.On("CreateTag", mock.Anything, mock.MatchedBy(func(tg *tag.Tag) bool {
			return tg.Name == "focus" && tg.UserID == userID
		})).Return(nil)

		svc := service.NewTagService(tags)
		got, err := svc.GetOrCreate(context.Background(), userID, "Focus")

		require.NoError(t, err)
		assert.Equal(t, "focus", got.Name)
		tags.AssertExpectations(t)
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		tags := new(MockTagRepository)

		svc := service.NewTagService(tags)
		_, err := svc.GetOrCreate(context.Background(), userID, "   ")

		var bizErr *service.BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, service.CodeValidation, bizErr.Code)
		tags.AssertNotCalled(t, "GetTagByName")
	})
}
