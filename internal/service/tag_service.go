package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeTracker/internal/clock"
	"timeTracker/internal/logger"
	"timeTracker/internal/models/tag"
	"timeTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TagService struct {
	tags TagRepository
	now  clock.NowFunc
}

func NewTagService(tags TagRepository) TagService {
	return TagService{
		tags: tags,
		now:  time.Now,
	}
}

// GetOrCreate возвращает тег пользователя по нормализованному имени,
// создавая его при отсутствии. Уникальность имени держится на
// lookup-before-create, а не на жёстком ограничении в БД.
func (s *TagService) GetOrCreate(ctx context.Context, userID uuid.UUID, name string) (*tag.Tag, error) {
	normalized := tag.Normalize(name)
	if normalized == "" {
		return nil, NewValidationError("name", "имя тега не может быть пустым")
	}

	existing, err := s.tags.GetTagByName(ctx, userID, normalized)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("поиск тега: %w", err)
	}

	t := &tag.Tag{
		UUID:      uuid.New(),
		UserID:    userID,
		Name:      normalized,
		CreatedAt: s.now(),
	}
	if err := s.tags.CreateTag(ctx, t); err != nil {
		return nil, fmt.Errorf("создание тега: %w", err)
	}

	logger.Info("Service: Тег создан", zap.String("tag_id", t.UUID.String()), zap.String("name", normalized))
	return t, nil
}

func (s *TagService) List(ctx context.Context, userID uuid.UUID) ([]*tag.Tag, error) {
	tags, err := s.tags.ListTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("получение тегов: %w", err)
	}
	return tags, nil
}

func (s *TagService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.tags.DeleteTag(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound("тег", id.String())
		}
		return fmt.Errorf("удаление тега: %w", err)
	}
	return nil
}
