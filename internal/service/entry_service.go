package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeTracker/internal/clock"
	"timeTracker/internal/logger"
	"timeTracker/internal/models/activity"
	"timeTracker/internal/models/entry"
	"timeTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EditWindow - окно после остановки, в течение которого запись остаётся редактируемой
const EditWindow = 7 * 24 * time.Hour

// здесь живёт бизнес-логика жизненного цикла записей времени:
// единственный активный таймер, атомарная остановка с агрегатами,
// окно редактирования
type EntryService struct {
	entries    EntryRepository
	activities ActivityRepository
	tasks      TaskRepository
	now        clock.NowFunc
}

type EntryServiceOption func(*EntryService)

// WithClock подменяет источник времени, нужен детерминированным тестам
func WithClock(now clock.NowFunc) EntryServiceOption {
	return func(s *EntryService) {
		s.now = now
	}
}

func NewEntryService(entries EntryRepository, activities ActivityRepository, tasks TaskRepository, opts ...EntryServiceOption) EntryService {
	s := EntryService{
		entries:    entries,
		activities: activities,
		tasks:      tasks,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Start запускает новый таймер. У пользователя не может быть двух активных
// записей: проверка здесь плюс частичный уникальный индекс в хранилище,
// который ловит гонку двух одновременных стартов.
func (s *EntryService) Start(ctx context.Context, userID, activityID uuid.UUID, taskID *uuid.UUID, description *string) (*entry.TimeEntry, error) {
	if _, err := s.entries.GetActive(ctx, userID); err == nil {
		logger.Info("Service: Попытка запустить второй таймер", zap.String("user_id", userID.String()))
		return nil, NewConflict(CodeActiveEntryExists, "у вас уже есть активная запись")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("проверка активной записи: %w", err)
	}

	if err := s.checkActivityAndTask(ctx, userID, activityID, taskID); err != nil {
		return nil, err
	}

	now := s.now()
	e := &entry.TimeEntry{
		UUID:         uuid.New(),
		UserID:       userID,
		ActivityUUID: activityID,
		TaskUUID:     taskID,
		Description:  description,
		StartedAt:    now,
		CreatedAt:    now,
	}

	if err := s.entries.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrActiveEntryExists) {
			// проигравший гонку видит тот же конфликт, что и последовательный вызов
			logger.Warn("Service: Гонка двойного старта", zap.String("user_id", userID.String()))
			return nil, NewConflict(CodeActiveEntryExists, "у вас уже есть активная запись")
		}
		return nil, fmt.Errorf("создание записи: %w", err)
	}

	logger.Info("Service: Таймер запущен",
		zap.String("entry_id", e.UUID.String()),
		zap.String("activity_id", activityID.String()))
	return e, nil
}

// Stop останавливает активную запись. Отметка остановки, накопление
// длительности, пересчёт серии и инкремент тепловой карты применяются
// хранилищем как одна транзакция.
func (s *EntryService) Stop(ctx context.Context, userID, entryID uuid.UUID, distractions *int) (*entry.TimeEntry, error) {
	e, err := s.entries.GetByID(ctx, userID, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("запись", entryID.String())
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	if !e.IsActive() {
		return nil, NewConflict(CodeAlreadyStopped, "запись уже остановлена")
	}

	now := s.now()
	duration := int64(now.Sub(e.StartedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}

	stopped, err := s.entries.Stop(ctx, userID, entryID, now, duration, distractions, s.progressFunc(duration, now))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewNotFound("запись", entryID.String())
		case errors.Is(err, repository.ErrAlreadyStopped):
			return nil, NewConflict(CodeAlreadyStopped, "запись уже остановлена")
		}
		return nil, fmt.Errorf("остановка записи: %w", err)
	}

	logger.Info("Service: Таймер остановлен",
		zap.String("entry_id", entryID.String()),
		zap.Int64("duration_s", duration))
	return stopped, nil
}

// CreateManual создаёт уже остановленную запись задним числом.
// Агрегаты применяются по отметке остановки, а не по моменту ввода.
func (s *EntryService) CreateManual(ctx context.Context, userID, activityID uuid.UUID, taskID *uuid.UUID, description *string, startedAt, stoppedAt time.Time) (*entry.TimeEntry, error) {
	if !startedAt.Before(stoppedAt) {
		return nil, NewValidationError("started_at", "начало должно предшествовать остановке")
	}

	if err := s.checkActivityAndTask(ctx, userID, activityID, taskID); err != nil {
		return nil, err
	}

	duration := int64(stoppedAt.Sub(startedAt) / time.Second)
	e := &entry.TimeEntry{
		UUID:            uuid.New(),
		UserID:          userID,
		ActivityUUID:    activityID,
		TaskUUID:        taskID,
		Description:     description,
		StartedAt:       startedAt,
		StoppedAt:       &stoppedAt,
		DurationSeconds: duration,
		CreatedAt:       s.now(),
	}

	if err := s.entries.CreateStopped(ctx, e, s.progressFunc(duration, stoppedAt)); err != nil {
		return nil, fmt.Errorf("создание ручной записи: %w", err)
	}

	logger.Info("Service: Создана ручная запись",
		zap.String("entry_id", e.UUID.String()),
		zap.Int64("duration_s", duration))
	return e, nil
}

// Update частично обновляет остановленную запись в пределах окна
// редактирования. Переданный набор тегов полностью заменяет прежний.
func (s *EntryService) Update(ctx context.Context, userID, entryID uuid.UUID, patch entry.Patch) (*entry.TimeEntry, error) {
	e, err := s.entries.GetByID(ctx, userID, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("запись", entryID.String())
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	if e.IsActive() {
		return nil, NewConflict(CodeEntryActive, "нельзя обновлять активную запись")
	}

	if s.now().Sub(*e.StoppedAt) > EditWindow {
		logger.Info("Service: Истекло окно редактирования",
			zap.String("entry_id", entryID.String()),
			zap.Time("stopped_at", *e.StoppedAt))
		return nil, NewForbidden(CodeEditWindowExpired, "запись нельзя редактировать спустя неделю после остановки")
	}

	if patch.IsEmpty() {
		return e, nil
	}

	if err := applyPatch(e, patch); err != nil {
		return nil, err
	}

	var tagIDs []uuid.UUID
	replaceTags := patch.TagIDs.IsPresent()
	if replaceTags && !patch.TagIDs.IsClear() {
		tagIDs = patch.TagIDs.Value()
	}

	updated, err := s.entries.Update(ctx, e, tagIDs, replaceTags)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewNotFound("запись", entryID.String())
		case errors.Is(err, repository.ErrTagNotFound):
			return nil, NewBusinessError(CodeNotFound, "один или несколько тегов не найдены")
		}
		return nil, fmt.Errorf("обновление записи: %w", err)
	}

	logger.Info("Service: Запись обновлена", zap.String("entry_id", entryID.String()))
	return updated, nil
}

// FindActive возвращает единственную активную запись пользователя или nil
func (s *EntryService) FindActive(ctx context.Context, userID uuid.UUID) (*entry.TimeEntry, error) {
	e, err := s.entries.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("поиск активной записи: %w", err)
	}
	return e, nil
}

// FindAll возвращает записи пользователя по фильтру, новые первыми.
// Пагинации нет: объём данных одного пользователя это позволяет,
// но размер результата ничем не ограничен.
func (s *EntryService) FindAll(ctx context.Context, userID uuid.UUID, f entry.Filter) ([]*entry.TimeEntry, error) {
	entries, err := s.entries.List(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("получение записей: %w", err)
	}
	return entries, nil
}

// Delete жёстко удаляет запись вместе со связками тегов. Уже применённые
// агрегаты (серия, тепловая карта) не откатываются: проекции пишутся в одну
// сторону, это осознанное упрощение, а не ошибка.
func (s *EntryService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	if err := s.entries.Delete(ctx, userID, entryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound("запись", entryID.String())
		}
		return fmt.Errorf("удаление записи: %w", err)
	}

	logger.Info("Service: Запись удалена", zap.String("entry_id", entryID.String()))
	return nil
}

// checkActivityAndTask проверяет владение активностью и задачей; чужие и
// несуществующие сущности снаружи неразличимы
func (s *EntryService) checkActivityAndTask(ctx context.Context, userID, activityID uuid.UUID, taskID *uuid.UUID) error {
	act, err := s.activities.GetActivityByID(ctx, userID, activityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound("активность", activityID.String())
		}
		return fmt.Errorf("получение активности: %w", err)
	}
	if act.IsArchived() {
		return NewNotFound("активность", activityID.String())
	}

	if taskID == nil {
		return nil
	}

	t, err := s.tasks.GetTaskByID(ctx, userID, *taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound("задача", taskID.String())
		}
		return fmt.Errorf("получение задачи: %w", err)
	}
	if t.ActivityUUID != activityID {
		// задача существует, но привязана к другой активности
		return NewNotFound("задача", taskID.String())
	}

	return nil
}

func (s *EntryService) progressFunc(durationSeconds int64, now time.Time) activity.ProgressFunc {
	return func(act *activity.Activity) {
		ApplyProgress(act, durationSeconds, now)
	}
}

// applyPatch переносит присутствующие поля patch на запись.
// Отметки времени и счётчик отвлечений не допускают явного null.
func applyPatch(e *entry.TimeEntry, patch entry.Patch) error {
	if patch.Rating.IsPresent() {
		if patch.Rating.IsClear() {
			e.Rating = nil
		} else {
			v := patch.Rating.Value()
			e.Rating = &v
		}
	}

	if patch.Comment.IsPresent() {
		if patch.Comment.IsClear() {
			e.Comment = nil
		} else {
			v := patch.Comment.Value()
			e.Comment = &v
		}
	}

	if patch.Distractions.IsPresent() {
		if patch.Distractions.IsClear() {
			return NewValidationError("distractions", "счётчик нельзя очистить")
		}
		e.Distractions = patch.Distractions.Value()
	}

	if patch.StartedAt.IsPresent() {
		if patch.StartedAt.IsClear() {
			return NewValidationError("started_at", "отметку начала нельзя очистить")
		}
		e.StartedAt = patch.StartedAt.Value()
	}

	if patch.StoppedAt.IsPresent() {
		if patch.StoppedAt.IsClear() {
			return NewValidationError("stopped_at", "отметку остановки нельзя очистить")
		}
		v := patch.StoppedAt.Value()
		e.StoppedAt = &v
	}

	if !e.StartedAt.Before(*e.StoppedAt) {
		return NewValidationError("started_at", "начало должно предшествовать остановке")
	}

	// длительность записи следует за пересмотренными отметками;
	// уже применённые агрегаты при этом не перечитываются
	if patch.StartedAt.IsPresent() || patch.StoppedAt.IsPresent() {
		e.DurationSeconds = int64(e.StoppedAt.Sub(e.StartedAt) / time.Second)
	}

	return nil
}
