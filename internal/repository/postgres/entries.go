package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeTracker/internal/clock"
	"timeTracker/internal/logger"
	"timeTracker/internal/models/activity"
	"timeTracker/internal/models/entry"
	"timeTracker/internal/models/tag"
	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// общий срез возможностей pgxpool.Pool и pgx.Tx,
// чтобы обогащение работало и внутри транзакций
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const entryColumns = `uuid,
					user_id,
					activity_uuid,
					task_uuid,
					description,
					started_at,
					stopped_at,
					duration_seconds,
					rating,
					comment,
					distractions,
					created_at`

func scanEntry(row pgx.Row) (*entry.TimeEntry, error) {
	e := &entry.TimeEntry{}
	err := row.Scan(
		&e.UUID,
		&e.UserID,
		&e.ActivityUUID,
		&e.TaskUUID,
		&e.Description,
		&e.StartedAt,
		&e.StoppedAt,
		&e.DurationSeconds,
		&e.Rating,
		&e.Comment,
		&e.Distractions,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Storage) Create(ctx context.Context, e *entry.TimeEntry) error {
	start := time.Now()

	query := `INSERT INTO time_entries
				(uuid, user_id, activity_uuid, task_uuid, description, started_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		e.UUID,
		e.UserID,
		e.ActivityUUID,
		e.TaskUUID,
		e.Description,
		e.StartedAt,
		e.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "idx_entries_one_active" {
			logger.Warn("Repository: Второй активный таймер отклонён индексом",
				zap.String("user_id", e.UserID.String()))
			return repo.ErrActiveEntryExists
		}
		logger.Error("Repository: Не удалось создать запись", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("создание записи: %w", err)
	}

	s.warnIfSlow("create_entry", start)
	return nil
}

// CreateStopped вставляет уже остановленную запись и в той же транзакции
// применяет прогресс активности и инкремент тепловой карты по дню остановки
func (s *Storage) CreateStopped(ctx context.Context, e *entry.TimeEntry, apply activity.ProgressFunc) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO time_entries
				(uuid, user_id, activity_uuid, task_uuid, description, started_at, stopped_at, duration_seconds, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.Exec(ctx, query,
		e.UUID,
		e.UserID,
		e.ActivityUUID,
		e.TaskUUID,
		e.Description,
		e.StartedAt,
		e.StoppedAt,
		e.DurationSeconds,
		e.CreatedAt,
	)
	if err != nil {
		logger.Error("Repository: Не удалось создать ручную запись", err)
		return fmt.Errorf("создание ручной записи: %w", err)
	}

	if err := s.applyAggregates(ctx, tx, e.UserID, e.ActivityUUID, *e.StoppedAt, apply); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	s.warnIfSlow("create_stopped_entry", start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, userID, id uuid.UUID) (*entry.TimeEntry, error) {
	start := time.Now()

	query := `SELECT ` + entryColumns + `
				FROM time_entries
				WHERE uuid = $1 AND user_id = $2`

	e, err := scanEntry(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить запись", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение записи: %w", err)
	}

	if err := s.enrich(ctx, s.pool, e); err != nil {
		return nil, err
	}

	s.warnIfSlow("get_entry", start)
	return e, nil
}

func (s *Storage) GetActive(ctx context.Context, userID uuid.UUID) (*entry.TimeEntry, error) {
	start := time.Now()

	query := `SELECT ` + entryColumns + `
				FROM time_entries
				WHERE user_id = $1 AND stopped_at IS NULL`

	e, err := scanEntry(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить активную запись", err)
		return nil, fmt.Errorf("получение активной записи: %w", err)
	}

	if err := s.enrich(ctx, s.pool, e); err != nil {
		return nil, err
	}

	s.warnIfSlow("get_active_entry", start)
	return e, nil
}

func (s *Storage) List(ctx context.Context, userID uuid.UUID, f entry.Filter) ([]*entry.TimeEntry, error) {
	start := time.Now()

	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE user_id = $1`
	args := []any{userID}

	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND started_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND started_at <= $%d", len(args))
	}
	if f.ActivityUUID != nil {
		args = append(args, *f.ActivityUUID)
		query += fmt.Sprintf(" AND activity_uuid = $%d", len(args))
	}
	query += " ORDER BY started_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить записи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение записей: %w", err)
	}
	defer rows.Close()

	entries := []*entry.TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования записи", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	s.warnIfSlow("list_entries", start)
	return entries, nil
}

// Stop помечает запись остановленной и применяет агрегаты одной транзакцией.
// Условие stopped_at IS NULL делает гонку двух остановок безопасной:
// проигравший получает ErrAlreadyStopped.
func (s *Storage) Stop(ctx context.Context, userID, id uuid.UUID, stoppedAt time.Time, durationSeconds int64, distractions *int, apply activity.ProgressFunc) (*entry.TimeEntry, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE time_entries
				SET stopped_at = $1,
					duration_seconds = $2,
					distractions = COALESCE($3::INT, distractions)
				WHERE uuid = $4 AND user_id = $5 AND stopped_at IS NULL
				RETURNING ` + entryColumns

	e, err := scanEntry(tx.QueryRow(ctx, query, stoppedAt, durationSeconds, distractions, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyStopMiss(ctx, tx, userID, id)
		}
		logger.Error("Repository: Не удалось остановить запись", err)
		return nil, fmt.Errorf("остановка записи: %w", err)
	}

	if err := s.applyAggregates(ctx, tx, userID, e.ActivityUUID, stoppedAt, apply); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	if err := s.enrich(ctx, s.pool, e); err != nil {
		return nil, err
	}

	s.warnIfSlow("stop_entry", start)
	return e, nil
}

// classifyStopMiss различает "записи нет" и "запись уже остановлена"
func (s *Storage) classifyStopMiss(ctx context.Context, q querier, userID, id uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM time_entries WHERE uuid = $1 AND user_id = $2)`,
		id, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("проверка записи: %w", err)
	}
	if exists {
		return repo.ErrAlreadyStopped
	}
	return repo.ErrNotFound
}

// applyAggregates выполняет шаги 3-4 остановки: прогресс активности под
// блокировкой строки и атомарный инкремент тепловой карты (upsert одним
// запросом, а не чтение-плюс-запись)
func (s *Storage) applyAggregates(ctx context.Context, tx querier, userID, activityID uuid.UUID, stoppedAt time.Time, apply activity.ProgressFunc) error {
	act := &activity.Activity{}
	err := tx.QueryRow(ctx,
		`SELECT uuid, user_id, name, duration_seconds, current_streak, longest_streak, last_completed_day, archived_at, created_at, updated_at
			FROM activities
			WHERE uuid = $1 AND user_id = $2
			FOR UPDATE`,
		activityID, userID,
	).Scan(
		&act.UUID,
		&act.UserID,
		&act.Name,
		&act.DurationSeconds,
		&act.CurrentStreak,
		&act.LongestStreak,
		&act.LastCompletedDay,
		&act.ArchivedAt,
		&act.CreatedAt,
		&act.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось заблокировать активность", err)
		return fmt.Errorf("блокировка активности: %w", err)
	}

	apply(act)

	_, err = tx.Exec(ctx,
		`UPDATE activities
			SET duration_seconds = $1,
				current_streak = $2,
				longest_streak = $3,
				last_completed_day = $4,
				updated_at = NOW()
			WHERE uuid = $5`,
		act.DurationSeconds,
		act.CurrentStreak,
		act.LongestStreak,
		act.LastCompletedDay,
		act.UUID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить прогресс активности", err)
		return fmt.Errorf("обновление прогресса: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO heatmap_days (user_id, day, count)
			VALUES ($1, $2, 1)
			ON CONFLICT (user_id, day)
			DO UPDATE SET count = heatmap_days.count + 1, updated_at = NOW()`,
		userID, clock.DayOf(stoppedAt),
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить тепловую карту", err)
		return fmt.Errorf("обновление тепловой карты: %w", err)
	}

	return nil
}

// Update перезаписывает изменяемые поля записи; при replaceTags набор связок
// тегов заменяется целиком (удаление и вставка, без диффа)
func (s *Storage) Update(ctx context.Context, e *entry.TimeEntry, tagIDs []uuid.UUID, replaceTags bool) (*entry.TimeEntry, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE time_entries
				SET started_at = $1,
					stopped_at = $2,
					duration_seconds = $3,
					rating = $4,
					comment = $5,
					distractions = $6
				WHERE uuid = $7 AND user_id = $8`

	res, err := tx.Exec(ctx, query,
		e.StartedAt,
		e.StoppedAt,
		e.DurationSeconds,
		e.Rating,
		e.Comment,
		e.Distractions,
		e.UUID,
		e.UserID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить запись", err)
		return nil, fmt.Errorf("обновление записи: %w", err)
	}
	if res.RowsAffected() == 0 {
		return nil, repo.ErrNotFound
	}

	if replaceTags {
		if err := s.replaceEntryTags(ctx, tx, e, tagIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	s.warnIfSlow("update_entry", start)
	return s.GetByID(ctx, e.UserID, e.UUID)
}

func (s *Storage) replaceEntryTags(ctx context.Context, tx querier, e *entry.TimeEntry, tagIDs []uuid.UUID) error {
	if len(tagIDs) > 0 {
		ids := make([]string, len(tagIDs))
		for i, id := range tagIDs {
			ids[i] = id.String()
		}

		var owned int
		err := tx.QueryRow(ctx,
			`SELECT COUNT(DISTINCT uuid) FROM tags WHERE user_id = $1 AND uuid = ANY($2::uuid[])`,
			e.UserID, ids,
		).Scan(&owned)
		if err != nil {
			return fmt.Errorf("проверка тегов: %w", err)
		}
		if owned != len(uniqueIDs(tagIDs)) {
			return repo.ErrTagNotFound
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM entry_tags WHERE entry_uuid = $1`, e.UUID); err != nil {
		return fmt.Errorf("очистка тегов записи: %w", err)
	}

	for _, id := range uniqueIDs(tagIDs) {
		if _, err := tx.Exec(ctx,
			`INSERT INTO entry_tags (entry_uuid, tag_uuid) VALUES ($1, $2)`,
			e.UUID, id,
		); err != nil {
			return fmt.Errorf("привязка тега: %w", err)
		}
	}

	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	res := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}

// Delete жёстко удаляет запись; связки тегов уходят каскадом по внешнему ключу
func (s *Storage) Delete(ctx context.Context, userID, id uuid.UUID) error {
	start := time.Now()

	res, err := s.pool.Exec(ctx,
		`DELETE FROM time_entries WHERE uuid = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось удалить запись", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление записи: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	s.warnIfSlow("delete_entry", start)
	return nil
}

// GetActiveOlderThan возвращает давно запущенные таймеры для фонового монитора
func (s *Storage) GetActiveOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*entry.TimeEntry, error) {
	start := time.Now()

	query := `SELECT ` + entryColumns + `
				FROM time_entries
				WHERE stopped_at IS NULL AND started_at < $1
				ORDER BY started_at
				LIMIT $2`

	rows, err := s.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		logger.Error("Repository: Не удалось получить зависшие таймеры", err)
		return nil, fmt.Errorf("получение зависших таймеров: %w", err)
	}
	defer rows.Close()

	entries := []*entry.TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования записи", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	s.warnIfSlow("get_stale_entries", start)
	return entries, nil
}

// enrich подтягивает теги и краткую проекцию задачи
func (s *Storage) enrich(ctx context.Context, q querier, e *entry.TimeEntry) error {
	rows, err := q.Query(ctx,
		`SELECT t.uuid, t.user_id, t.name, t.created_at
			FROM tags t
			JOIN entry_tags et ON et.tag_uuid = t.uuid
			WHERE et.entry_uuid = $1
			ORDER BY t.name`,
		e.UUID,
	)
	if err != nil {
		return fmt.Errorf("получение тегов записи: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t tag.Tag
		if err := rows.Scan(&t.UUID, &t.UserID, &t.Name, &t.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования тега", zap.Error(err))
			continue
		}
		e.Tags = append(e.Tags, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("итерация по тегам: %w", err)
	}

	if e.TaskUUID == nil {
		return nil
	}

	var sum task.Summary
	var archivedAt *time.Time
	err = q.QueryRow(ctx,
		`SELECT uuid, name, archived_at FROM tasks WHERE uuid = $1`,
		*e.TaskUUID,
	).Scan(&sum.UUID, &sum.Name, &archivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("получение задачи записи: %w", err)
	}
	sum.Archived = archivedAt != nil
	e.Task = &sum

	return nil
}
