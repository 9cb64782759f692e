package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"timeTracker/internal/clock"
	"timeTracker/internal/models/activity"
	"timeTracker/internal/models/entry"
	"timeTracker/internal/models/heatmap"
	"timeTracker/internal/models/tag"
	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
)

type dayKey struct {
	userID uuid.UUID
	day    time.Time
}

// Storage держит все сущности в памяти под одним мьютексом. Остановка и
// агрегаты выполняются под блокировкой, поэтому гонки, которые в postgres
// закрывают частичный индекс и upsert, здесь невозможны по построению.
type Storage struct {
	mtx sync.RWMutex

	entries    map[uuid.UUID]*entry.TimeEntry
	activities map[uuid.UUID]*activity.Activity
	tasks      map[uuid.UUID]*task.Task
	tags       map[uuid.UUID]*tag.Tag
	entryTags  map[uuid.UUID][]uuid.UUID
	heatmap    map[dayKey]*heatmap.Day
}

func New() *Storage {
	return &Storage{
		entries:    make(map[uuid.UUID]*entry.TimeEntry),
		activities: make(map[uuid.UUID]*activity.Activity),
		tasks:      make(map[uuid.UUID]*task.Task),
		tags:       make(map[uuid.UUID]*tag.Tag),
		entryTags:  make(map[uuid.UUID][]uuid.UUID),
		heatmap:    make(map[dayKey]*heatmap.Day),
	}
}

// --- записи времени ---

func (s *Storage) Create(ctx context.Context, e *entry.TimeEntry) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, other := range s.entries {
		if other.UserID == e.UserID && other.IsActive() {
			return repo.ErrActiveEntryExists
		}
	}

	cp := *e
	s.entries[e.UUID] = &cp
	return nil
}

func (s *Storage) CreateStopped(ctx context.Context, e *entry.TimeEntry, apply activity.ProgressFunc) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.applyAggregates(e.UserID, e.ActivityUUID, *e.StoppedAt, apply); err != nil {
		return err
	}

	cp := *e
	s.entries[e.UUID] = &cp
	return nil
}

func (s *Storage) GetByID(ctx context.Context, userID, id uuid.UUID) (*entry.TimeEntry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return s.enrich(e), nil
}

func (s *Storage) GetActive(ctx context.Context, userID uuid.UUID) (*entry.TimeEntry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, e := range s.entries {
		if e.UserID == userID && e.IsActive() {
			return s.enrich(e), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Storage) List(ctx context.Context, userID uuid.UUID, f entry.Filter) ([]*entry.TimeEntry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*entry.TimeEntry{}
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if f.From != nil && e.StartedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.StartedAt.After(*f.To) {
			continue
		}
		if f.ActivityUUID != nil && e.ActivityUUID != *f.ActivityUUID {
			continue
		}
		res = append(res, s.enrich(e))
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].StartedAt.After(res[j].StartedAt)
	})
	return res, nil
}

func (s *Storage) Stop(ctx context.Context, userID, id uuid.UUID, stoppedAt time.Time, durationSeconds int64, distractions *int, apply activity.ProgressFunc) (*entry.TimeEntry, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return nil, repo.ErrNotFound
	}
	if !e.IsActive() {
		return nil, repo.ErrAlreadyStopped
	}

	if err := s.applyAggregates(userID, e.ActivityUUID, stoppedAt, apply); err != nil {
		return nil, err
	}

	e.StoppedAt = &stoppedAt
	e.DurationSeconds = durationSeconds
	if distractions != nil {
		e.Distractions = *distractions
	}
	return s.enrich(e), nil
}

func (s *Storage) applyAggregates(userID, activityID uuid.UUID, stoppedAt time.Time, apply activity.ProgressFunc) error {
	act, ok := s.activities[activityID]
	if !ok || act.UserID != userID {
		return repo.ErrNotFound
	}

	apply(act)
	now := time.Now()
	act.UpdatedAt = &now

	key := dayKey{userID: userID, day: clock.DayOf(stoppedAt)}
	if d, ok := s.heatmap[key]; ok {
		d.Count++
		d.UpdatedAt = &now
	} else {
		s.heatmap[key] = &heatmap.Day{
			UserID:    userID,
			Day:       key.day,
			Count:     1,
			CreatedAt: now,
		}
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, e *entry.TimeEntry, tagIDs []uuid.UUID, replaceTags bool) (*entry.TimeEntry, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.entries[e.UUID]
	if !ok || stored.UserID != e.UserID {
		return nil, repo.ErrNotFound
	}

	if replaceTags {
		unique := []uuid.UUID{}
		seen := map[uuid.UUID]struct{}{}
		for _, id := range tagIDs {
			t, ok := s.tags[id]
			if !ok || t.UserID != e.UserID {
				return nil, repo.ErrTagNotFound
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
		s.entryTags[e.UUID] = unique
	}

	stored.StartedAt = e.StartedAt
	stored.StoppedAt = e.StoppedAt
	stored.DurationSeconds = e.DurationSeconds
	stored.Rating = e.Rating
	stored.Comment = e.Comment
	stored.Distractions = e.Distractions

	return s.enrich(stored), nil
}

func (s *Storage) Delete(ctx context.Context, userID, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return repo.ErrNotFound
	}
	delete(s.entries, id)
	delete(s.entryTags, id)
	return nil
}

func (s *Storage) GetActiveOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*entry.TimeEntry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*entry.TimeEntry{}
	for _, e := range s.entries {
		if e.IsActive() && e.StartedAt.Before(cutoff) {
			res = append(res, s.enrich(e))
		}
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].StartedAt.Before(res[j].StartedAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// enrich возвращает копию записи с тегами и проекцией задачи;
// вызывается под уже взятым мьютексом
func (s *Storage) enrich(e *entry.TimeEntry) *entry.TimeEntry {
	cp := *e
	cp.Tags = nil
	cp.Task = nil

	for _, id := range s.entryTags[e.UUID] {
		if t, ok := s.tags[id]; ok {
			cp.Tags = append(cp.Tags, *t)
		}
	}
	sort.Slice(cp.Tags, func(i, j int) bool {
		return cp.Tags[i].Name < cp.Tags[j].Name
	})

	if e.TaskUUID != nil {
		if t, ok := s.tasks[*e.TaskUUID]; ok {
			cp.Task = t.Summary()
		}
	}
	return &cp
}

// --- активности ---

func (s *Storage) CreateActivity(ctx context.Context, a *activity.Activity) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	cp := *a
	s.activities[a.UUID] = &cp
	return nil
}

func (s *Storage) GetActivityByID(ctx context.Context, userID, id uuid.UUID) (*activity.Activity, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	a, ok := s.activities[id]
	if !ok || a.UserID != userID {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Storage) UpdateActivity(ctx context.Context, a *activity.Activity) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.activities[a.UUID]
	if !ok || stored.UserID != a.UserID {
		return repo.ErrNotFound
	}

	now := time.Now()
	a.UpdatedAt = &now
	cp := *a
	s.activities[a.UUID] = &cp
	return nil
}

func (s *Storage) ListActivities(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*activity.Activity, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*activity.Activity{}
	for _, a := range s.activities {
		if a.UserID != userID {
			continue
		}
		if !includeArchived && a.IsArchived() {
			continue
		}
		cp := *a
		res = append(res, &cp)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *Storage) DeleteActivity(ctx context.Context, userID, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	a, ok := s.activities[id]
	if !ok || a.UserID != userID {
		return repo.ErrNotFound
	}
	delete(s.activities, id)

	// каскад, который в postgres делают внешние ключи
	for tid, t := range s.tasks {
		if t.ActivityUUID == id {
			delete(s.tasks, tid)
		}
	}
	for eid, e := range s.entries {
		if e.ActivityUUID == id {
			delete(s.entries, eid)
			delete(s.entryTags, eid)
		}
	}
	return nil
}

// --- задачи ---

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	cp := *t
	s.tasks[t.UUID] = &cp
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, repo.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Storage) ListTasksByActivity(ctx context.Context, userID, activityID uuid.UUID, includeArchived bool) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, t := range s.tasks {
		if t.UserID != userID || t.ActivityUUID != activityID {
			continue
		}
		if !includeArchived && t.ArchivedAt != nil {
			continue
		}
		cp := *t
		res = append(res, &cp)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.tasks[t.UUID]
	if !ok || stored.UserID != t.UserID {
		return repo.ErrNotFound
	}

	now := time.Now()
	t.UpdatedAt = &now
	cp := *t
	s.tasks[t.UUID] = &cp
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return repo.ErrNotFound
	}
	delete(s.tasks, id)

	// в postgres ссылка из записей обнуляется через ON DELETE SET NULL
	for _, e := range s.entries {
		if e.TaskUUID != nil && *e.TaskUUID == id {
			e.TaskUUID = nil
		}
	}
	return nil
}

// --- теги ---

func (s *Storage) CreateTag(ctx context.Context, t *tag.Tag) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	cp := *t
	s.tags[t.UUID] = &cp
	return nil
}

func (s *Storage) GetTagByName(ctx context.Context, userID uuid.UUID, name string) (*tag.Tag, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, t := range s.tags {
		if t.UserID == userID && t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Storage) ListTags(ctx context.Context, userID uuid.UUID) ([]*tag.Tag, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*tag.Tag{}
	for _, t := range s.tags {
		if t.UserID == userID {
			cp := *t
			res = append(res, &cp)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		return strings.Compare(res[i].Name, res[j].Name) < 0
	})
	return res, nil
}

func (s *Storage) DeleteTag(ctx context.Context, userID, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.tags[id]
	if !ok || t.UserID != userID {
		return repo.ErrNotFound
	}
	delete(s.tags, id)

	for eid, ids := range s.entryTags {
		kept := ids[:0]
		for _, tid := range ids {
			if tid != id {
				kept = append(kept, tid)
			}
		}
		s.entryTags[eid] = kept
	}
	return nil
}

// --- тепловая карта ---

func (s *Storage) HeatmapRange(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*heatmap.Day, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*heatmap.Day{}
	for key, d := range s.heatmap {
		if key.userID != userID {
			continue
		}
		if from != nil && key.day.Before(*from) {
			continue
		}
		if to != nil && key.day.After(*to) {
			continue
		}
		cp := *d
		res = append(res, &cp)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Day.Before(res[j].Day)
	})
	return res, nil
}
