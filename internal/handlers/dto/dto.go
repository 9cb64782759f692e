package dto

import (
	"encoding/json"
	"time"

	"timeTracker/internal/models/activity"
	"timeTracker/internal/models/entry"
	"timeTracker/internal/models/heatmap"
	"timeTracker/internal/models/tag"
	"timeTracker/internal/models/task"

	"github.com/google/uuid"
)

// Optional различает отсутствующее поле, явный null и значение.
// Обычный указатель склеивает первые два случая, а для PATCH они
// означают разное: "не трогать" и "сбросить".
type Optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func fieldOf[T any](o Optional[T]) entry.Field[T] {
	switch {
	case !o.Present:
		return entry.Field[T]{}
	case o.Null:
		return entry.Clear[T]()
	default:
		return entry.Set(o.Value)
	}
}

type StartEntryRequest struct {
	ActivityID  uuid.UUID  `json:"activity_id" validate:"required"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
}

type StopEntryRequest struct {
	Distractions *int `json:"distractions,omitempty" validate:"omitempty,min=0"`
}

type CreateManualEntryRequest struct {
	ActivityID  uuid.UUID  `json:"activity_id" validate:"required"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	StartedAt   time.Time  `json:"started_at" validate:"required"`
	StoppedAt   time.Time  `json:"stopped_at" validate:"required"`
}

type UpdateEntryRequest struct {
	Rating       Optional[int]         `json:"rating"`
	Comment      Optional[string]      `json:"comment"`
	Distractions Optional[int]         `json:"distractions"`
	StartedAt    Optional[time.Time]   `json:"started_at"`
	StoppedAt    Optional[time.Time]   `json:"stopped_at"`
	TagIDs       Optional[[]uuid.UUID] `json:"tag_ids"`
}

// Validate проверяет границы значений; семантику null-против-отсутствия
// проверяет сервис, потому что она зависит от состояния записи
func (r *UpdateEntryRequest) Validate() (field, reason string, ok bool) {
	if r.Rating.Present && !r.Rating.Null && (r.Rating.Value < 1 || r.Rating.Value > 5) {
		return "rating", "оценка должна быть от 1 до 5", false
	}
	if r.Comment.Present && !r.Comment.Null && len(r.Comment.Value) > entry.MaxCommentLen {
		return "comment", "комментарий слишком длинный", false
	}
	if r.Distractions.Present && !r.Distractions.Null && r.Distractions.Value < 0 {
		return "distractions", "число отвлечений не может быть отрицательным", false
	}
	if r.TagIDs.Present && !r.TagIDs.Null && len(r.TagIDs.Value) > tag.MaxPerEntry {
		return "tag_ids", "слишком много тегов на одной записи", false
	}
	return "", "", true
}

func (r *UpdateEntryRequest) Patch() entry.Patch {
	return entry.Patch{
		Rating:       fieldOf(r.Rating),
		Comment:      fieldOf(r.Comment),
		Distractions: fieldOf(r.Distractions),
		StartedAt:    fieldOf(r.StartedAt),
		StoppedAt:    fieldOf(r.StoppedAt),
		TagIDs:       fieldOf(r.TagIDs),
	}
}

type CreateActivityRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type RenameActivityRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type CreateTaskRequest struct {
	ActivityID uuid.UUID `json:"activity_id" validate:"required"`
	Name       string    `json:"name" validate:"required,max=200"`
}

type RenameTaskRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type CreateTagRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type TagResponse struct {
	UUID uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func FromTag(t *tag.Tag) TagResponse {
	return TagResponse{UUID: t.UUID, Name: t.Name}
}

func FromTagList(tags []*tag.Tag) []TagResponse {
	result := make([]TagResponse, len(tags))
	for i, t := range tags {
		result[i] = FromTag(t)
	}
	return result
}

type TaskSummaryResponse struct {
	UUID     uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Archived bool      `json:"archived"`
}

type EntryResponse struct {
	UUID            uuid.UUID            `json:"id"`
	ActivityID      uuid.UUID            `json:"activity_id"`
	Task            *TaskSummaryResponse `json:"task,omitempty"`
	Description     *string              `json:"description,omitempty"`
	StartedAt       time.Time            `json:"started_at"`
	StoppedAt       *time.Time           `json:"stopped_at,omitempty"`
	DurationSeconds int64                `json:"duration_seconds"`
	Rating          *int                 `json:"rating,omitempty"`
	Comment         *string              `json:"comment,omitempty"`
	Distractions    int                  `json:"distractions"`
	Tags            []TagResponse        `json:"tags"`
	Active          bool                 `json:"active"`
	CreatedAt       time.Time            `json:"created_at"`
}

func FromEntry(e *entry.TimeEntry) EntryResponse {
	resp := EntryResponse{
		UUID:            e.UUID,
		ActivityID:      e.ActivityUUID,
		Description:     e.Description,
		StartedAt:       e.StartedAt,
		StoppedAt:       e.StoppedAt,
		DurationSeconds: e.DurationSeconds,
		Rating:          e.Rating,
		Comment:         e.Comment,
		Distractions:    e.Distractions,
		Tags:            []TagResponse{},
		Active:          e.IsActive(),
		CreatedAt:       e.CreatedAt,
	}
	for _, t := range e.Tags {
		resp.Tags = append(resp.Tags, TagResponse{UUID: t.UUID, Name: t.Name})
	}
	if e.Task != nil {
		resp.Task = &TaskSummaryResponse{
			UUID:     e.Task.UUID,
			Name:     e.Task.Name,
			Archived: e.Task.Archived,
		}
	}
	return resp
}

func FromEntryList(entries []*entry.TimeEntry) []EntryResponse {
	result := make([]EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = FromEntry(e)
	}
	return result
}

type ActivityResponse struct {
	UUID             uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	DurationSeconds  int64      `json:"duration_seconds"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastCompletedDay *string    `json:"last_completed_day,omitempty"`
	Archived         bool       `json:"archived"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

func FromActivity(a *activity.Activity) ActivityResponse {
	resp := ActivityResponse{
		UUID:            a.UUID,
		Name:            a.Name,
		DurationSeconds: a.DurationSeconds,
		CurrentStreak:   a.CurrentStreak,
		LongestStreak:   a.LongestStreak,
		Archived:        a.IsArchived(),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if a.LastCompletedDay != nil {
		day := a.LastCompletedDay.Format("2006-01-02")
		resp.LastCompletedDay = &day
	}
	return resp
}

func FromActivityList(activities []*activity.Activity) []ActivityResponse {
	result := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		result[i] = FromActivity(a)
	}
	return result
}

type TaskResponse struct {
	UUID       uuid.UUID  `json:"id"`
	ActivityID uuid.UUID  `json:"activity_id"`
	Name       string     `json:"name"`
	Archived   bool       `json:"archived"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		UUID:       t.UUID,
		ActivityID: t.ActivityUUID,
		Name:       t.Name,
		Archived:   t.ArchivedAt != nil,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type HeatmapDayResponse struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

func FromHeatmap(days []*heatmap.Day) []HeatmapDayResponse {
	result := make([]HeatmapDayResponse, len(days))
	for i, d := range days {
		result[i] = HeatmapDayResponse{
			Day:   d.Day.Format("2006-01-02"),
			Count: d.Count,
		}
	}
	return result
}
