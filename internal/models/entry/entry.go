package entry

import (
	"time"

	"timeTracker/internal/models/tag"
	"timeTracker/internal/models/task"

	"github.com/google/uuid"
)

const (
	MaxDescriptionLen = 500
	MaxCommentLen     = 1000
)

type TimeEntry struct {
	UUID            uuid.UUID  `json:"uuid" db:"uuid"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	ActivityUUID    uuid.UUID  `json:"activity_uuid" db:"activity_uuid"`
	TaskUUID        *uuid.UUID `json:"task_uuid,omitempty" db:"task_uuid"`
	Description     *string    `json:"description,omitempty" db:"description"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	StoppedAt       *time.Time `json:"stopped_at,omitempty" db:"stopped_at"`
	DurationSeconds int64      `json:"duration_seconds" db:"duration_seconds"`
	Rating          *int       `json:"rating,omitempty" db:"rating"`
	Comment         *string    `json:"comment,omitempty" db:"comment"`
	Distractions    int        `json:"distractions" db:"distractions"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`

	// заполняются при обогащении, в БД не хранятся
	Tags []tag.Tag     `json:"tags,omitempty" db:"-"`
	Task *task.Summary `json:"task,omitempty" db:"-"`
}

// IsActive - таймер ещё идёт, отметка остановки отсутствует
func (e *TimeEntry) IsActive() bool {
	return e.StoppedAt == nil
}

// Filter - условия выборки записей; nil-поля не участвуют в запросе.
// Фильтрация по владельцу обязательна и задаётся отдельным аргументом.
type Filter struct {
	From         *time.Time
	To           *time.Time
	ActivityUUID *uuid.UUID
}
