package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID         uuid.UUID  `json:"uuid" db:"uuid"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	ActivityUUID uuid.UUID  `json:"activity_uuid" db:"activity_uuid"`
	Name         string     `json:"name" db:"name"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

func (t *Task) IsArchived() bool {
	return t.ArchivedAt != nil
}

// Summary - краткая проекция задачи, которой обогащается запись времени
type Summary struct {
	UUID     uuid.UUID `json:"uuid"`
	Name     string    `json:"name"`
	Archived bool      `json:"archived"`
}

func (t *Task) Summary() *Summary {
	if t == nil {
		return nil
	}
	return &Summary{
		UUID:     t.UUID,
		Name:     t.Name,
		Archived: t.IsArchived(),
	}
}
