package activity

import (
	"time"

	"github.com/google/uuid"
)

type Activity struct {
	UUID             uuid.UUID  `json:"uuid" db:"uuid"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	Name             string     `json:"name" db:"name"`
	DurationSeconds  int64      `json:"duration_seconds" db:"duration_seconds"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	LastCompletedDay *time.Time `json:"last_completed_day,omitempty" db:"last_completed_day"`
	ArchivedAt       *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

func (a *Activity) IsArchived() bool {
	return a.ArchivedAt != nil
}

// ProgressFunc применяет чистое обновление прогресса/серии к активности;
// хранилище вызывает её внутри транзакции остановки
type ProgressFunc func(*Activity)
