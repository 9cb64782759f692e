package heatmap

import (
	"time"

	"github.com/google/uuid"
)

// Day - предрассчитанная строка тепловой карты: число завершённых
// сессий пользователя за календарный день. Дни без завершений не хранятся.
type Day struct {
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Day       time.Time  `json:"day" db:"day"`
	Count     int        `json:"count" db:"count"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
