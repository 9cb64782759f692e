package tag

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxPerEntry - максимум тегов на одной записи времени,
// проверяется на границе валидации DTO
const MaxPerEntry = 3

type Tag struct {
	UUID      uuid.UUID `json:"uuid" db:"uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Normalize приводит имя тега к каноническому виду: обрезка пробелов и нижний регистр
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
