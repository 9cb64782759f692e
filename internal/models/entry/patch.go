package entry

import (
	"time"

	"github.com/google/uuid"
)

// Field различает три состояния поля частичного обновления:
// не передано (поле не трогаем), передан null (очистить), передано значение
type Field[T any] struct {
	present bool
	clear   bool
	value   T
}

func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

func Clear[T any]() Field[T] {
	return Field[T]{present: true, clear: true}
}

// IsPresent - поле было передано в patch (значением или null)
func (f Field[T]) IsPresent() bool {
	return f.present
}

// IsClear - передан явный null
func (f Field[T]) IsClear() bool {
	return f.present && f.clear
}

func (f Field[T]) Value() T {
	return f.value
}

// Patch - частичное обновление остановленной записи.
// StartedAt/StoppedAt и Distractions не допускают очистки,
// это проверяет сервис.
type Patch struct {
	Rating       Field[int]
	Comment      Field[string]
	Distractions Field[int]
	StartedAt    Field[time.Time]
	StoppedAt    Field[time.Time]
	TagIDs       Field[[]uuid.UUID]
}

// IsEmpty - пустой patch, обновлять нечего
func (p Patch) IsEmpty() bool {
	return !p.Rating.IsPresent() &&
		!p.Comment.IsPresent() &&
		!p.Distractions.IsPresent() &&
		!p.StartedAt.IsPresent() &&
		!p.StoppedAt.IsPresent() &&
		!p.TagIDs.IsPresent()
}
