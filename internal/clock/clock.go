package clock

import "time"

// NowFunc подменяется в тестах для детерминированных серий и окон редактирования
type NowFunc func() time.Time

// DayOf обрезает момент времени до календарного дня по UTC
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay сравнивает два момента по календарному дню UTC
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// ISODay форматирует день как YYYY-MM-DD
func ISODay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
