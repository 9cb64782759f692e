package service

import (
	"time"

	"timeTracker/internal/clock"
	"timeTracker/internal/models/activity"
)

// ApplyProgress накапливает отслеженную длительность и пересчитывает серию
// активности. Чистая функция от (состояние, дельта, now): хранилище вызывает
// её внутри транзакции остановки, тесты - напрямую.
//
// Правила серии (считается только при положительной дельте):
//   - день уже засчитан сегодня - серия не меняется;
//   - последний засчитанный день был вчера - серия +1;
//   - иначе серия начинается заново с 1.
//
// Инвариант: current_streak <= longest_streak после любого вызова.
func ApplyProgress(act *activity.Activity, deltaSeconds int64, now time.Time) {
	if deltaSeconds < 0 {
		deltaSeconds = 0
	}
	act.DurationSeconds += deltaSeconds

	if deltaSeconds == 0 {
		return
	}

	today := clock.DayOf(now)

	if act.LastCompletedDay != nil && clock.SameDay(*act.LastCompletedDay, today) {
		// повторная сессия в тот же день серию не удваивает
		return
	}

	if act.LastCompletedDay != nil && clock.SameDay(*act.LastCompletedDay, today.AddDate(0, 0, -1)) {
		act.CurrentStreak++
	} else {
		act.CurrentStreak = 1
	}

	if act.CurrentStreak > act.LongestStreak {
		act.LongestStreak = act.CurrentStreak
	}

	act.LastCompletedDay = &today
}
