package schedule

import (
	"errors"
	"time"

	"planner/internal/model"
)

// ErrNoDate is returned when a task has neither a start nor a due date
var ErrNoDate = errors.New("task has no start or due date")

// DefaultDuration is the span given to single-point timestamps before
// classification and sync
const DefaultDuration = time.Hour

// Span resolves the display time range of a task. A task with only a due
// date spans one hour from it, as does an explicit start without an end.
// An explicit end equal to the start is kept as a point so that a
// midnight-to-midnight pair still classifies as all-day.
func Span(task *model.Task) (start, end time.Time, err error) {
	switch {
	case task.StartDate != nil:
		start = *task.StartDate
		if task.EndDate != nil {
			end = *task.EndDate
		} else {
			// Точечная метка времени расширяется до часа
			end = start.Add(DefaultDuration)
		}
	case task.DueDate != nil:
		start = *task.DueDate
		end = start.Add(DefaultDuration)
	default:
		return time.Time{}, time.Time{}, ErrNoDate
	}
	return start, end, nil
}

// IsAllDay classifies a time range as an all-day event: the start falls
// exactly on local midnight and the end on 23:59:59.999 of the same day or
// on a later midnight (same-instant midnight pairs count as a one-day
// all-day event). Anything else is a timed event.
func IsAllDay(start, end time.Time) bool {
	if !isMidnight(start) || end.Before(start) {
		return false
	}

	if isMidnight(end) {
		return true
	}

	h, m, s := end.Clock()
	if h != 23 || m != 59 || s != 59 || end.Nanosecond() < 999000000 {
		return false
	}
	return end.Year() == start.Year() && end.YearDay() == start.YearDay()
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// DayKey formats a timestamp as the local-time YYYY-MM-DD bucket key
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// TaskDayKey returns the bucket key of a task (startDate falling back to
// dueDate) and false when the task has no date at all
func TaskDayKey(task *model.Task) (string, bool) {
	if task.StartDate != nil {
		return DayKey(*task.StartDate), true
	}
	if task.DueDate != nil {
		return DayKey(*task.DueDate), true
	}
	return "", false
}
