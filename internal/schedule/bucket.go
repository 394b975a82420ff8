package schedule

import (
	"planner/internal/model"
)

// DayBucket holds everything rendered in one day cell of a month or week grid
type DayBucket struct {
	Tasks  []model.Task  `json:"tasks"`
	Events []model.Event `json:"events"`
}

// MergeByDay buckets tasks and remote events by their YYYY-MM-DD key and
// combines the two maps per key. The merge is identity-blind: a task that was
// pushed to the calendar and then fetched back inside the same window appears
// both as a task and as an independent event under its day key.
func MergeByDay(tasks []model.Task, events []model.Event) map[string]DayBucket {
	buckets := make(map[string]DayBucket)

	for _, task := range tasks {
		key, ok := TaskDayKey(&task)
		if !ok {
			continue
		}
		bucket := buckets[key]
		bucket.Tasks = append(bucket.Tasks, task)
		buckets[key] = bucket
	}

	for _, event := range events {
		key := DayKey(event.Start)
		bucket := buckets[key]
		bucket.Events = append(bucket.Events, event)
		buckets[key] = bucket
	}

	return buckets
}
