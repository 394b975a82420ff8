package model

import "time"

// Event is a transient calendar event fetched from the remote calendar API.
// It is never persisted locally; each calendar view fetches its own window.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
}
