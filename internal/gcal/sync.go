package gcal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"planner/internal/model"
	"planner/internal/schedule"
)

// ErrNotLinked is returned when an operation requires an existing remote
// event id and the task has none
var ErrNotLinked = errors.New("task is not linked to a calendar event")

// TaskStore is the slice of the task repository the sync layer needs
type TaskStore interface {
	SetCalendarEventID(ctx context.Context, taskID uuid.UUID, eventID *string) error
}

// SyncService pushes tasks to the remote calendar and pulls events back.
// A task's GoogleCalendarEventID is set exactly when a push succeeded;
// failures surface as errors and never touch local state.
type SyncService struct {
	client *Client
	tokens *TokenProvider
	tasks  TaskStore
}

func NewSyncService(client *Client, tokens *TokenProvider, tasks TaskStore) *SyncService {
	return &SyncService{client: client, tokens: tokens, tasks: tasks}
}

// CreateEvent pushes a task to the calendar and stores the remote event id
// on success. The task needs a resolvable start/end.
func (s *SyncService) CreateEvent(ctx context.Context, task *model.Task) error {
	body, err := buildEventBody(task)
	if err != nil {
		return err
	}

	var eventID string
	err = s.tokens.Do(ctx, task.UserID, func(accessToken string) error {
		var opErr error
		eventID, opErr = s.client.InsertEvent(ctx, accessToken, body)
		return opErr
	})
	if err != nil {
		return err
	}

	if err := s.tasks.SetCalendarEventID(ctx, task.ID, &eventID); err != nil {
		return err
	}
	task.GoogleCalendarEventID = &eventID
	return nil
}

// UpdateEvent re-derives the event body and replaces the remote event. The
// task keeps its remote id even when the update fails.
func (s *SyncService) UpdateEvent(ctx context.Context, task *model.Task) error {
	if task.GoogleCalendarEventID == nil {
		return ErrNotLinked
	}

	body, err := buildEventBody(task)
	if err != nil {
		return err
	}

	return s.tokens.Do(ctx, task.UserID, func(accessToken string) error {
		return s.client.UpdateEvent(ctx, accessToken, *task.GoogleCalendarEventID, body)
	})
}

// DeleteEvent removes the remote event and clears the stored id. A 404 from
// the API counts as success: the event is gone either way.
func (s *SyncService) DeleteEvent(ctx context.Context, task *model.Task) error {
	if task.GoogleCalendarEventID == nil {
		return ErrNotLinked
	}

	err := s.tokens.Do(ctx, task.UserID, func(accessToken string) error {
		return s.client.DeleteEvent(ctx, accessToken, *task.GoogleCalendarEventID)
	})
	if err != nil && !IsNotFound(err) {
		return err
	}

	if err := s.tasks.SetCalendarEventID(ctx, task.ID, nil); err != nil {
		return err
	}
	task.GoogleCalendarEventID = nil
	return nil
}

// ListEvents fetches the user's events inside [from, to)
func (s *SyncService) ListEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Event, error) {
	var events []model.Event
	err := s.tokens.Do(ctx, userID, func(accessToken string) error {
		var opErr error
		events, opErr = s.client.ListEvents(ctx, accessToken, from, to)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// buildEventBody converts a task into the wire event. All-day spans become
// date-only ranges with the exclusive end advanced past the last day; timed
// spans become dateTime ranges with an explicit timezone.
func buildEventBody(task *model.Task) (eventBody, error) {
	start, end, err := schedule.Span(task)
	if err != nil {
		return eventBody{}, err
	}

	body := eventBody{
		Summary:     task.Name,
		Description: task.Description,
	}

	if schedule.IsAllDay(start, end) {
		body.Start = eventDateTime{Date: schedule.DayKey(start)}
		body.End = eventDateTime{Date: schedule.DayKey(exclusiveEndDay(start, end))}
		return body, nil
	}

	tz := start.Location().String()
	body.Start = eventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: tz}
	body.End = eventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: tz}
	return body, nil
}

// exclusiveEndDay maps an all-day span end onto the API's exclusive end
// date. An end already on a later midnight is exclusive as-is; a same-day
// end (23:59:59.999 or the same midnight instant) advances by one day.
func exclusiveEndDay(start, end time.Time) time.Time {
	h, m, s := end.Clock()
	if h == 0 && m == 0 && s == 0 && end.Nanosecond() == 0 && end.After(start) {
		return end
	}
	return start.AddDate(0, 0, 1)
}
