package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"planner/internal/model"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Client is a thin HTTP client for the Google Calendar events API. All
// calls operate on the user's primary calendar and take the access token
// explicitly so the token-refresh wrapper stays in control of retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a calendar client. An empty baseURL selects the real
// Google API; tests pass an httptest server URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the calendar API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar API error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the calendar API
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the calendar API
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}

// Wire types mirror the events API. An event carries either date (all-day,
// exclusive end) or dateTime+timeZone ranges, never both.
type eventDateTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventBody struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type listResponse struct {
	Items []eventBody `json:"items"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListEvents fetches the events of the primary calendar inside [timeMin, timeMax)
func (c *Client) ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]model.Event, error) {
	q := url.Values{}
	q.Set("timeMin", timeMin.Format(time.RFC3339))
	q.Set("timeMax", timeMax.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	var resp listResponse
	err := c.do(ctx, accessToken, http.MethodGet, "/calendars/primary/events?"+q.Encode(), nil, &resp)
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		event, err := item.toEvent()
		if err != nil {
			// Пропускаем события с нечитаемыми датами вместо отказа всего списка
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// InsertEvent creates an event on the primary calendar and returns its id
func (c *Client) InsertEvent(ctx context.Context, accessToken string, body eventBody) (string, error) {
	var created eventBody
	err := c.do(ctx, accessToken, http.MethodPost, "/calendars/primary/events", &body, &created)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdateEvent replaces the full event body by id
func (c *Client) UpdateEvent(ctx context.Context, accessToken, eventID string, body eventBody) error {
	return c.do(ctx, accessToken, http.MethodPut, "/calendars/primary/events/"+url.PathEscape(eventID), &body, nil)
}

// DeleteEvent deletes an event by id. A 404 is returned as an *APIError so
// the caller can treat an already-deleted event as success.
func (c *Client) DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	return c.do(ctx, accessToken, http.MethodDelete, "/calendars/primary/events/"+url.PathEscape(eventID), nil, nil)
}

func (c *Client) do(ctx context.Context, accessToken, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Message: string(data)}
		var parsed apiErrorResponse
		if json.Unmarshal(data, &parsed) == nil && parsed.Error.Message != "" {
			apiErr.Message = parsed.Error.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// toEvent converts a wire event into the internal transient representation.
// All-day events use date-only ranges with an exclusive end date.
func (b eventBody) toEvent() (model.Event, error) {
	event := model.Event{
		ID:          b.ID,
		Summary:     b.Summary,
		Description: b.Description,
	}

	if b.Start.Date != "" {
		start, err := time.ParseInLocation("2006-01-02", b.Start.Date, time.Local)
		if err != nil {
			return model.Event{}, err
		}
		end, err := time.ParseInLocation("2006-01-02", b.End.Date, time.Local)
		if err != nil {
			return model.Event{}, err
		}
		event.Start = start
		event.End = end
		event.AllDay = true
		return event, nil
	}

	start, err := time.Parse(time.RFC3339, b.Start.DateTime)
	if err != nil {
		return model.Event{}, err
	}
	end, err := time.Parse(time.RFC3339, b.End.DateTime)
	if err != nil {
		return model.Event{}, err
	}
	event.Start = start
	event.End = end
	return event, nil
}
