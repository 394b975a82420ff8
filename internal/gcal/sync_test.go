package gcal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"planner/internal/gcal"
	"planner/internal/model"
	"planner/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

// fakeTokenStore держит токены в памяти вместо базы
type fakeTokenStore struct {
	tokens map[uuid.UUID]*model.GoogleToken
	saved  int
	getErr error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[uuid.UUID]*model.GoogleToken)}
}

func (s *fakeTokenStore) Get(ctx context.Context, userID uuid.UUID) (*model.GoogleToken, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	token, ok := s.tokens[userID]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	copied := *token
	return &copied, nil
}

func (s *fakeTokenStore) Save(ctx context.Context, token *model.GoogleToken) error {
	copied := *token
	s.tokens[token.UserID] = &copied
	s.saved++
	return nil
}

// fakeTaskStore записывает вызовы SetCalendarEventID
type fakeTaskStore struct {
	lastTaskID  uuid.UUID
	lastEventID *string
	calls       int
}

func (s *fakeTaskStore) SetCalendarEventID(ctx context.Context, taskID uuid.UUID, eventID *string) error {
	s.lastTaskID = taskID
	s.lastEventID = eventID
	s.calls++
	return nil
}

func validToken(userID uuid.UUID) *model.GoogleToken {
	return &model.GoogleToken{
		UserID:       userID,
		AccessToken:  "valid-access",
		RefreshToken: "valid-refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func newSyncService(t *testing.T, calendarHandler http.HandlerFunc, store *fakeTokenStore, tasks *fakeTaskStore) *gcal.SyncService {
	t.Helper()

	calendarSrv := httptest.NewServer(calendarHandler)
	t.Cleanup(calendarSrv.Close)

	// Отдельный сервер играет роль OAuth endpoint для обновления токена
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "refreshed-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(tokenSrv.Close)

	oauthConfig := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenSrv.URL},
	}

	client := gcal.NewClient(calendarSrv.URL)
	tokens := gcal.NewTokenProvider(store, oauthConfig)
	return gcal.NewSyncService(client, tokens, tasks)
}

func TestSyncService_CreateEvent_Timed(t *testing.T) {
	// Arrange
	userID := uuid.New()
	taskID := uuid.New()
	store := newFakeTokenStore()
	store.tokens[userID] = validToken(userID)
	tasks := &fakeTaskStore{}

	var gotBody map[string]interface{}
	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer valid-access", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"id": "created-1"})
	}, store, tasks)

	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	end := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	task := &model.Task{
		ID:          taskID,
		UserID:      userID,
		Name:        "Dentist",
		Description: "Checkup",
		StartDate:   &start,
		EndDate:     &end,
	}

	// Act
	err := svc.CreateEvent(context.Background(), task)

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, task.GoogleCalendarEventID)
	assert.Equal(t, "created-1", *task.GoogleCalendarEventID)
	assert.Equal(t, taskID, tasks.lastTaskID)
	assert.Equal(t, "created-1", *tasks.lastEventID)

	// Временное событие уходит с dateTime, без date
	startField := gotBody["start"].(map[string]interface{})
	assert.Equal(t, start.Format(time.RFC3339), startField["dateTime"])
	assert.Nil(t, startField["date"])
}

func TestSyncService_CreateEvent_AllDayUsesExclusiveEnd(t *testing.T) {
	// Arrange
	userID := uuid.New()
	store := newFakeTokenStore()
	store.tokens[userID] = validToken(userID)
	tasks := &fakeTaskStore{}

	var gotBody map[string]interface{}
	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"id": "created-2"})
	}, store, tasks)

	// Пара полночь-полночь означает одни сутки
	midnight := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	task := &model.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "New Year cleanup",
		StartDate: &midnight,
		EndDate:   &midnight,
	}

	// Act
	err := svc.CreateEvent(context.Background(), task)

	// Assert: date-ranges с эксклюзивной датой конца на следующий день
	assert.NoError(t, err)
	startField := gotBody["start"].(map[string]interface{})
	endField := gotBody["end"].(map[string]interface{})
	assert.Equal(t, "2024-01-01", startField["date"])
	assert.Equal(t, "2024-01-02", endField["date"])
	assert.Nil(t, startField["dateTime"])
}

func TestSyncService_CreateEvent_NoDate(t *testing.T) {
	userID := uuid.New()
	store := newFakeTokenStore()
	store.tokens[userID] = validToken(userID)
	tasks := &fakeTaskStore{}

	requests := 0
	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	}, store, tasks)

	task := &model.Task{ID: uuid.New(), UserID: userID, Name: "Undated"}

	err := svc.CreateEvent(context.Background(), task)

	// Задача без дат не должна дойти до сети
	assert.Error(t, err)
	assert.Zero(t, requests)
	assert.Zero(t, tasks.calls)
}

func TestSyncService_UpdateEvent_NotLinked(t *testing.T) {
	userID := uuid.New()
	store := newFakeTokenStore()
	store.tokens[userID] = validToken(userID)
	tasks := &fakeTaskStore{}

	requests := 0
	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	}, store, tasks)

	start := time.Now()
	task := &model.Task{ID: uuid.New(), UserID: userID, Name: "Unlinked", StartDate: &start}

	err := svc.UpdateEvent(context.Background(), task)

	assert.ErrorIs(t, err, gcal.ErrNotLinked)
	assert.Zero(t, requests)
}

func TestSyncService_DeleteEvent_RemoteAlreadyGone(t *testing.T) {
	// Arrange
	userID := uuid.New()
	taskID := uuid.New()
	store := newFakeTokenStore()
	store.tokens[userID] = validToken(userID)
	tasks := &fakeTaskStore{}

	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 404, "message": "Not Found"},
		})
	}, store, tasks)

	eventID := "vanished"
	task := &model.Task{ID: taskID, UserID: userID, Name: "Dentist", GoogleCalendarEventID: &eventID}

	// Act
	err := svc.DeleteEvent(context.Background(), task)

	// Assert: 404 считается успехом, привязка снимается
	assert.NoError(t, err)
	assert.Nil(t, task.GoogleCalendarEventID)
	assert.Equal(t, 1, tasks.calls)
	assert.Nil(t, tasks.lastEventID)
}

func TestSyncService_RefreshesTokenOnceAndRetries(t *testing.T) {
	// Arrange
	userID := uuid.New()
	store := newFakeTokenStore()
	store.tokens[userID] = validToken(userID)
	tasks := &fakeTaskStore{}

	calls := 0
	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Первый вызов отвергаем несмотря на неистекший токен
		if r.Header.Get("Authorization") == "Bearer valid-access" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"code": 401, "message": "Invalid Credentials"},
			})
			return
		}
		assert.Equal(t, "Bearer refreshed-access", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}})
	}, store, tasks)

	// Act
	events, err := svc.ListEvents(context.Background(), userID,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 2, calls)
	// Обновленный токен сохранен для следующих запросов
	assert.Equal(t, 1, store.saved)
	assert.Equal(t, "refreshed-access", store.tokens[userID].AccessToken)
}

func TestSyncService_SecondUnauthorizedMeansReauth(t *testing.T) {
	// Arrange
	userID := uuid.New()
	store := newFakeTokenStore()
	store.tokens[userID] = validToken(userID)
	tasks := &fakeTaskStore{}

	calls := 0
	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 401, "message": "Invalid Credentials"},
		})
	}, store, tasks)

	// Act
	_, err := svc.ListEvents(context.Background(), userID,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	// Assert: ровно одно обновление, вторая 401 означает повторный вход
	assert.ErrorIs(t, err, gcal.ErrNeedsReauth)
	assert.Equal(t, 2, calls)
}

func TestSyncService_NoStoredTokenMeansReauth(t *testing.T) {
	store := newFakeTokenStore()
	tasks := &fakeTaskStore{}

	requests := 0
	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	}, store, tasks)

	_, err := svc.ListEvents(context.Background(), uuid.New(),
		time.Now(), time.Now().Add(time.Hour))

	assert.ErrorIs(t, err, gcal.ErrNeedsReauth)
	assert.Zero(t, requests)
}

func TestSyncService_TokenStoreFailurePropagates(t *testing.T) {
	// Arrange: хранилище токенов падает с произвольной ошибкой
	store := newFakeTokenStore()
	store.getErr = assert.AnError
	tasks := &fakeTaskStore{}

	requests := 0
	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	}, store, tasks)

	// Act
	_, err := svc.ListEvents(context.Background(), uuid.New(),
		time.Now(), time.Now().Add(time.Hour))

	// Assert: сбой базы не выдается за протухшую авторизацию
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, gcal.ErrNeedsReauth)
	assert.Zero(t, requests)
}

func TestClient_ListEvents_ParsesBothEventKinds(t *testing.T) {
	// Arrange
	userID := uuid.New()
	store := newFakeTokenStore()
	store.tokens[userID] = validToken(userID)

	svc := newSyncService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		assert.NotEmpty(t, r.URL.Query().Get("timeMin"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{
					"id":      "e1",
					"summary": "Conference",
					"start":   map[string]string{"date": "2024-01-10"},
					"end":     map[string]string{"date": "2024-01-12"},
				},
				map[string]interface{}{
					"id":      "e2",
					"summary": "Standup",
					"start":   map[string]string{"dateTime": "2024-01-10T09:00:00Z"},
					"end":     map[string]string{"dateTime": "2024-01-10T09:15:00Z"},
				},
				map[string]interface{}{
					"id":      "broken",
					"summary": "No dates",
				},
			},
		})
	}, store, &fakeTaskStore{})

	// Act
	events, err := svc.ListEvents(context.Background(), userID,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	// Assert: событие без дат пропущено, остальные распознаны
	assert.NoError(t, err)
	assert.Len(t, events, 2)

	assert.Equal(t, "e1", events[0].ID)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, "2024-01-10", events[0].Start.Format("2006-01-02"))

	assert.Equal(t, "e2", events[1].ID)
	assert.False(t, events[1].AllDay)
	assert.Equal(t, 9, events[1].Start.UTC().Hour())
}
