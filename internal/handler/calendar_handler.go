package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"planner/internal/gcal"
	"planner/internal/middleware"
	"planner/internal/model"
	"planner/internal/repository"
	"planner/internal/schedule"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CalendarSyncer is the slice of the sync service the handler needs;
// tests substitute a mock
type CalendarSyncer interface {
	CreateEvent(ctx context.Context, task *model.Task) error
	UpdateEvent(ctx context.Context, task *model.Task) error
	DeleteEvent(ctx context.Context, task *model.Task) error
	ListEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Event, error)
}

type CalendarHandler struct {
	taskRepo *repository.TaskRepository
	syncer   CalendarSyncer
}

func NewCalendarHandler(taskRepo *repository.TaskRepository, syncer CalendarSyncer) *CalendarHandler {
	return &CalendarHandler{
		taskRepo: taskRepo,
		syncer:   syncer,
	}
}

// CalendarViewResponse представляет сетку календаря за запрошенное окно
type CalendarViewResponse struct {
	Days    map[string]schedule.DayBucket `json:"days"`
	Warning string                        `json:"warning,omitempty"`
}

// View возвращает задачи и события календаря, сгруппированные по дням.
// Если удаленный календарь недоступен, отдаем только задачи с предупреждением.
func (h *CalendarHandler) View(c *gin.Context) {
	// Получаем ID текущего пользователя из контекста
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	authenticatedUserID, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return
	}

	from, err := parseWindowBound(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date"})
		return
	}
	to, err := parseWindowBound(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date"})
		return
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'to' must be after 'from'"})
		return
	}

	tasks, err := h.taskRepo.GetByDateWindow(c.Request.Context(), authenticatedUserID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := CalendarViewResponse{}

	// Сбой удаленного календаря не должен ломать отображение задач
	events, err := h.syncer.ListEvents(c.Request.Context(), authenticatedUserID, from, to)
	if err != nil {
		log.Printf("calendar fetch failed for user %s: %v", authenticatedUserID, err)
		if errors.Is(err, gcal.ErrNeedsReauth) {
			response.Warning = "Google authorization expired, calendar events are hidden"
		} else {
			response.Warning = "Calendar is temporarily unavailable"
		}
		events = nil
	}

	response.Days = schedule.MergeByDay(tasks, events)
	c.JSON(http.StatusOK, response)
}

// SyncTask отправляет задачу в удаленный календарь
func (h *CalendarHandler) SyncTask(c *gin.Context) {
	task, ok := ownedTask(c, h.taskRepo)
	if !ok {
		return
	}

	if err := h.syncer.CreateEvent(c.Request.Context(), task); err != nil {
		respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskResponse(task))
}

// UpdateSyncedTask обновляет связанное событие календаря
func (h *CalendarHandler) UpdateSyncedTask(c *gin.Context) {
	task, ok := ownedTask(c, h.taskRepo)
	if !ok {
		return
	}

	if err := h.syncer.UpdateEvent(c.Request.Context(), task); err != nil {
		respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskResponse(task))
}

// UnsyncTask удаляет событие из календаря и отвязывает задачу
func (h *CalendarHandler) UnsyncTask(c *gin.Context) {
	task, ok := ownedTask(c, h.taskRepo)
	if !ok {
		return
	}

	if err := h.syncer.DeleteEvent(c.Request.Context(), task); err != nil {
		respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskResponse(task))
}

func respondSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gcal.ErrNotLinked):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task is not linked to a calendar event"})
	case errors.Is(err, schedule.ErrNoDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task has no start or due date"})
	case errors.Is(err, gcal.ErrNeedsReauth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google authorization expired, please sign in again"})
	default:
		log.Printf("calendar sync failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// parseWindowBound принимает дату в формате RFC3339 или YYYY-MM-DD
func parseWindowBound(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", value, time.Local)
}
