package handler

import (
	"errors"
	"net/http"
	"time"

	"planner/internal/middleware"
	"planner/internal/model"
	"planner/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubtaskHandler struct {
	subtaskRepo *repository.SubtaskRepository
	taskRepo    *repository.TaskRepository
}

func NewSubtaskHandler(subtaskRepo *repository.SubtaskRepository, taskRepo *repository.TaskRepository) *SubtaskHandler {
	return &SubtaskHandler{
		subtaskRepo: subtaskRepo,
		taskRepo:    taskRepo,
	}
}

// SubtaskRequest представляет запрос на создание или обновление подзадачи
type SubtaskRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// SubtaskResponse представляет ответ с данными подзадачи
type SubtaskResponse struct {
	ID          string  `json:"id"`
	TaskID      string  `json:"task_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	DueDate     *string `json:"due_date,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func subtaskResponse(subtask *model.Subtask) SubtaskResponse {
	resp := SubtaskResponse{
		ID:          subtask.ID.String(),
		TaskID:      subtask.TaskID.String(),
		Name:        subtask.Name,
		Description: subtask.Description,
		Completed:   subtask.Completed,
		CreatedAt:   subtask.CreatedAt.Format(time.RFC3339),
	}
	if subtask.DueDate != nil {
		s := subtask.DueDate.Format(time.RFC3339)
		resp.DueDate = &s
	}
	return resp
}

// Create создает подзадачу у родительской задачи
func (h *SubtaskHandler) Create(c *gin.Context) {
	// Родительская задача должна принадлежать текущему пользователю
	task, ok := ownedTask(c, h.taskRepo)
	if !ok {
		return
	}

	// Парсим запрос
	var req SubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	subtask := &model.Subtask{
		TaskID:      task.ID,
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
	}

	if err := h.subtaskRepo.Create(c.Request.Context(), subtask); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subtask"})
		return
	}

	c.JSON(http.StatusCreated, subtaskResponse(subtask))
}

// GetByTaskID возвращает все подзадачи задачи
func (h *SubtaskHandler) GetByTaskID(c *gin.Context) {
	task, ok := ownedTask(c, h.taskRepo)
	if !ok {
		return
	}

	subtasks, err := h.subtaskRepo.GetByTaskID(c.Request.Context(), task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve subtasks"})
		return
	}

	response := make([]SubtaskResponse, len(subtasks))
	for i := range subtasks {
		response[i] = subtaskResponse(&subtasks[i])
	}

	c.JSON(http.StatusOK, response)
}

// Update обновляет подзадачу
func (h *SubtaskHandler) Update(c *gin.Context) {
	subtask, ok := h.ownedSubtask(c)
	if !ok {
		return
	}

	// Парсим запрос
	var req SubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	subtask.Name = req.Name
	subtask.Description = req.Description
	subtask.DueDate = req.DueDate

	if err := h.subtaskRepo.Update(c.Request.Context(), subtask); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subtask"})
		return
	}

	c.JSON(http.StatusOK, subtaskResponse(subtask))
}

// Delete удаляет подзадачу
func (h *SubtaskHandler) Delete(c *gin.Context) {
	subtask, ok := h.ownedSubtask(c)
	if !ok {
		return
	}

	if err := h.subtaskRepo.Delete(c.Request.Context(), subtask.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete subtask"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subtask deleted successfully"})
}

// Complete отмечает подзадачу выполненной; родительская задача не меняется
func (h *SubtaskHandler) Complete(c *gin.Context) {
	h.setCompleted(c, true)
}

// Reopen снимает отметку о выполнении с подзадачи
func (h *SubtaskHandler) Reopen(c *gin.Context) {
	h.setCompleted(c, false)
}

func (h *SubtaskHandler) setCompleted(c *gin.Context, completed bool) {
	subtask, ok := h.ownedSubtask(c)
	if !ok {
		return
	}

	if err := h.subtaskRepo.SetCompleted(c.Request.Context(), subtask.ID, completed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subtask"})
		return
	}

	subtask.Completed = completed
	c.JSON(http.StatusOK, subtaskResponse(subtask))
}

// ownedSubtask загружает подзадачу из URL и проверяет владельца через
// родительскую задачу
func (h *SubtaskHandler) ownedSubtask(c *gin.Context) (*model.Subtask, bool) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	authenticatedUserID, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return nil, false
	}

	subtaskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subtask ID format"})
		return nil, false
	}

	subtask, err := h.subtaskRepo.GetByID(c.Request.Context(), subtaskID)
	if err != nil {
		if errors.Is(err, repository.ErrSubtaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subtask not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve subtask"})
		}
		return nil, false
	}

	// Проверяем владельца через родительскую задачу
	task, err := h.taskRepo.GetByID(c.Request.Context(), subtask.TaskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve parent task"})
		return nil, false
	}

	if task.UserID != authenticatedUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this subtask"})
		return nil, false
	}

	return subtask, true
}
