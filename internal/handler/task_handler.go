package handler

import (
	"errors"
	"net/http"
	"time"

	"planner/internal/middleware"
	"planner/internal/model"
	"planner/internal/repository"
	"planner/internal/search"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	taskRepo    *repository.TaskRepository
	projectRepo *repository.ProjectRepository
}

func NewTaskHandler(taskRepo *repository.TaskRepository, projectRepo *repository.ProjectRepository) *TaskHandler {
	return &TaskHandler{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
	}
}

// TaskRequest представляет запрос на создание или обновление задачи
type TaskRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	ProjectID   *string    `json:"project_id"`
	DueDate     *time.Time `json:"due_date"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Recurrence  *string    `json:"recurrence"`
}

// TaskResponse представляет ответ с данными задачи
type TaskResponse struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Description           string  `json:"description"`
	ProjectID             *string `json:"project_id,omitempty"`
	Completed             bool    `json:"completed"`
	DueDate               *string `json:"due_date,omitempty"`
	StartDate             *string `json:"start_date,omitempty"`
	EndDate               *string `json:"end_date,omitempty"`
	Recurrence            *string `json:"recurrence,omitempty"`
	GoogleCalendarEventID *string `json:"google_calendar_event_id,omitempty"`
	CreatedAt             string  `json:"created_at"`
}

func taskResponse(task *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:                    task.ID.String(),
		Name:                  task.Name,
		Description:           task.Description,
		Completed:             task.Completed,
		Recurrence:            task.Recurrence,
		GoogleCalendarEventID: task.GoogleCalendarEventID,
		CreatedAt:             task.CreatedAt.Format(time.RFC3339),
	}
	if task.ProjectID != nil {
		s := task.ProjectID.String()
		resp.ProjectID = &s
	}
	if task.DueDate != nil {
		s := task.DueDate.Format(time.RFC3339)
		resp.DueDate = &s
	}
	if task.StartDate != nil {
		s := task.StartDate.Format(time.RFC3339)
		resp.StartDate = &s
	}
	if task.EndDate != nil {
		s := task.EndDate.Format(time.RFC3339)
		resp.EndDate = &s
	}
	return resp
}

func validRecurrence(recurrence *string) bool {
	if recurrence == nil {
		return true
	}
	switch *recurrence {
	case "daily", "weekly", "monthly", "yearly":
		return true
	}
	return false
}

// Create создает новую задачу
func (h *TaskHandler) Create(c *gin.Context) {
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

	// Парсим запрос
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !validRecurrence(req.Recurrence) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recurrence frequency"})
		return
	}

	// Проверяем, что проект существует и принадлежит пользователю
	var projectID *uuid.UUID
	if req.ProjectID != nil {
		parsed, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
			return
		}

		project, err := h.projectRepo.GetByID(c.Request.Context(), parsed)
		if err != nil {
			if errors.Is(err, repository.ErrProjectNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
			}
			return
		}

		if project.UserID != authenticatedUserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to use this project"})
			return
		}
		projectID = &parsed
	}

	task := &model.Task{
		UserID:      authenticatedUserID,
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Recurrence:  req.Recurrence,
	}

	// Сохраняем задачу в БД
	if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, taskResponse(task))
}

// GetAll возвращает задачи пользователя с опциональным фильтром по проекту
func (h *TaskHandler) GetAll(c *gin.Context) {
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

	var tasks []model.Task
	var err error

	// Фильтр по проекту, если указан
	if projectIDStr := c.Query("project_id"); projectIDStr != "" {
		projectID, parseErr := uuid.Parse(projectIDStr)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
			return
		}

		project, projErr := h.projectRepo.GetByID(c.Request.Context(), projectID)
		if projErr != nil {
			if errors.Is(projErr, repository.ErrProjectNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
			}
			return
		}

		if project.UserID != authenticatedUserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to view this project"})
			return
		}

		tasks, err = h.taskRepo.GetByProjectID(c.Request.Context(), projectID)
	} else {
		tasks, err = h.taskRepo.GetByUserID(c.Request.Context(), authenticatedUserID)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, len(tasks))
	for i := range tasks {
		response[i] = taskResponse(&tasks[i])
	}

	c.JSON(http.StatusOK, response)
}

// GetByID получает задачу по ID
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, ok := ownedTask(c, h.taskRepo)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, taskResponse(task))
}

// Update обновляет задачу
func (h *TaskHandler) Update(c *gin.Context) {
	task, ok := ownedTask(c, h.taskRepo)
	if !ok {
		return
	}

	// Парсим запрос
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !validRecurrence(req.Recurrence) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recurrence frequency"})
		return
	}

	// Проверяем смену проекта
	if req.ProjectID != nil {
		projectID, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
			return
		}

		project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
		if err != nil {
			if errors.Is(err, repository.ErrProjectNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
			}
			return
		}

		if project.UserID != task.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to use this project"})
			return
		}
		task.ProjectID = &projectID
	} else {
		task.ProjectID = nil
	}

	task.Name = req.Name
	task.Description = req.Description
	task.DueDate = req.DueDate
	task.StartDate = req.StartDate
	task.EndDate = req.EndDate
	task.Recurrence = req.Recurrence

	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, taskResponse(task))
}

// Delete удаляет задачу вместе с подзадачами
func (h *TaskHandler) Delete(c *gin.Context) {
	task, ok := ownedTask(c, h.taskRepo)
	if !ok {
		return
	}

	if err := h.taskRepo.Delete(c.Request.Context(), task.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// Complete отмечает задачу выполненной; состояние каскадно передается подзадачам
func (h *TaskHandler) Complete(c *gin.Context) {
	h.setCompleted(c, true)
}

// Reopen снимает отметку о выполнении; состояние каскадно передается подзадачам
func (h *TaskHandler) Reopen(c *gin.Context) {
	h.setCompleted(c, false)
}

func (h *TaskHandler) setCompleted(c *gin.Context, completed bool) {
	task, ok := ownedTask(c, h.taskRepo)
	if !ok {
		return
	}

	if err := h.taskRepo.SetCompleted(c.Request.Context(), task.ID, completed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	task.Completed = completed
	c.JSON(http.StatusOK, taskResponse(task))
}

// Search выполняет поиск задач пользователя по свободному тексту
func (h *TaskHandler) Search(c *gin.Context) {
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

	query := c.Query("q")

	// Ранжируем только задачи текущего пользователя
	tasks, err := h.taskRepo.GetByUserID(c.Request.Context(), authenticatedUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	ranked := search.Rank(query, tasks)

	response := make([]TaskResponse, len(ranked))
	for i := range ranked {
		response[i] = taskResponse(&ranked[i])
	}

	c.JSON(http.StatusOK, response)
}

// ownedTask загружает задачу из URL и проверяет, что она принадлежит
// текущему пользователю
func ownedTask(c *gin.Context, taskRepo *repository.TaskRepository) (*model.Task, bool) {
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

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return nil, false
	}

	task, err := taskRepo.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return nil, false
	}

	if task.UserID != authenticatedUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this task"})
		return nil, false
	}

	return task, true
}
