package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"planner/internal/ai"
	"planner/internal/middleware"
	"planner/internal/model"
	"planner/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Assistant abstracts the AI service for handler tests
type Assistant interface {
	Complete(ctx context.Context, messages []ai.Message, useJSONFormat bool) (string, error)
	GenerateDescription(ctx context.Context, taskName string) (string, error)
	SuggestTasks(ctx context.Context, existing []model.Task) ([]ai.Suggestion, error)
}

type AIHandler struct {
	assistant Assistant
	taskRepo  *repository.TaskRepository
}

func NewAIHandler(assistant Assistant, taskRepo *repository.TaskRepository) *AIHandler {
	return &AIHandler{
		assistant: assistant,
		taskRepo:  taskRepo,
	}
}

// CompleteRequest представляет сырой запрос к языковой модели
type CompleteRequest struct {
	Messages      []ai.Message `json:"messages" binding:"required,min=1"`
	UseJSONFormat bool         `json:"useJsonFormat"`
}

// DescriptionRequest представляет запрос на генерацию описания задачи
type DescriptionRequest struct {
	TaskName string `json:"taskName" binding:"required"`
}

// Complete проксирует произвольный диалог к языковой модели
func (h *AIHandler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.assistant.Complete(c.Request.Context(), req.Messages, req.UseJSONFormat)
	if err != nil {
		log.Printf("ai completion failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI provider is unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": response})
}

// GenerateDescription генерирует короткое описание по названию задачи
func (h *AIHandler) GenerateDescription(c *gin.Context) {
	var req DescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	description, err := h.assistant.GenerateDescription(c.Request.Context(), req.TaskName)
	if err != nil {
		log.Printf("ai description failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI provider is unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"description": description})
}

// SuggestTasks предлагает новые задачи на основе существующих у пользователя
func (h *AIHandler) SuggestTasks(c *gin.Context) {
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

	tasks, err := h.taskRepo.GetByUserID(c.Request.Context(), authenticatedUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	suggestions, err := h.assistant.SuggestTasks(c.Request.Context(), tasks)
	if err != nil {
		// Модель иногда отвечает не тем JSON, который мы просили.
		// Пустой список лучше, чем ошибка на клиенте.
		if errors.Is(err, ai.ErrBadResponse) {
			log.Printf("ai suggestions unparseable: %v", err)
			c.JSON(http.StatusOK, gin.H{"todos": []ai.Suggestion{}})
			return
		}
		log.Printf("ai suggestions failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI provider is unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"todos": suggestions})
}
