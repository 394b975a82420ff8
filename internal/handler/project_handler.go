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

type ProjectHandler struct {
	projectRepo *repository.ProjectRepository
}

func NewProjectHandler(projectRepo *repository.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
	}
}

type ProjectRequest struct {
	Name        string     `json:"name" binding:"required"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type ProjectResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	Archived    bool    `json:"archived"`
	System      bool    `json:"system"`
	CreatedAt   string  `json:"created_at"`
}

func projectResponse(project *model.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          project.ID.String(),
		Name:        project.Name,
		Status:      project.Status,
		Description: project.Description,
		Color:       project.Color,
		Archived:    project.Archived,
		System:      project.System,
		CreatedAt:   project.CreatedAt.Format(time.RFC3339),
	}
	if project.StartDate != nil {
		s := project.StartDate.Format(time.RFC3339)
		resp.StartDate = &s
	}
	if project.EndDate != nil {
		s := project.EndDate.Format(time.RFC3339)
		resp.EndDate = &s
	}
	return resp
}

// Create creates a new project for the authenticated user
func (h *ProjectHandler) Create(c *gin.Context) {
	// Get user ID from context (set by auth middleware)
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ownerID, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return
	}

	// Parse request body
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status := req.Status
	if status == "" {
		status = model.ProjectStatusPlanning
	}
	if !model.ValidProjectStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project status"})
		return
	}

	project := &model.Project{
		UserID:      ownerID,
		Name:        req.Name,
		Status:      status,
		Description: req.Description,
		Color:       req.Color,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}

	if err := h.projectRepo.Create(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, projectResponse(project))
}

// GetAll returns all projects owned by the authenticated user
func (h *ProjectHandler) GetAll(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	ownerID, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return
	}

	projects, err := h.projectRepo.GetByUserID(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, len(projects))
	for i := range projects {
		response[i] = projectResponse(&projects[i])
	}

	c.JSON(http.StatusOK, response)
}

// GetByID returns a single project
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, projectResponse(project))
}

// Update updates a project's fields
func (h *ProjectHandler) Update(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	// Parse request body
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Status != "" && !model.ValidProjectStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project status"})
		return
	}

	project.Name = req.Name
	if req.Status != "" {
		project.Status = req.Status
	}
	project.Description = req.Description
	project.Color = req.Color
	project.StartDate = req.StartDate
	project.EndDate = req.EndDate

	if err := h.projectRepo.Update(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, projectResponse(project))
}

// Archive marks a project as archived
func (h *ProjectHandler) Archive(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	if err := h.projectRepo.SetArchived(c.Request.Context(), project.ID, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project archived successfully"})
}

// Delete removes a project. The system "Get Started" project is protected.
func (h *ProjectHandler) Delete(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	if err := h.projectRepo.Delete(c.Request.Context(), project.ID); err != nil {
		if errors.Is(err, repository.ErrSystemProject) {
			c.JSON(http.StatusForbidden, gin.H{"error": "The Get Started project cannot be deleted"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// ownedProject loads the project from the URL and checks it belongs to the
// authenticated user. On failure it writes the error response and returns
// ok=false.
func (h *ProjectHandler) ownedProject(c *gin.Context) (*model.Project, bool) {
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

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return nil, false
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return nil, false
	}

	if project.UserID != authenticatedUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this project"})
		return nil, false
	}

	return project, true
}
