package repository

import (
	"context"
	"errors"

	"planner/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSystemProject is returned when a protected system project is deleted
var ErrSystemProject = errors.New("system project cannot be deleted")

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create adds a new project to the database
func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetByID retrieves a project by its ID
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	result := r.db.WithContext(ctx).First(&project, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, result.Error
	}
	return &project, nil
}

// GetByUserID retrieves all projects owned by a user
func (r *ProjectRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&projects)
	if result.Error != nil {
		return nil, result.Error
	}
	return projects, nil
}

// Update updates an existing project
func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	result := r.db.WithContext(ctx).Save(project)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// SetArchived toggles the archived flag on a project
func (r *ProjectRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	result := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ?", id).
		Update("archived", archived)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete removes a project; tasks in the project keep existing without a project reference.
// System projects are protected from deletion.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project model.Project
		if err := tx.First(&project, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		if project.System {
			return ErrSystemProject
		}

		// Отвязываем задачи от проекта перед удалением
		if err := tx.Model(&model.Task{}).
			Where("project_id = ?", id).
			Update("project_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&project).Error
	})
}

// SeedGetStarted creates the protected "Get Started" project for a new user
func (r *ProjectRepository) SeedGetStarted(ctx context.Context, userID uuid.UUID) error {
	project := &model.Project{
		UserID:      userID,
		Name:        "Get Started",
		Status:      model.ProjectStatusInProgress,
		Description: "A few tasks to help you learn the ropes",
		Color:       "#4f46e5",
		System:      true,
	}
	return r.db.WithContext(ctx).Create(project).Error
}
