package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"planner/internal/model"
)

type SubtaskRepository struct {
	db *gorm.DB
}

func NewSubtaskRepository(db *gorm.DB) *SubtaskRepository {
	return &SubtaskRepository{db: db}
}

// Create adds a new subtask to the database
func (r *SubtaskRepository) Create(ctx context.Context, subtask *model.Subtask) error {
	return r.db.WithContext(ctx).Create(subtask).Error
}

// GetByID retrieves a subtask by its ID
func (r *SubtaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subtask, error) {
	var subtask model.Subtask
	result := r.db.WithContext(ctx).First(&subtask, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSubtaskNotFound
		}
		return nil, result.Error
	}
	return &subtask, nil
}

// GetByTaskID retrieves all subtasks of a task
func (r *SubtaskRepository) GetByTaskID(ctx context.Context, taskID uuid.UUID) ([]model.Subtask, error) {
	var subtasks []model.Subtask
	result := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at").
		Find(&subtasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return subtasks, nil
}

// Update updates an existing subtask
func (r *SubtaskRepository) Update(ctx context.Context, subtask *model.Subtask) error {
	result := r.db.WithContext(ctx).Save(subtask)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubtaskNotFound
	}
	return nil
}

// SetCompleted updates the completion flag on a single subtask
func (r *SubtaskRepository) SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	result := r.db.WithContext(ctx).Model(&model.Subtask{}).
		Where("id = ?", id).
		Update("completed", completed)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubtaskNotFound
	}
	return nil
}

// Delete removes a subtask by its ID
func (r *SubtaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Subtask{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubtaskNotFound
	}
	return nil
}
