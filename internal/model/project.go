package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	Status      string    `gorm:"not null;default:'planning';check:status IN ('planning', 'in_progress', 'on_hold', 'completed', 'cancelled')"`
	Description string
	Color       string
	StartDate   *time.Time
	EndDate     *time.Time
	Archived    bool `gorm:"not null;default:false"`
	// System помечает служебный проект "Get Started", который нельзя удалить
	System    bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}

// Статусы проекта
const (
	ProjectStatusPlanning   = "planning"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusOnHold     = "on_hold"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// ValidProjectStatus проверяет, что статус входит в список допустимых
func ValidProjectStatus(status string) bool {
	switch status {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}
