package model

import (
	"time"

	"github.com/google/uuid"
)

// Subtask всегда привязана к родительской задаче и не синхронизируется с календарем
type Subtask struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	Description string
	Completed   bool `gorm:"not null;default:false"`
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Task Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}
