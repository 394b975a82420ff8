package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/lib/pq"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProjectID   *uuid.UUID `gorm:"type:uuid;index"`
	Name        string     `gorm:"not null"`
	Description string
	Completed   bool `gorm:"not null;default:false"`
	DueDate     *time.Time
	StartDate   *time.Time
	EndDate     *time.Time
	// Recurrence - частота повторения задачи (daily, weekly, monthly, yearly)
	Recurrence *string
	// GoogleCalendarEventID заполнен только после успешной отправки в календарь
	GoogleCalendarEventID *string
	Embedding             pq.Float64Array `gorm:"type:float8[]"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	User    User     `gorm:"foreignKey:UserID"`
	Project *Project `gorm:"foreignKey:ProjectID"`
}
