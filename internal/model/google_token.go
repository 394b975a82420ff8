package model

import (
	"time"

	"github.com/google/uuid"
)

// GoogleToken хранит OAuth-токены пользователя для Google Calendar
type GoogleToken struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	AccessToken  string    `gorm:"not null"`
	RefreshToken string    `gorm:"not null"`
	Expiry       time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time

	User User `gorm:"foreignKey:UserID"`
}

// Expired сообщает, истек ли access token (с небольшим запасом)
func (t *GoogleToken) Expired() bool {
	return time.Now().After(t.Expiry.Add(-30 * time.Second))
}
