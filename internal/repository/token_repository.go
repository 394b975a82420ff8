package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"planner/internal/model"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Get retrieves the stored Google token for a user
func (r *TokenRepository) Get(ctx context.Context, userID uuid.UUID) (*model.GoogleToken, error) {
	var token model.GoogleToken
	result := r.db.WithContext(ctx).First(&token, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, result.Error
	}
	return &token, nil
}

// Save upserts the Google token for a user. A refresh may omit the refresh
// token, in which case the stored one is kept.
func (r *TokenRepository) Save(ctx context.Context, token *model.GoogleToken) error {
	// Используем транзакцию для предотвращения гонок
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.GoogleToken
		err := tx.Where("user_id = ?", token.UserID).First(&existing).Error

		// Если запись уже существует, обновляем токены
		if err == nil {
			existing.AccessToken = token.AccessToken
			existing.Expiry = token.Expiry
			if token.RefreshToken != "" {
				existing.RefreshToken = token.RefreshToken
			}
			return tx.Save(&existing).Error
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Если записи нет, создаем новую
		return tx.Create(token).Error
	})
}

// Delete removes the stored token for a user (sign-out / revoked access)
func (r *TokenRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.GoogleToken{}).Error
}
