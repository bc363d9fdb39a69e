package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clera-dev/clera-gateway/internal/model"
)

type OnboardingRepo struct {
	db *gorm.DB
}

func NewOnboardingRepo(db *gorm.DB) *OnboardingRepo {
	return &OnboardingRepo{db: db}
}

// GetStatus returns the raw onboarding status string for the user.
func (r *OnboardingRepo) GetStatus(ctx context.Context, userID string) (string, error) {
	var rec model.OnboardingRecord
	err := r.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.OnboardingNotStarted, nil
	}
	if err != nil {
		return "", err
	}
	return rec.Status, nil
}

// SetStatus upserts the user's onboarding status.
func (r *OnboardingRepo) SetStatus(ctx context.Context, userID, status string) error {
	rec := model.OnboardingRecord{
		UserID:    userID,
		Status:    status,
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&rec).Error
}
