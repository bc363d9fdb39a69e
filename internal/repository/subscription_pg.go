package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/clera-dev/clera-gateway/internal/model"
)

type SubscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepo(db *gorm.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// GetActive returns the user's most recent subscription, or ErrNotFound when
// the user has never subscribed. Callers decide activeness via Active().
func (r *SubscriptionRepo) GetActive(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ActivePayment implements the payment requirement lookup. Never having
// subscribed is a determinate "no payment", not a failure.
func (r *SubscriptionRepo) ActivePayment(ctx context.Context, userID string) (bool, error) {
	sub, err := r.GetActive(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.Active(), nil
}

// Upsert stores the subscription row synced from the billing webhook.
func (r *SubscriptionRepo) Upsert(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}
