package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clera-dev/clera-gateway/internal/model"
)

type FundingRepo struct {
	db *gorm.DB
}

func NewFundingRepo(db *gorm.DB) *FundingRepo {
	return &FundingRepo{db: db}
}

func (r *FundingRepo) CreateRelationship(ctx context.Context, rel *model.BankRelationship) error {
	return r.db.WithContext(ctx).Create(rel).Error
}

func (r *FundingRepo) ListRelationships(ctx context.Context, userID string) ([]*model.BankRelationship, error) {
	var rels []*model.BankRelationship
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rels).Error
	return rels, err
}

func (r *FundingRepo) CountActiveRelationships(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.BankRelationship{}).
		Where("user_id = ? AND status <> ?", userID, "CANCELED").
		Count(&n).Error
	return n, err
}

func (r *FundingRepo) CreateTransfer(ctx context.Context, tr *model.Transfer) error {
	return r.db.WithContext(ctx).Create(tr).Error
}

func (r *FundingRepo) ListTransfers(ctx context.Context, userID string, limit int) ([]*model.Transfer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var transfers []*model.Transfer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transfers).Error
	return transfers, err
}

// UpdateTransferStatus reconciles a ledger row against a brokerage event,
// keyed by the brokerage-side transfer id.
func (r *FundingRepo) UpdateTransferStatus(ctx context.Context, alpacaID, status, reason string) error {
	res := r.db.WithContext(ctx).Model(&model.Transfer{}).
		Where("alpaca_id = ?", alpacaID).
		Updates(map[string]interface{}{
			"status":     status,
			"reason":     reason,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SettledIncomingTotal sums settled incoming transfers for the user. This is
// the ledger side of the funding requirement.
func (r *FundingRepo) SettledIncomingTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	var transfers []*model.Transfer
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND direction = ? AND status IN ?",
			userID, model.TransferIncoming,
			[]string{model.TransferSettled, model.TransferComplete}).
		Find(&transfers).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, tr := range transfers {
		total = total.Add(tr.Amount)
	}
	return total, nil
}

// ListStaleTransfers returns non-terminal transfers last touched before the
// cutoff, for the reconcile cron.
func (r *FundingRepo) ListStaleTransfers(ctx context.Context, cutoff time.Time, limit int) ([]*model.Transfer, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var transfers []*model.Transfer
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]string{model.TransferQueued, model.TransferPending}, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&transfers).Error
	return transfers, err
}

func (r *FundingRepo) GetTransfer(ctx context.Context, id string) (*model.Transfer, error) {
	var tr model.Transfer
	err := r.db.WithContext(ctx).First(&tr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tr, nil
}
