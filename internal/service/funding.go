package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clera-dev/clera-gateway/internal/broker"
	"github.com/clera-dev/clera-gateway/internal/config"
	"github.com/clera-dev/clera-gateway/internal/model"
	"github.com/clera-dev/clera-gateway/internal/pkg/apperrors"
	"github.com/clera-dev/clera-gateway/internal/pkg/logger"
	"github.com/clera-dev/clera-gateway/internal/pkg/metrics"
)

type FundingStore interface {
	CreateRelationship(ctx context.Context, rel *model.BankRelationship) error
	ListRelationships(ctx context.Context, userID string) ([]*model.BankRelationship, error)
	CountActiveRelationships(ctx context.Context, userID string) (int64, error)
	CreateTransfer(ctx context.Context, tr *model.Transfer) error
	ListTransfers(ctx context.Context, userID string, limit int) ([]*model.Transfer, error)
	UpdateTransferStatus(ctx context.Context, alpacaID, status, reason string) error
	SettledIncomingTotal(ctx context.Context, userID string) (decimal.Decimal, error)
	ListStaleTransfers(ctx context.Context, cutoff time.Time, limit int) ([]*model.Transfer, error)
}

type BrokerAPI interface {
	CreateACHRelationship(ctx context.Context, accountID string, req broker.ACHRelationshipRequest) (*broker.ACHRelationship, error)
	CreateTransfer(ctx context.Context, accountID string, req broker.TransferRequest) (*broker.TransferResult, error)
	GetTransfers(ctx context.Context, accountID string) ([]broker.TransferResult, error)
}

type PlaidAPI interface {
	ProcessorToken(ctx context.Context, publicToken, plaidAccountID string) (string, error)
}

// FundingService owns the account-funding flows: linking bank accounts (Plaid
// processor token or manual ACH entry), initiating transfers, and reconciling
// the local ledger against brokerage events.
type FundingService struct {
	store       FundingStore
	broker      BrokerAPI
	plaid       PlaidAPI    // optional; nil disables the Plaid flow
	cache       StatusCache // optional, invalidated on writes
	minTransfer decimal.Decimal
	maxTransfer decimal.Decimal
}

func NewFundingService(store FundingStore, brokerAPI BrokerAPI, plaidAPI PlaidAPI, cache StatusCache, cfg *config.Config) *FundingService {
	return &FundingService{
		store:       store,
		broker:      brokerAPI,
		plaid:       plaidAPI,
		cache:       cache,
		minTransfer: decimal.NewFromFloat(cfg.Funding.MinTransfer),
		maxTransfer: decimal.NewFromFloat(cfg.Funding.MaxTransfer),
	}
}

type ConnectBankRequest struct {
	// Plaid flow: the Link public token plus the selected account
	PublicToken    string `json:"public_token"`
	PlaidAccountID string `json:"plaid_account_id"`
	// Manual ACH flow
	AccountOwner  string `json:"account_owner_name"`
	AccountType   string `json:"bank_account_type"`
	AccountNumber string `json:"bank_account_number"`
	RoutingNumber string `json:"bank_routing_number"`
	Nickname      string `json:"nickname"`
}

// ConnectBank creates an ACH relationship at the brokerage and records it
// locally. Exactly one of the Plaid or manual field sets must be supplied.
func (s *FundingService) ConnectBank(ctx context.Context, userID, accountID string, req ConnectBankRequest) (*model.BankRelationship, error) {
	plaid := req.PublicToken != ""
	manual := req.AccountNumber != "" && req.RoutingNumber != ""
	if plaid == manual {
		return nil, apperrors.NewInvalidRequest("provide either a plaid public token or manual bank details")
	}
	if manual && len(req.RoutingNumber) != 9 {
		return nil, apperrors.NewInvalidRequest("routing number must be 9 digits")
	}

	var processorToken string
	if plaid {
		if s.plaid == nil {
			return nil, apperrors.NewInvalidRequest("plaid bank linking is not configured")
		}
		var err error
		processorToken, err = s.plaid.ProcessorToken(ctx, req.PublicToken, req.PlaidAccountID)
		if err != nil {
			return nil, err
		}
	}

	upstream, err := s.broker.CreateACHRelationship(ctx, accountID, broker.ACHRelationshipRequest{
		ProcessorToken: processorToken,
		AccountOwner:   req.AccountOwner,
		AccountType:    req.AccountType,
		AccountNumber:  req.AccountNumber,
		RoutingNumber:  req.RoutingNumber,
		Nickname:       req.Nickname,
	})
	if err != nil {
		return nil, err
	}

	source := "manual"
	if plaid {
		source = "plaid"
	}
	last4 := upstream.Last4
	if last4 == "" && len(req.AccountNumber) >= 4 {
		last4 = req.AccountNumber[len(req.AccountNumber)-4:]
	}

	now := time.Now()
	rel := &model.BankRelationship{
		ID:        uuid.New().String(),
		UserID:    userID,
		AlpacaID:  upstream.ID,
		Nickname:  req.Nickname,
		BankName:  upstream.BankName,
		Last4:     last4,
		Source:    source,
		Status:    upstream.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateRelationship(ctx, rel); err != nil {
		return nil, fmt.Errorf("recording bank relationship: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	return rel, nil
}

type TransferRequest struct {
	RelationshipID string `json:"relationship_id" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
}

// InitiateTransfer starts an incoming ACH transfer and records it in the
// ledger as pending. The ledger row settles (or fails) via transfer events.
func (s *FundingService) InitiateTransfer(ctx context.Context, userID, accountID string, req TransferRequest) (*model.Transfer, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, apperrors.NewInvalidRequest("amount is not a valid decimal")
	}
	if amount.LessThan(s.minTransfer) {
		return nil, apperrors.NewInvalidRequest(
			fmt.Sprintf("amount %s below minimum transfer %s", amount, s.minTransfer))
	}
	if s.maxTransfer.GreaterThan(decimal.Zero) && amount.GreaterThan(s.maxTransfer) {
		return nil, apperrors.NewInvalidRequest(
			fmt.Sprintf("amount %s exceeds maximum transfer %s", amount, s.maxTransfer))
	}

	result, err := s.broker.CreateTransfer(ctx, accountID, broker.TransferRequest{
		RelationshipID: req.RelationshipID,
		Amount:         amount.StringFixed(2),
		Direction:      model.TransferIncoming,
	})
	if err != nil {
		metrics.TransfersTotal.WithLabelValues("upstream_error", model.TransferIncoming).Inc()
		return nil, err
	}

	now := time.Now()
	tr := &model.Transfer{
		ID:             uuid.New().String(),
		UserID:         userID,
		AccountID:      accountID,
		AlpacaID:       result.ID,
		RelationshipID: req.RelationshipID,
		Direction:      model.TransferIncoming,
		Amount:         amount,
		Status:         result.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if tr.Status == "" {
		tr.Status = model.TransferQueued
	}
	if err := s.store.CreateTransfer(ctx, tr); err != nil {
		return nil, fmt.Errorf("recording transfer: %w", err)
	}

	metrics.TransfersTotal.WithLabelValues(tr.Status, tr.Direction).Inc()
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	return tr, nil
}

func (s *FundingService) ListTransfers(ctx context.Context, userID string, limit int) ([]*model.Transfer, error) {
	return s.store.ListTransfers(ctx, userID, limit)
}

func (s *FundingService) ListRelationships(ctx context.Context, userID string) ([]*model.BankRelationship, error) {
	return s.store.ListRelationships(ctx, userID)
}

// HandleTransferEvent reconciles one brokerage transfer event into the ledger.
// Wired as the EventStream handler.
func (s *FundingService) HandleTransferEvent(event broker.TransferEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.store.UpdateTransferStatus(ctx, event.TransferID, event.Status, event.Reason)
	if err != nil {
		logger.Error("Failed to reconcile transfer event",
			"transfer_id", event.TransferID, "status", event.Status, "error", err)
		return
	}
	metrics.TransfersTotal.WithLabelValues(event.Status, "event").Inc()
	logger.Info("Transfer reconciled", "transfer_id", event.TransferID, "status", event.Status)
}

// ReconcileStale sweeps non-terminal ledger rows whose last update is older
// than maxAge and re-queries the brokerage for their current status. Covers
// events missed while the stream was disconnected. Returns the number of rows
// updated.
func (s *FundingService) ReconcileStale(ctx context.Context, maxAge time.Duration) (int, error) {
	stale, err := s.store.ListStaleTransfers(ctx, time.Now().Add(-maxAge), 100)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	// One brokerage call per account, not per transfer.
	byAccount := make(map[string][]*model.Transfer)
	for _, tr := range stale {
		if tr.AccountID == "" {
			continue
		}
		byAccount[tr.AccountID] = append(byAccount[tr.AccountID], tr)
	}

	updated := 0
	for accountID, transfers := range byAccount {
		upstream, err := s.broker.GetTransfers(ctx, accountID)
		if err != nil {
			logger.Warn("Reconcile sweep skipped account", "account_id", accountID, "error", err)
			continue
		}
		byAlpacaID := make(map[string]broker.TransferResult, len(upstream))
		for _, result := range upstream {
			byAlpacaID[result.ID] = result
		}
		for _, tr := range transfers {
			result, ok := byAlpacaID[tr.AlpacaID]
			if !ok || result.Status == tr.Status {
				continue
			}
			if err := s.store.UpdateTransferStatus(ctx, tr.AlpacaID, result.Status, ""); err != nil {
				logger.Error("Reconcile update failed", "transfer_id", tr.AlpacaID, "error", err)
				continue
			}
			metrics.TransfersTotal.WithLabelValues(result.Status, "reconcile").Inc()
			updated++
		}
	}

	logger.Info("Reconcile sweep finished", "stale", len(stale), "updated", updated)
	return updated, nil
}
