package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/clera-dev/clera-gateway/internal/broker"
	"github.com/clera-dev/clera-gateway/internal/model"
	"github.com/clera-dev/clera-gateway/internal/pkg/apperrors"
)

type fakeStore struct {
	relationships []*model.BankRelationship
	transfers     []*model.Transfer
	updated       map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{updated: map[string]string{}}
}

func (f *fakeStore) CreateRelationship(ctx context.Context, rel *model.BankRelationship) error {
	f.relationships = append(f.relationships, rel)
	return nil
}

func (f *fakeStore) ListRelationships(ctx context.Context, userID string) ([]*model.BankRelationship, error) {
	return f.relationships, nil
}

func (f *fakeStore) CountActiveRelationships(ctx context.Context, userID string) (int64, error) {
	return int64(len(f.relationships)), nil
}

func (f *fakeStore) CreateTransfer(ctx context.Context, tr *model.Transfer) error {
	f.transfers = append(f.transfers, tr)
	return nil
}

func (f *fakeStore) ListTransfers(ctx context.Context, userID string, limit int) ([]*model.Transfer, error) {
	return f.transfers, nil
}

func (f *fakeStore) UpdateTransferStatus(ctx context.Context, alpacaID, status, reason string) error {
	f.updated[alpacaID] = status
	return nil
}

func (f *fakeStore) SettledIncomingTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tr := range f.transfers {
		if tr.Settled() && tr.Direction == model.TransferIncoming {
			total = total.Add(tr.Amount)
		}
	}
	return total, nil
}

func (f *fakeStore) ListStaleTransfers(ctx context.Context, cutoff time.Time, limit int) ([]*model.Transfer, error) {
	var stale []*model.Transfer
	for _, tr := range f.transfers {
		if (tr.Status == model.TransferQueued || tr.Status == model.TransferPending) && tr.UpdatedAt.Before(cutoff) {
			stale = append(stale, tr)
		}
	}
	return stale, nil
}

type fakeBroker struct {
	lastTransfer broker.TransferRequest
	lastACH      broker.ACHRelationshipRequest
	upstream     []broker.TransferResult
}

func (f *fakeBroker) CreateACHRelationship(ctx context.Context, accountID string, req broker.ACHRelationshipRequest) (*broker.ACHRelationship, error) {
	f.lastACH = req
	return &broker.ACHRelationship{ID: "ach-1", Status: "QUEUED", BankName: "Test Bank", Last4: "6789"}, nil
}

func (f *fakeBroker) CreateTransfer(ctx context.Context, accountID string, req broker.TransferRequest) (*broker.TransferResult, error) {
	f.lastTransfer = req
	return &broker.TransferResult{ID: "tr-1", Status: model.TransferQueued, Amount: req.Amount, Direction: req.Direction}, nil
}

func (f *fakeBroker) GetTransfers(ctx context.Context, accountID string) ([]broker.TransferResult, error) {
	return f.upstream, nil
}

type fakePlaid struct{ token string }

func (f *fakePlaid) ProcessorToken(ctx context.Context, publicToken, plaidAccountID string) (string, error) {
	return f.token, nil
}

func TestInitiateTransferValidation(t *testing.T) {
	svc := NewFundingService(newFakeStore(), &fakeBroker{}, nil, nil, testConfig())

	cases := []struct {
		name   string
		amount string
	}{
		{"not a number", "ten dollars"},
		{"below minimum", "0.50"},
		{"above maximum", "100000"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.InitiateTransfer(context.Background(), "user-1", "acct-1", TransferRequest{
				RelationshipID: "ach-1",
				Amount:         tc.amount,
			})
			require.Error(t, err)
			appErr, ok := err.(*apperrors.AppError)
			require.True(t, ok)
			require.Equal(t, apperrors.ErrInvalidRequest, appErr.Type)
		})
	}
}

func TestInitiateTransferRecordsLedgerRow(t *testing.T) {
	store := newFakeStore()
	upstream := &fakeBroker{}
	svc := NewFundingService(store, upstream, nil, nil, testConfig())

	tr, err := svc.InitiateTransfer(context.Background(), "user-1", "acct-1", TransferRequest{
		RelationshipID: "ach-1",
		Amount:         "250.5",
	})
	require.NoError(t, err)
	require.Equal(t, "tr-1", tr.AlpacaID)
	require.Equal(t, model.TransferIncoming, tr.Direction)
	require.Equal(t, "250.50", upstream.lastTransfer.Amount)
	require.Len(t, store.transfers, 1)
}

func TestConnectBankExclusiveFlows(t *testing.T) {
	svc := NewFundingService(newFakeStore(), &fakeBroker{}, &fakePlaid{token: "processor-x"}, nil, testConfig())

	// Neither flow supplied
	_, err := svc.ConnectBank(context.Background(), "user-1", "acct-1", ConnectBankRequest{})
	require.Error(t, err)

	// Both flows supplied
	_, err = svc.ConnectBank(context.Background(), "user-1", "acct-1", ConnectBankRequest{
		PublicToken:   "public-x",
		AccountNumber: "123456789",
		RoutingNumber: "021000021",
	})
	require.Error(t, err)
}

func TestConnectBankPlaidFlow(t *testing.T) {
	store := newFakeStore()
	upstream := &fakeBroker{}
	svc := NewFundingService(store, upstream, &fakePlaid{token: "processor-x"}, nil, testConfig())

	rel, err := svc.ConnectBank(context.Background(), "user-1", "acct-1", ConnectBankRequest{
		PublicToken:    "public-x",
		PlaidAccountID: "plaid-acct",
	})
	require.NoError(t, err)
	require.Equal(t, "plaid", rel.Source)
	require.Equal(t, "processor-x", upstream.lastACH.ProcessorToken)
	require.Len(t, store.relationships, 1)
}

func TestConnectBankManualFlow(t *testing.T) {
	store := newFakeStore()
	svc := NewFundingService(store, &fakeBroker{}, nil, nil, testConfig())

	rel, err := svc.ConnectBank(context.Background(), "user-1", "acct-1", ConnectBankRequest{
		AccountOwner:  "Jane Doe",
		AccountType:   "CHECKING",
		AccountNumber: "000123456789",
		RoutingNumber: "021000021",
	})
	require.NoError(t, err)
	require.Equal(t, "manual", rel.Source)

	// Bad routing number
	_, err = svc.ConnectBank(context.Background(), "user-1", "acct-1", ConnectBankRequest{
		AccountNumber: "000123456789",
		RoutingNumber: "123",
	})
	require.Error(t, err)
}

func TestHandleTransferEventReconcilesLedger(t *testing.T) {
	store := newFakeStore()
	svc := NewFundingService(store, &fakeBroker{}, nil, nil, testConfig())

	svc.HandleTransferEvent(broker.TransferEvent{
		TransferID: "tr-1",
		Status:     model.TransferSettled,
	})
	require.Equal(t, model.TransferSettled, store.updated["tr-1"])
}

func TestReconcileStaleSweepsMissedEvents(t *testing.T) {
	store := newFakeStore()
	store.transfers = []*model.Transfer{
		{ID: "local-1", AccountID: "acct-1", AlpacaID: "tr-1", Status: model.TransferPending, UpdatedAt: time.Now().Add(-2 * time.Hour)},
		{ID: "local-2", AccountID: "acct-1", AlpacaID: "tr-2", Status: model.TransferPending, UpdatedAt: time.Now().Add(-2 * time.Hour)},
		{ID: "local-3", AccountID: "acct-1", AlpacaID: "tr-3", Status: model.TransferSettled, UpdatedAt: time.Now().Add(-2 * time.Hour)},
	}
	upstream := &fakeBroker{upstream: []broker.TransferResult{
		{ID: "tr-1", Status: model.TransferComplete},
		{ID: "tr-2", Status: model.TransferPending}, // unchanged, no write
	}}
	svc := NewFundingService(store, upstream, nil, nil, testConfig())

	updated, err := svc.ReconcileStale(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Equal(t, model.TransferComplete, store.updated["tr-1"])
	_, touched := store.updated["tr-2"]
	require.False(t, touched)
}
