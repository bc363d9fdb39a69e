package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/clera-dev/clera-gateway/internal/config"
)

type fakeOnboarding struct {
	status string
	err    error
}

func (f *fakeOnboarding) GetStatus(ctx context.Context, userID string) (string, error) {
	return f.status, f.err
}

type fakePayments struct {
	active bool
	err    error
}

func (f *fakePayments) ActivePayment(ctx context.Context, userID string) (bool, error) {
	return f.active, f.err
}

type fakeLedger struct {
	total    decimal.Decimal
	accounts int64
	err      error
}

func (f *fakeLedger) SettledIncomingTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	return f.total, f.err
}

func (f *fakeLedger) CountActiveRelationships(ctx context.Context, userID string) (int64, error) {
	return f.accounts, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Funding: config.FundingConfig{MinFundedAmount: 1, MinTransfer: 1, MaxTransfer: 50000},
	}
}

func TestFetchCallerStateHappyPath(t *testing.T) {
	svc := NewStatusService(
		&fakeOnboarding{status: "approved"},
		&fakePayments{active: true},
		&fakeLedger{total: decimal.NewFromInt(100), accounts: 1},
		nil,
		testConfig(),
	)

	state := svc.FetchCallerState(context.Background(), "user-1", true)
	require.True(t, state.Authenticated)
	require.NotNil(t, state.Onboarding)
	require.Equal(t, "approved", *state.Onboarding)
	require.NotNil(t, state.Payment)
	require.True(t, *state.Payment)
	require.NotNil(t, state.Funded)
	require.True(t, *state.Funded)
	require.NotNil(t, state.ConnectedAccounts)
	require.True(t, *state.ConnectedAccounts)
}

func TestFetchCallerStateUnauthenticatedSkipsLookups(t *testing.T) {
	svc := NewStatusService(
		&fakeOnboarding{err: errors.New("should not be called")},
		&fakePayments{err: errors.New("should not be called")},
		&fakeLedger{err: errors.New("should not be called")},
		nil,
		testConfig(),
	)

	state := svc.FetchCallerState(context.Background(), "", false)
	require.False(t, state.Authenticated)
	require.Nil(t, state.Onboarding)
	require.Nil(t, state.Payment)
	require.Nil(t, state.Funded)
	require.Nil(t, state.ConnectedAccounts)
}

func TestLookupFailureIsIndeterminateNotFalse(t *testing.T) {
	svc := NewStatusService(
		&fakeOnboarding{err: errors.New("db down")},
		&fakePayments{err: errors.New("billing down")},
		&fakeLedger{err: errors.New("ledger down")},
		nil,
		testConfig(),
	)

	state := svc.FetchCallerState(context.Background(), "user-1", true)
	require.Nil(t, state.Onboarding, "a failed lookup must surface as nil, not a status")
	require.Nil(t, state.Payment)
	require.Nil(t, state.Funded)
	require.Nil(t, state.ConnectedAccounts)
}

func TestFundedThreshold(t *testing.T) {
	cases := []struct {
		total  int64
		funded bool
	}{
		{0, false},
		{1, true},
		{100, true},
	}
	for _, tc := range cases {
		svc := NewStatusService(
			&fakeOnboarding{status: "approved"},
			&fakePayments{},
			&fakeLedger{total: decimal.NewFromInt(tc.total)},
			nil,
			testConfig(),
		)
		got := svc.Funded(context.Background(), "user-1")
		require.NotNil(t, got)
		require.Equal(t, tc.funded, *got, "settled total %d", tc.total)
	}
}

type fakeCache struct {
	values map[string]string
	sets   int
}

func (f *fakeCache) Get(ctx context.Context, userID, requirement string) (string, bool) {
	val, ok := f.values[requirement]
	return val, ok
}

func (f *fakeCache) Set(ctx context.Context, userID, requirement, value string) {
	f.values[requirement] = value
	f.sets++
}

func (f *fakeCache) Invalidate(ctx context.Context, userID string) {
	f.values = map[string]string{}
}

func TestOnboardingStatusUsesCache(t *testing.T) {
	store := &fakeOnboarding{status: "in_progress"}
	cache := &fakeCache{values: map[string]string{}}
	svc := NewStatusService(store, &fakePayments{}, &fakeLedger{}, cache, testConfig())

	first := svc.OnboardingStatus(context.Background(), "user-1")
	require.NotNil(t, first)
	require.Equal(t, "in_progress", *first)
	require.Equal(t, 1, cache.sets)

	// Store changes but TTL has not elapsed: the cached value answers.
	store.status = "approved"
	second := svc.OnboardingStatus(context.Background(), "user-1")
	require.NotNil(t, second)
	require.Equal(t, "in_progress", *second)
}
