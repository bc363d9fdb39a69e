package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/clera-dev/clera-gateway/internal/config"
	"github.com/clera-dev/clera-gateway/internal/pkg/logger"
	"github.com/clera-dev/clera-gateway/internal/pkg/metrics"
	"github.com/clera-dev/clera-gateway/internal/routeauth"
)

type OnboardingStore interface {
	GetStatus(ctx context.Context, userID string) (string, error)
}

// PaymentLookup answers whether the caller holds an active subscription.
type PaymentLookup interface {
	ActivePayment(ctx context.Context, userID string) (bool, error)
}

type FundingLedger interface {
	SettledIncomingTotal(ctx context.Context, userID string) (decimal.Decimal, error)
	CountActiveRelationships(ctx context.Context, userID string) (int64, error)
}

type StatusCache interface {
	Get(ctx context.Context, userID, requirement string) (string, bool)
	Set(ctx context.Context, userID, requirement, value string)
	Invalidate(ctx context.Context, userID string)
}

// StatusService answers the four independent questions the access policy
// combines: onboarding status, active payment, funding, connected accounts.
// Lookup failures are logged and surface as nil (indeterminate), never as
// errors into the policy.
type StatusService struct {
	onboarding OnboardingStore
	subs       PaymentLookup
	ledger     FundingLedger
	cache      StatusCache // optional
	minFunded  decimal.Decimal
}

func NewStatusService(onboarding OnboardingStore, payments PaymentLookup, ledger FundingLedger, cache StatusCache, cfg *config.Config) *StatusService {
	minFunded := decimal.NewFromFloat(cfg.Funding.MinFundedAmount)
	if minFunded.LessThanOrEqual(decimal.Zero) {
		minFunded = decimal.NewFromInt(1)
	}
	return &StatusService{
		onboarding: onboarding,
		subs:       payments,
		ledger:     ledger,
		cache:      cache,
		minFunded:  minFunded,
	}
}

// FetchCallerState resolves all requirement statuses concurrently. The four
// lookups answer independent questions with no ordering dependency; the
// policy only ever sees already-resolved values.
func (s *StatusService) FetchCallerState(ctx context.Context, userID string, authenticated bool) routeauth.CallerState {
	state := routeauth.CallerState{Authenticated: authenticated}
	if !authenticated || userID == "" {
		return state
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		state.Onboarding = s.OnboardingStatus(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		state.Payment = s.ActivePayment(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		state.Funded = s.Funded(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		state.ConnectedAccounts = s.HasConnectedAccounts(ctx, userID)
	}()
	wg.Wait()

	return state
}

// OnboardingStatus returns the raw status, or nil when the lookup failed.
func (s *StatusService) OnboardingStatus(ctx context.Context, userID string) *string {
	if s.cache != nil {
		if val, ok := s.cache.Get(ctx, userID, "onboarding"); ok {
			return &val
		}
	}
	status, err := s.onboarding.GetStatus(ctx, userID)
	if err != nil {
		s.lookupFailed(ctx, "onboarding", err)
		return nil
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, "onboarding", status)
	}
	return &status
}

// ActivePayment reports whether the caller holds an active subscription.
func (s *StatusService) ActivePayment(ctx context.Context, userID string) *bool {
	if s.cache != nil {
		if val, ok := s.cache.Get(ctx, userID, "payment"); ok {
			active := val == "1"
			return &active
		}
	}
	active, err := s.subs.ActivePayment(ctx, userID)
	if err != nil {
		s.lookupFailed(ctx, "payment", err)
		return nil
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, "payment", boolCacheValue(active))
	}
	return &active
}

// Funded reconciles the local transfer ledger against the minimum funded
// amount. This computes the boolean HasCompletedFunding names.
func (s *StatusService) Funded(ctx context.Context, userID string) *bool {
	if s.cache != nil {
		if val, ok := s.cache.Get(ctx, userID, "funded"); ok {
			funded := val == "1"
			return &funded
		}
	}
	total, err := s.ledger.SettledIncomingTotal(ctx, userID)
	if err != nil {
		s.lookupFailed(ctx, "funding", err)
		return nil
	}
	funded := total.GreaterThanOrEqual(s.minFunded)
	if s.cache != nil {
		s.cache.Set(ctx, userID, "funded", boolCacheValue(funded))
	}
	return &funded
}

// HasConnectedAccounts reports whether the caller has any non-canceled bank
// relationship.
func (s *StatusService) HasConnectedAccounts(ctx context.Context, userID string) *bool {
	if s.cache != nil {
		if val, ok := s.cache.Get(ctx, userID, "accounts"); ok {
			has := val == "1"
			return &has
		}
	}
	n, err := s.ledger.CountActiveRelationships(ctx, userID)
	if err != nil {
		s.lookupFailed(ctx, "accounts", err)
		return nil
	}
	has := n > 0
	if s.cache != nil {
		s.cache.Set(ctx, userID, "accounts", boolCacheValue(has))
	}
	return &has
}

func (s *StatusService) lookupFailed(ctx context.Context, requirement string, err error) {
	metrics.StatusLookupFailures.WithLabelValues(requirement).Inc()
	logger.LogError(ctx, err, "Status lookup failed", "requirement", requirement)
}

func boolCacheValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
