package routeauth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestEvaluateAuthRequired(t *testing.T) {
	rule := RouteRule{RequiresAuth: true}

	out := Evaluate(rule, CallerState{Authenticated: false}, ClassAPI)
	require.Equal(t, Deny, out.Decision)
	require.Equal(t, ReasonAuth, out.Reason)

	out = Evaluate(rule, CallerState{Authenticated: true}, ClassAPI)
	require.Equal(t, Allow, out.Decision)
}

func TestEvaluateOnboardingGate(t *testing.T) {
	rule := RouteRule{RequiresAuth: true, RequiresOnboarding: true}

	cases := []struct {
		name   string
		status *string
		want   Decision
	}{
		{"approved", strPtr("approved"), Allow},
		{"submitted", strPtr("submitted"), Allow},
		{"in_progress", strPtr("in_progress"), Deny},
		{"indeterminate collapses to incomplete", nil, Deny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Evaluate(rule, CallerState{Authenticated: true, Onboarding: tc.status}, ClassAPI)
			require.Equal(t, tc.want, out.Decision)
		})
	}
}

func TestEvaluatePaymentFailOpenFailClosed(t *testing.T) {
	rule := RouteRule{RequiresAuth: true, RequiresPayment: true}
	state := CallerState{Authenticated: true, Payment: nil}

	page := Evaluate(rule, state, ClassPage)
	require.Equal(t, DenyFailOpen, page.Decision)
	require.Equal(t, ReasonStatusUnavailable, page.Reason)

	api := Evaluate(rule, state, ClassAPI)
	require.Equal(t, DenyFailClosed, api.Decision)
	require.Equal(t, ReasonStatusUnavailable, api.Reason)

	state.Payment = boolPtr(false)
	require.Equal(t, Deny, Evaluate(rule, state, ClassPage).Decision)
	require.Equal(t, ReasonPayment, Evaluate(rule, state, ClassAPI).Reason)

	state.Payment = boolPtr(true)
	require.Equal(t, Allow, Evaluate(rule, state, ClassAPI).Decision)
}

func TestEvaluateFundingGate(t *testing.T) {
	rule := RouteRule{RequiresAuth: true, RequiresFunding: true}

	out := Evaluate(rule, CallerState{Authenticated: true, Funded: boolPtr(false)}, ClassAPI)
	require.Equal(t, Deny, out.Decision)
	require.Equal(t, ReasonFunding, out.Reason)

	// Indeterminate funding follows the same route-class split as payment.
	require.Equal(t, DenyFailOpen, Evaluate(rule, CallerState{Authenticated: true}, ClassPage).Decision)
	require.Equal(t, DenyFailClosed, Evaluate(rule, CallerState{Authenticated: true}, ClassAPI).Decision)

	require.Equal(t, Allow, Evaluate(rule, CallerState{Authenticated: true, Funded: boolPtr(true)}, ClassAPI).Decision)
}

func TestEvaluateStrictConjunction(t *testing.T) {
	rule := RouteRule{RequiresAuth: true, RequiresOnboarding: true, RequiresFunding: true, RequiresPayment: true}

	// Every flag must pass; satisfying a subset never allows.
	state := CallerState{
		Authenticated: true,
		Onboarding:    strPtr("approved"),
		Payment:       boolPtr(true),
		Funded:        boolPtr(false),
	}
	require.Equal(t, Deny, Evaluate(rule, state, ClassAPI).Decision)

	state.Funded = boolPtr(true)
	require.Equal(t, Allow, Evaluate(rule, state, ClassAPI).Decision)
}

func TestEvaluateShortCircuitOrder(t *testing.T) {
	rule := RouteRule{RequiresAuth: true, RequiresOnboarding: true, RequiresPayment: true}

	// Unauthenticated denies on auth even when everything downstream would
	// also fail; the reason names the first failed requirement.
	out := Evaluate(rule, CallerState{}, ClassPage)
	require.Equal(t, ReasonAuth, out.Reason)

	out = Evaluate(rule, CallerState{Authenticated: true, Onboarding: strPtr("in_progress"), Payment: boolPtr(false)}, ClassPage)
	require.Equal(t, ReasonOnboarding, out.Reason)
}

func TestReadyForPortfolioConjunction(t *testing.T) {
	cases := []struct {
		accounts bool
		payment  bool
		want     bool
	}{
		{true, true, true},
		{true, false, false},
		{false, true, false},
		{false, false, false},
	}
	for _, tc := range cases {
		if got := ReadyForPortfolio(tc.accounts, tc.payment); got != tc.want {
			t.Fatalf("ReadyForPortfolio(%v, %v) = %v, want %v", tc.accounts, tc.payment, got, tc.want)
		}
	}
}

func TestScenarioCreateAccountDuringOnboarding(t *testing.T) {
	r := NewResolver(DefaultTable())
	rule := r.Resolve("/api/broker/create-account")
	require.NotNil(t, rule)

	state := CallerState{Authenticated: true, Onboarding: strPtr("in_progress")}
	require.Equal(t, Allow, Evaluate(*rule, state, ClassifyRoute("/api/broker/create-account")).Decision)
}

func TestScenarioPortfolioBlockedPreOnboarding(t *testing.T) {
	r := NewResolver(DefaultTable())
	rule := r.Resolve("/api/portfolio/positions")
	require.NotNil(t, rule)

	state := CallerState{Authenticated: true, Onboarding: strPtr("in_progress")}
	out := Evaluate(*rule, state, ClassifyRoute("/api/portfolio/positions"))
	require.Equal(t, Deny, out.Decision)
	require.Equal(t, ReasonOnboarding, out.Reason)
}

func TestClassifyRoute(t *testing.T) {
	require.Equal(t, ClassAPI, ClassifyRoute("/api/portfolio"))
	require.Equal(t, ClassPage, ClassifyRoute("/portfolio"))
	require.Equal(t, ClassPage, ClassifyRoute(""))
}

func TestDefaultRule(t *testing.T) {
	rule := DefaultRule()
	require.True(t, rule.RequiresAuth)
	require.False(t, rule.RequiresOnboarding)
	require.False(t, rule.RequiresFunding)
	require.False(t, rule.RequiresPayment)
}
