package routeauth

import "github.com/clera-dev/clera-gateway/internal/model"

// Status predicates classify raw status values already fetched by a
// collaborator. They never consult external state themselves, which keeps
// them testable without a database or network.

// HasCompletedOnboarding reports whether the onboarding workflow reached a
// terminal complete state. Exact match only: partial states ("in_progress",
// "draft"), the empty string, and unrecognized values are all incomplete.
func HasCompletedOnboarding(status string) bool {
	switch status {
	case model.OnboardingSubmitted, model.OnboardingApproved:
		return true
	default:
		return false
	}
}

// HasCompletedFunding names the funding concept at the call site. The boolean
// is computed upstream by reconciling brokerage transfers against the ledger.
func HasCompletedFunding(funded bool) bool {
	return funded
}

// IsPendingClosure reports whether the brokerage account is winding down.
func IsPendingClosure(status string) bool {
	return status == model.AccountPendingClosure
}

// IsAccountClosed reports whether the brokerage account is closed.
func IsAccountClosed(status string) bool {
	return status == model.AccountClosed
}

// ShouldRestartOnboarding reports whether the user must go through onboarding
// again: a rejected application or a closed account both restart the flow.
func ShouldRestartOnboarding(status string) bool {
	switch status {
	case model.OnboardingRejected, model.AccountClosed:
		return true
	default:
		return false
	}
}
