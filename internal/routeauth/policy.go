package routeauth

import "strings"

// RouteClass separates page routes from API routes. The two fail differently
// on an indeterminate status lookup: pages fail open so the page can render
// its own error state, APIs fail closed so a transient backend failure never
// silently grants access.
type RouteClass int

const (
	ClassPage RouteClass = iota
	ClassAPI
)

func ClassifyRoute(path string) RouteClass {
	if strings.HasPrefix(path, "/api/") {
		return ClassAPI
	}
	return ClassPage
}

type Decision int

const (
	Allow Decision = iota
	Deny
	DenyFailOpen
	DenyFailClosed
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case DenyFailOpen:
		return "deny_fail_open"
	case DenyFailClosed:
		return "deny_fail_closed"
	default:
		return "unknown"
	}
}

// DenyReason identifies the first failed requirement, for redirect targeting
// and metrics labels.
type DenyReason string

const (
	ReasonNone              DenyReason = ""
	ReasonAuth              DenyReason = "auth"
	ReasonOnboarding        DenyReason = "onboarding"
	ReasonPayment           DenyReason = "payment"
	ReasonFunding           DenyReason = "funding"
	ReasonStatusUnavailable DenyReason = "status_unavailable"
)

// CallerState carries the caller's externally-fetched statuses. A nil pointer
// means the lookup failed or was indeterminate, never a default of true or
// false.
type CallerState struct {
	Authenticated     bool
	Onboarding        *string
	Payment           *bool
	Funded            *bool
	ConnectedAccounts *bool
}

type Outcome struct {
	Decision Decision
	Reason   DenyReason
}

var allowed = Outcome{Decision: Allow}

// Evaluate combines a resolved rule with the caller's state. Requirements are
// checked in order (auth, onboarding, payment, funding) and the first
// failure short-circuits. Every flag set on the rule must pass: a strict AND,
// never a partial check.
func Evaluate(rule RouteRule, state CallerState, class RouteClass) Outcome {
	if rule.RequiresAuth && !state.Authenticated {
		return Outcome{Decision: Deny, Reason: ReasonAuth}
	}

	if rule.RequiresOnboarding {
		// An indeterminate onboarding status collapses to incomplete: the
		// predicate only accepts exact terminal values.
		if state.Onboarding == nil || !HasCompletedOnboarding(*state.Onboarding) {
			return Outcome{Decision: Deny, Reason: ReasonOnboarding}
		}
	}

	if rule.RequiresPayment {
		switch {
		case state.Payment == nil:
			return indeterminate(class)
		case !*state.Payment:
			return Outcome{Decision: Deny, Reason: ReasonPayment}
		}
	}

	if rule.RequiresFunding {
		switch {
		case state.Funded == nil:
			return indeterminate(class)
		case !HasCompletedFunding(*state.Funded):
			return Outcome{Decision: Deny, Reason: ReasonFunding}
		}
	}

	return allowed
}

// indeterminate picks fail-open for pages and fail-closed for APIs. This
// asymmetry is a named policy decision, not two behaviors to be collapsed.
func indeterminate(class RouteClass) Outcome {
	if class == ClassAPI {
		return Outcome{Decision: DenyFailClosed, Reason: ReasonStatusUnavailable}
	}
	return Outcome{Decision: DenyFailOpen, Reason: ReasonStatusUnavailable}
}

// ReadyForPortfolio decides whether a caller may be redirected to the
// portfolio dashboard. Both conditions must hold: having linked a bank
// account alone never implies an active subscription. Evaluating only one of
// the two is exactly the bug this function exists to prevent.
func ReadyForPortfolio(hasConnectedAccounts, hasActivePayment bool) bool {
	return hasConnectedAccounts && hasActivePayment
}
