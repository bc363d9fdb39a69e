package routeauth

import "testing"

func TestHasCompletedOnboarding(t *testing.T) {
	complete := []string{"submitted", "approved"}
	for _, status := range complete {
		if !HasCompletedOnboarding(status) {
			t.Fatalf("expected %q to be complete", status)
		}
	}

	incomplete := []string{"in_progress", "draft", "", "not_started", "rejected", "unknown_status", "SUBMITTED"}
	for _, status := range incomplete {
		if HasCompletedOnboarding(status) {
			t.Fatalf("expected %q to be incomplete", status)
		}
	}
}

func TestHasCompletedFunding(t *testing.T) {
	if !HasCompletedFunding(true) || HasCompletedFunding(false) {
		t.Fatal("funding predicate must be an identity passthrough")
	}
}

func TestClosurePredicates(t *testing.T) {
	if !IsPendingClosure("pending_closure") || IsPendingClosure("closed") || IsPendingClosure("") {
		t.Fatal("IsPendingClosure must match pending_closure exactly")
	}
	if !IsAccountClosed("closed") || IsAccountClosed("pending_closure") || IsAccountClosed("") {
		t.Fatal("IsAccountClosed must match closed exactly")
	}
}

func TestShouldRestartOnboarding(t *testing.T) {
	for _, status := range []string{"rejected", "closed"} {
		if !ShouldRestartOnboarding(status) {
			t.Fatalf("expected %q to restart onboarding", status)
		}
	}
	for _, status := range []string{"approved", "submitted", "in_progress", ""} {
		if ShouldRestartOnboarding(status) {
			t.Fatalf("did not expect %q to restart onboarding", status)
		}
	}
}
