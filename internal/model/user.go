package model

import "time"

// Onboarding status values as stored by the onboarding workflow.
// "submitted" and "approved" are the terminal complete states.
const (
	OnboardingNotStarted = "not_started"
	OnboardingInProgress = "in_progress"
	OnboardingSubmitted  = "submitted"
	OnboardingApproved   = "approved"
	OnboardingRejected   = "rejected"

	AccountPendingClosure = "pending_closure"
	AccountClosed         = "closed"
)

// User is the gateway's view of a platform user.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email"`
	AlpacaID  string    `json:"alpaca_account_id"` // brokerage account id, empty until created
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OnboardingRecord tracks a user's KYC/questionnaire workflow state.
type OnboardingRecord struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription is the billing entitlement row synced from the payment provider.
type Subscription struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	UserID           string     `json:"user_id" gorm:"index"`
	Status           string     `json:"status"` // active / past_due / canceled
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

const SubscriptionActive = "active"

// Active reports whether the subscription currently entitles access.
func (s *Subscription) Active() bool {
	if s == nil || s.Status != SubscriptionActive {
		return false
	}
	if s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(time.Now()) {
		return false
	}
	return true
}
