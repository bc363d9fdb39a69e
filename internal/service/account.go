package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/clera-dev/clera-gateway/internal/broker"
	"github.com/clera-dev/clera-gateway/internal/model"
	"github.com/clera-dev/clera-gateway/internal/pkg/apperrors"
	"github.com/clera-dev/clera-gateway/internal/routeauth"
)

type AccountBrokerAPI interface {
	CreateAccount(ctx context.Context, req broker.CreateAccountRequest) (*broker.Account, error)
	GetAccount(ctx context.Context, accountID string) (*broker.Account, error)
}

type OnboardingWriter interface {
	GetStatus(ctx context.Context, userID string) (string, error)
	SetStatus(ctx context.Context, userID, status string) error
}

// AccountService creates brokerage accounts during onboarding and reports
// combined account status to the frontend.
type AccountService struct {
	db         *gorm.DB
	broker     AccountBrokerAPI
	onboarding OnboardingWriter
}

func NewAccountService(db *gorm.DB, brokerAPI AccountBrokerAPI, onboarding OnboardingWriter) *AccountService {
	return &AccountService{
		db:         db,
		broker:     brokerAPI,
		onboarding: onboarding,
	}
}

type CreateAccountRequest struct {
	Contact  map[string]interface{} `json:"contact" binding:"required"`
	Identity map[string]interface{} `json:"identity" binding:"required"`
}

// CreateBrokerAccount opens the brokerage account mid-onboarding and moves
// the onboarding record to submitted. Deliberately callable before
// onboarding is complete, since it is part of completing it.
func (s *AccountService) CreateBrokerAccount(ctx context.Context, userID string, req CreateAccountRequest) (*model.User, error) {
	status, err := s.onboarding.GetStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if routeauth.IsPendingClosure(status) || routeauth.IsAccountClosed(status) {
		if !routeauth.ShouldRestartOnboarding(status) {
			return nil, apperrors.New(apperrors.ErrAccountClosed, "account is closing and cannot re-onboard yet", nil)
		}
	}

	acct, err := s.broker.CreateAccount(ctx, broker.CreateAccountRequest{
		Contact:  req.Contact,
		Identity: req.Identity,
	})
	if err != nil {
		return nil, err
	}

	var user model.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = model.User{ID: userID, CreatedAt: time.Now()}
	} else if err != nil {
		return nil, err
	}
	user.AlpacaID = acct.ID
	user.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}

	if err := s.onboarding.SetStatus(ctx, userID, model.OnboardingSubmitted); err != nil {
		return nil, err
	}
	return &user, nil
}

// BrokerAccountID resolves the user's brokerage account id.
func (s *AccountService) BrokerAccountID(ctx context.Context, userID string) (string, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && user.AlpacaID == "") {
		return "", apperrors.New(apperrors.ErrNotFound, "no brokerage account for user", nil)
	}
	if err != nil {
		return "", err
	}
	return user.AlpacaID, nil
}

type AccountStatus struct {
	OnboardingStatus  string `json:"onboarding_status"`
	OnboardingDone    bool   `json:"onboarding_complete"`
	PendingClosure    bool   `json:"pending_closure"`
	Closed            bool   `json:"closed"`
	RestartOnboarding bool   `json:"restart_onboarding"`
	BrokerStatus      string `json:"broker_status,omitempty"`
}

// Status combines the local onboarding record with the live brokerage account
// state. Brokerage failures degrade to the local view.
func (s *AccountService) Status(ctx context.Context, userID string) (*AccountStatus, error) {
	status, err := s.onboarding.GetStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &AccountStatus{
		OnboardingStatus:  status,
		OnboardingDone:    routeauth.HasCompletedOnboarding(status),
		PendingClosure:    routeauth.IsPendingClosure(status),
		Closed:            routeauth.IsAccountClosed(status),
		RestartOnboarding: routeauth.ShouldRestartOnboarding(status),
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err == nil && user.AlpacaID != "" {
		if acct, err := s.broker.GetAccount(ctx, user.AlpacaID); err == nil {
			result.BrokerStatus = strings.ToUpper(acct.Status)
		}
	}
	return result, nil
}
