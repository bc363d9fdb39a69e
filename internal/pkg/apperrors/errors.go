package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrAuthFailed           ErrorType = "AUTH_FAILED"
	ErrOnboardingIncomplete ErrorType = "ONBOARDING_INCOMPLETE"
	ErrPaymentRequired      ErrorType = "PAYMENT_REQUIRED"
	ErrFundingRequired      ErrorType = "FUNDING_REQUIRED"
	ErrStatusUnavailable    ErrorType = "STATUS_UNAVAILABLE"
	ErrAccountClosed        ErrorType = "ACCOUNT_CLOSED"
	ErrInvalidRequest       ErrorType = "INVALID_REQUEST"
	ErrReadOnly             ErrorType = "READ_ONLY"
	ErrInternal             ErrorType = "INTERNAL_ERROR"
	ErrNotFound             ErrorType = "NOT_FOUND"
	ErrUpstream             ErrorType = "UPSTREAM_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func NewUpstream(msg string, cause error) *AppError {
	return New(ErrUpstream, msg, cause)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrOnboardingIncomplete, ErrFundingRequired, ErrAccountClosed:
		return http.StatusForbidden
	case ErrPaymentRequired:
		return http.StatusPaymentRequired
	case ErrStatusUnavailable, ErrReadOnly:
		return http.StatusServiceUnavailable
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrAuthFailed:
		return "Sign in and retry with a valid session token."
	case ErrOnboardingIncomplete:
		return "Complete account onboarding before using this endpoint."
	case ErrPaymentRequired:
		return "Activate a subscription to access this feature."
	case ErrFundingRequired:
		return "Fund your brokerage account to access this feature."
	case ErrStatusUnavailable:
		return "Account status could not be verified. Retry shortly."
	case ErrReadOnly:
		return "The platform is in maintenance mode. Retry later."
	default:
		return ""
	}
}
