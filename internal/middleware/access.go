package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/clera-dev/clera-gateway/internal/pkg/apperrors"
	"github.com/clera-dev/clera-gateway/internal/pkg/metrics"
	"github.com/clera-dev/clera-gateway/internal/routeauth"
)

const (
	// ContextStatusDegraded marks a fail-open pass: a gating status lookup
	// was indeterminate and the page must render its own error state.
	ContextStatusDegraded = "status_degraded"

	HeaderStatusDegraded = "X-Status-Degraded"
)

// StateFetcher resolves the caller's requirement statuses. Lookups run
// concurrently inside; failures surface as nil fields, never as errors.
// Implemented by service.StatusService.
type StateFetcher interface {
	FetchCallerState(ctx context.Context, userID string, authenticated bool) routeauth.CallerState
}

// AccessControl gates every request through the route rule table. Unmatched
// paths fall back to the documented default: authentication only.
func AccessControl(resolver *routeauth.Resolver, statuses StateFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		class := routeauth.ClassifyRoute(path)

		rule := resolver.Resolve(path)
		if rule == nil {
			fallback := routeauth.DefaultRule()
			rule = &fallback
		}

		userID, authenticated := UserID(c)

		var state routeauth.CallerState
		if needsStatuses(*rule) {
			state = statuses.FetchCallerState(c.Request.Context(), userID, authenticated)
		} else {
			state = routeauth.CallerState{Authenticated: authenticated}
		}

		out := routeauth.Evaluate(*rule, state, class)
		metrics.AccessDecisions.WithLabelValues(out.Decision.String(), string(out.Reason)).Inc()
		AddAuditContext(c, "access_decision", out.Decision.String())
		if out.Reason != routeauth.ReasonNone {
			AddAuditContext(c, "access_reason", string(out.Reason))
		}

		switch out.Decision {
		case routeauth.Allow:
			c.Next()

		case routeauth.DenyFailOpen:
			// Pages degrade gracefully: proceed, flagged, so the page can
			// show its own retry/error UI instead of a hard redirect.
			c.Set(ContextStatusDegraded, true)
			c.Header(HeaderStatusDegraded, "1")
			c.Next()

		case routeauth.DenyFailClosed:
			// APIs must not silently authorize on a transient failure.
			c.Error(apperrors.New(apperrors.ErrStatusUnavailable, "account status could not be verified", nil))
			c.Abort()

		default:
			deny(c, class, out.Reason, path)
		}
	}
}

// needsStatuses skips the concurrent lookups when the rule gates on
// authentication alone.
func needsStatuses(rule routeauth.RouteRule) bool {
	return rule.RequiresOnboarding || rule.RequiresFunding || rule.RequiresPayment
}

func deny(c *gin.Context, class routeauth.RouteClass, reason routeauth.DenyReason, path string) {
	if class == routeauth.ClassAPI {
		c.Error(apiDenyError(reason))
		c.Abort()
		return
	}
	c.Redirect(http.StatusFound, pageRedirect(reason, path))
	c.Abort()
}

func apiDenyError(reason routeauth.DenyReason) *apperrors.AppError {
	switch reason {
	case routeauth.ReasonAuth:
		return apperrors.New(apperrors.ErrAuthFailed, "authentication required", nil)
	case routeauth.ReasonOnboarding:
		return apperrors.New(apperrors.ErrOnboardingIncomplete, "onboarding is not complete", nil)
	case routeauth.ReasonPayment:
		return apperrors.New(apperrors.ErrPaymentRequired, "an active subscription is required", nil)
	case routeauth.ReasonFunding:
		return apperrors.New(apperrors.ErrFundingRequired, "a funded brokerage account is required", nil)
	default:
		return apperrors.New(apperrors.ErrInternal, "request denied", nil)
	}
}

func pageRedirect(reason routeauth.DenyReason, path string) string {
	switch reason {
	case routeauth.ReasonAuth:
		return "/auth/signin?next=" + url.QueryEscape(path)
	case routeauth.ReasonOnboarding:
		return "/onboarding"
	case routeauth.ReasonPayment:
		return "/checkout"
	case routeauth.ReasonFunding:
		return "/funding"
	default:
		return "/"
	}
}
