package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clera-dev/clera-gateway/internal/middleware"
	"github.com/clera-dev/clera-gateway/internal/model"
	"github.com/clera-dev/clera-gateway/internal/pkg/apperrors"
	"github.com/clera-dev/clera-gateway/internal/service"
)

type SubscriptionSyncer interface {
	Upsert(ctx context.Context, sub *model.Subscription) error
}

// SystemHandler serves the machine-to-machine routes: billing webhooks and the
// reconcile cron. Both sit behind the system-key middleware.
type SystemHandler struct {
	subs    SubscriptionSyncer
	funding *service.FundingService
	cache   service.StatusCache // optional
}

func NewSystemHandler(subs SubscriptionSyncer, funding *service.FundingService, cache service.StatusCache) *SystemHandler {
	return &SystemHandler{subs: subs, funding: funding, cache: cache}
}

// stripeEvent is the slice of the Stripe webhook payload the gateway reads.
type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string            `json:"id"`
			Status           string            `json:"status"`
			CurrentPeriodEnd int64             `json:"current_period_end"`
			Metadata         map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// StripeWebhook syncs subscription lifecycle events into the local billing
// table the payment requirement reads from.
func (h *SystemHandler) StripeWebhook(c *gin.Context) {
	var event stripeEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	switch event.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
	default:
		// Unhandled event types are acknowledged so Stripe stops retrying.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	userID := event.Data.Object.Metadata["user_id"]
	if userID == "" || event.Data.Object.ID == "" {
		c.Error(apperrors.NewInvalidRequest("subscription event missing user metadata"))
		return
	}

	status := event.Data.Object.Status
	if event.Type == "customer.subscription.deleted" {
		status = "canceled"
	}

	now := time.Now()
	sub := &model.Subscription{
		ID:        event.Data.Object.ID,
		UserID:    userID,
		Status:    status,
		UpdatedAt: now,
	}
	if event.Data.Object.CurrentPeriodEnd > 0 {
		end := time.Unix(event.Data.Object.CurrentPeriodEnd, 0)
		sub.CurrentPeriodEnd = &end
	}

	if err := h.subs.Upsert(c.Request.Context(), sub); err != nil {
		c.Error(err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(c.Request.Context(), userID)
	}

	middleware.AddAuditContext(c, "event_type", event.Type)
	middleware.AddAuditContext(c, "subscription_status", status)

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// Reconcile sweeps stale pending transfers against the brokerage. Invoked by
// cron; covers events missed while the stream was down.
func (h *SystemHandler) Reconcile(c *gin.Context) {
	maxAge := time.Hour
	if raw := c.Query("max_age"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.Error(apperrors.NewInvalidRequest("max_age must be a positive duration"))
			return
		}
		maxAge = parsed
	}

	updated, err := h.funding.ReconcileStale(c.Request.Context(), maxAge)
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "action", "reconcile_transfers")
	middleware.AddAuditContext(c, "updated", updated)

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
