package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clera-dev/clera-gateway/internal/middleware"
	"github.com/clera-dev/clera-gateway/internal/pkg/apperrors"
	"github.com/clera-dev/clera-gateway/internal/service"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// CreateAccount opens the brokerage account. Reachable mid-onboarding: the
// route rule requires authentication only.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	user, err := h.svc.CreateBrokerAccount(c.Request.Context(), userID, req)
	if err != nil {
		middleware.AddAuditContext(c, "error", err.Error())
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "action", "create_broker_account")
	middleware.AddAuditContext(c, "alpaca_id", user.AlpacaID)

	c.JSON(http.StatusCreated, gin.H{
		"user_id":   user.ID,
		"alpaca_id": user.AlpacaID,
		"status":    "submitted",
	})
}

func (h *AccountHandler) Status(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	status, err := h.svc.Status(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, status)
}
