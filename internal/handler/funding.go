package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clera-dev/clera-gateway/internal/middleware"
	"github.com/clera-dev/clera-gateway/internal/pkg/apperrors"
	"github.com/clera-dev/clera-gateway/internal/service"
)

type FundingHandler struct {
	funding  *service.FundingService
	accounts *service.AccountService
}

func NewFundingHandler(funding *service.FundingService, accounts *service.AccountService) *FundingHandler {
	return &FundingHandler{funding: funding, accounts: accounts}
}

func (h *FundingHandler) ConnectBank(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req service.ConnectBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	accountID, err := h.accounts.BrokerAccountID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	rel, err := h.funding.ConnectBank(c.Request.Context(), userID, accountID, req)
	if err != nil {
		middleware.AddAuditContext(c, "error", err.Error())
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "action", "connect_bank")
	middleware.AddAuditContext(c, "relationship_id", rel.ID)
	middleware.AddAuditContext(c, "source", rel.Source)

	c.JSON(http.StatusCreated, rel)
}

func (h *FundingHandler) InitiateTransfer(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	accountID, err := h.accounts.BrokerAccountID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	tr, err := h.funding.InitiateTransfer(c.Request.Context(), userID, accountID, req)
	if err != nil {
		middleware.AddAuditContext(c, "error", err.Error())
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "action", "initiate_transfer")
	middleware.AddAuditContext(c, "transfer_id", tr.ID)
	middleware.AddAuditContext(c, "amount", tr.Amount.String())

	c.JSON(http.StatusCreated, tr)
}

func (h *FundingHandler) ListTransfers(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	transfers, err := h.funding.ListTransfers(c.Request.Context(), userID, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

func (h *FundingHandler) ListRelationships(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	rels, err := h.funding.ListRelationships(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationships": rels})
}
