package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer directions and statuses mirror the brokerage ACH transfer lifecycle.
const (
	TransferIncoming = "INCOMING"
	TransferOutgoing = "OUTGOING"

	TransferQueued   = "QUEUED"
	TransferPending  = "PENDING"
	TransferSettled  = "SETTLED"
	TransferComplete = "COMPLETE"
	TransferCanceled = "CANCELED"
	TransferRejected = "REJECTED"
	TransferReturned = "RETURNED"
)

// BankRelationship links a user's bank account to their brokerage account,
// either via Plaid processor token or manual ACH entry.
type BankRelationship struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"`
	AlpacaID  string    `json:"alpaca_relationship_id"`
	Nickname  string    `json:"nickname"`
	BankName  string    `json:"bank_name"`
	Last4     string    `json:"last4"`
	Source    string    `json:"source"` // plaid / manual
	Status    string    `json:"status"` // QUEUED / APPROVED / CANCELED
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transfer is one ACH funding transfer in the local ledger. The ledger is the
// source of truth for the funding requirement; brokerage events reconcile it.
type Transfer struct {
	ID             string          `json:"id" gorm:"primaryKey"`
	UserID         string          `json:"user_id" gorm:"index"`
	AccountID      string          `json:"alpaca_account_id"`
	AlpacaID       string          `json:"alpaca_transfer_id" gorm:"index"`
	RelationshipID string          `json:"relationship_id"`
	Direction      string          `json:"direction"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric"`
	Status         string          `json:"status"`
	Reason         string          `json:"reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Settled reports whether the transfer has irrevocably moved money in.
func (t *Transfer) Settled() bool {
	return t.Status == TransferSettled || t.Status == TransferComplete
}
