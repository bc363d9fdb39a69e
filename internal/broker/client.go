package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clera-dev/clera-gateway/internal/config"
	"github.com/clera-dev/clera-gateway/internal/pkg/apperrors"
)

// Client talks to the brokerage (Alpaca Broker API). Only the funding and
// account-status surface the gateway needs is modeled.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
}

func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Broker.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   cfg.Broker.BaseURL,
		apiKey:    cfg.Broker.APIKey,
		apiSecret: cfg.Broker.APISecret,
		http:      &http.Client{Timeout: timeout},
	}
}

type Account struct {
	ID     string `json:"id"`
	Status string `json:"status"` // SUBMITTED / APPROVED / ACTIVE / ACCOUNT_CLOSED
}

type CreateAccountRequest struct {
	Contact  map[string]interface{} `json:"contact"`
	Identity map[string]interface{} `json:"identity"`
}

type ACHRelationshipRequest struct {
	// Exactly one of ProcessorToken (Plaid) or the manual fields is set.
	ProcessorToken string `json:"processor_token,omitempty"`
	AccountOwner   string `json:"account_owner_name,omitempty"`
	AccountType    string `json:"bank_account_type,omitempty"`
	AccountNumber  string `json:"bank_account_number,omitempty"`
	RoutingNumber  string `json:"bank_routing_number,omitempty"`
	Nickname       string `json:"nickname,omitempty"`
}

type ACHRelationship struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	BankName string `json:"bank_name"`
	Last4    string `json:"last_4"`
}

type TransferRequest struct {
	RelationshipID string `json:"relationship_id"`
	Amount         string `json:"amount"`
	Direction      string `json:"direction"`
}

type TransferResult struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var acct Account
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+accountID, nil, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	var acct Account
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", req, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (c *Client) CreateACHRelationship(ctx context.Context, accountID string, req ACHRelationshipRequest) (*ACHRelationship, error) {
	var rel ACHRelationship
	path := fmt.Sprintf("/v1/accounts/%s/ach_relationships", accountID)
	if err := c.do(ctx, http.MethodPost, path, req, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// GetTransfers lists the account's transfers, most recent first. Used by the
// reconcile cron to catch events missed while the stream was down.
func (c *Client) GetTransfers(ctx context.Context, accountID string) ([]TransferResult, error) {
	var results []TransferResult
	path := fmt.Sprintf("/v1/accounts/%s/transfers", accountID)
	if err := c.do(ctx, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) CreateTransfer(ctx context.Context, accountID string, req TransferRequest) (*TransferResult, error) {
	var result TransferResult
	path := fmt.Sprintf("/v1/accounts/%s/transfers", accountID)
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewUpstream("brokerage request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.NewUpstream(
			fmt.Sprintf("brokerage returned %d for %s %s: %s", resp.StatusCode, method, path, string(raw)), nil)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
