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

// PlaidClient covers the two Plaid calls the bank-link flow needs: exchanging
// the public token from Link and minting a brokerage processor token.
type PlaidClient struct {
	baseURL  string
	clientID string
	secret   string
	http     *http.Client
}

func NewPlaidClient(cfg *config.Config) *PlaidClient {
	base := "https://sandbox.plaid.com"
	switch cfg.Plaid.Env {
	case "development":
		base = "https://development.plaid.com"
	case "production":
		base = "https://production.plaid.com"
	}
	return &PlaidClient{
		baseURL:  base,
		clientID: cfg.Plaid.ClientID,
		secret:   cfg.Plaid.Secret,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// ProcessorToken exchanges a Link public token and mints an Alpaca processor
// token for the selected bank account.
func (c *PlaidClient) ProcessorToken(ctx context.Context, publicToken, plaidAccountID string) (string, error) {
	var exchange struct {
		AccessToken string `json:"access_token"`
	}
	err := c.post(ctx, "/item/public_token/exchange", map[string]string{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"public_token": publicToken,
	}, &exchange)
	if err != nil {
		return "", err
	}

	var processor struct {
		ProcessorToken string `json:"processor_token"`
	}
	err = c.post(ctx, "/processor/token/create", map[string]string{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": exchange.AccessToken,
		"account_id":   plaidAccountID,
		"processor":    "alpaca",
	}, &processor)
	if err != nil {
		return "", err
	}
	return processor.ProcessorToken, nil
}

func (c *PlaidClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewUpstream("plaid request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.NewUpstream(fmt.Sprintf("plaid returned %d for %s: %s", resp.StatusCode, path, string(raw)), nil)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
