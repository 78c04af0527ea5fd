package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Config holds credentials for the hosted payment provider.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// Client talks to the provider's REST API using basic auth. Monetary amounts
// cross the wire in paise.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient validates the configuration and builds a REST client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.KeyID) == "" {
		return nil, fmt.Errorf("gateway config error: key id is empty")
	}
	if strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, fmt.Errorf("gateway config error: key secret is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}, nil
}

type orderPayload struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder opens a checkout order for the exact amount.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	if input.Amount <= 0 {
		return Order{}, fmt.Errorf("gateway: order amount must be positive")
	}
	payload := orderPayload{
		Amount:   toPaise(input.Amount),
		Currency: input.Currency,
		Receipt:  input.Receipt,
		Notes:    input.Notes,
	}

	var resp orderResponse
	if err := c.post(ctx, "/orders", payload, &resp); err != nil {
		return Order{}, err
	}
	return Order{
		Reference: resp.ID,
		Amount:    fromPaise(resp.Amount),
		Currency:  resp.Currency,
	}, nil
}

type payoutPayload struct {
	FundAccount struct {
		AccountType string `json:"account_type"`
		BankAccount struct {
			Name          string `json:"name"`
			IFSC          string `json:"ifsc"`
			AccountNumber string `json:"account_number"`
		} `json:"bank_account"`
	} `json:"fund_account"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Mode     string            `json:"mode"`
	Purpose  string            `json:"purpose"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type payoutResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreatePayout initiates a bank transfer to the supplied account.
func (c *Client) CreatePayout(ctx context.Context, input CreatePayoutInput) (Payout, error) {
	if input.Amount <= 0 {
		return Payout{}, fmt.Errorf("gateway: payout amount must be positive")
	}
	purpose := input.Purpose
	if purpose == "" {
		purpose = "payout"
	}

	payload := payoutPayload{
		Amount:   toPaise(input.Amount),
		Currency: input.Currency,
		Mode:     "NEFT",
		Purpose:  purpose,
		Notes:    input.Notes,
	}
	payload.FundAccount.AccountType = "bank_account"
	payload.FundAccount.BankAccount.Name = input.Account.AccountHolder
	payload.FundAccount.BankAccount.IFSC = input.Account.IFSCCode
	payload.FundAccount.BankAccount.AccountNumber = input.Account.AccountNumber

	var resp payoutResponse
	if err := c.post(ctx, "/payouts", payload, &resp); err != nil {
		return Payout{}, err
	}
	return Payout{Reference: resp.ID, Status: resp.Status}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("gateway: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromPaise(paise int64) float64 {
	return float64(paise) / 100
}
