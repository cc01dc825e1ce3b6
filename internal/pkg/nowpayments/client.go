package nowpayments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nebula-studio/billing-api/internal/pkg/payment"
)

const defaultBaseURL = "https://api.nowpayments.io"

// Config holds NOWPayments API configuration
type Config struct {
	BaseURL   string
	APIKey    string
	IPNSecret string
	Timeout   time.Duration
}

// Client is a crypto checkout gateway backed by hosted invoices
type Client struct {
	httpClient *http.Client
	config     Config
}

// InvoiceRequest represents invoice creation request
type InvoiceRequest struct {
	PriceAmount      string `json:"price_amount"`
	PriceCurrency    string `json:"price_currency"`
	OrderID          string `json:"order_id"`
	OrderDescription string `json:"order_description,omitempty"`
	IPNCallbackURL   string `json:"ipn_callback_url,omitempty"`
	SuccessURL       string `json:"success_url,omitempty"`
	CancelURL        string `json:"cancel_url,omitempty"`
}

// InvoiceResponse represents invoice creation response
type InvoiceResponse struct {
	ID         flexibleID `json:"id"`
	OrderID    string     `json:"order_id"`
	InvoiceURL string     `json:"invoice_url"`
}

// NewClient returns nil when no API key is configured
func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
	}
}

func (c *Client) Name() string { return payment.ProviderNowPayments }

// CreateCheckout creates a hosted invoice and returns its URL
func (c *Client) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, fmt.Errorf("validation error: order_id must be non-empty")
	}

	invoice, err := c.CreateInvoice(ctx, InvoiceRequest{
		PriceAmount:      decimal.New(req.AmountCents, -2).StringFixed(2),
		PriceCurrency:    strings.ToLower(req.Currency),
		OrderID:          req.OrderID,
		OrderDescription: req.ProductName,
		IPNCallbackURL:   req.CallbackURL,
		SuccessURL:       req.SuccessURL,
		CancelURL:        req.CancelURL,
	})
	if err != nil {
		return nil, err
	}
	return &payment.CheckoutSession{SessionID: string(invoice.ID), URL: invoice.InvoiceURL}, nil
}

// CreateInvoice calls POST /v1/invoice
func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	url := strings.TrimRight(c.config.BaseURL, "/") + "/v1/invoice"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("nowpayments api call failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("nowpayments api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("nowpayments api call failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("nowpayments api returned non-2xx status: %d, body: %s", resp.StatusCode, string(body))
	}

	var out InvoiceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse nowpayments response: %w", err)
	}
	if out.InvoiceURL == "" {
		return nil, fmt.Errorf("nowpayments response has no invoice_url")
	}
	return &out, nil
}

// flexibleID accepts ids sent either as JSON strings or numbers
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}
