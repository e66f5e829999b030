package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gatewaytypes "github.com/veedsify/mightyshare-api/internal/core/datamodel/paymentgateway"
)

// ErrNotConfigured is returned before any network call when base URL, API
// key or business id is missing.
var ErrNotConfigured = errors.New("payment gateway is not configured")

type Config struct {
	BaseURL        string
	APIKey         string
	BusinessID     string
	Currency       string
	RequestTimeout time.Duration
}

// Client talks to the virtual-account provider. It holds no local state:
// creating a virtual account provisions a remote collection account, and
// the transaction lookups are read-only and safely retriable.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	businessID string
	currency   string
	timeout    time.Duration
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	currency := config.Currency
	if currency == "" {
		currency = "NGN"
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		businessID: config.BusinessID,
		currency:   currency,
		timeout:    timeout,
		logger:     logger,
	}
}

func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != "" && c.businessID != ""
}

func (c *Client) Currency() string {
	return c.currency
}

// CreateVirtualAccount provisions a single-use collection account tagged
// with the order id. It only initiates collection: the caller must never
// treat a payment as successful off the back of this call.
func (c *Client) CreateVirtualAccount(ctx context.Context, orderID string, amount int64, description string, customer gatewaytypes.Customer) (*gatewaytypes.VirtualAccount, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	if customer.Email == "" || customer.Phone == "" {
		return nil, fmt.Errorf("customer email and phone are required")
	}

	req := gatewaytypes.VirtualAccountRequest{
		BusinessID:  c.businessID,
		Amount:      amount,
		Currency:    c.currency,
		OrderID:     orderID,
		Description: description,
		Customer:    customer,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal virtual account request: %w", err)
	}

	c.logger.Info("creating virtual account",
		"order_id", orderID,
		"amount", amount)

	data, err := c.do(ctx, http.MethodPost, "/virtualAccount", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var va gatewaytypes.VirtualAccount
	if err := json.Unmarshal(data, &va); err != nil {
		return nil, &gatewaytypes.GatewayError{Reason: fmt.Sprintf("malformed virtual account payload: %v", err), RawBody: data}
	}
	if va.OrderID == "" {
		va.OrderID = orderID
	}
	va.Raw = data

	c.logger.Info("virtual account created",
		"order_id", orderID,
		"account_number", va.AccountNumber,
		"bank", va.BankName)

	return &va, nil
}

// GetTransaction fetches a provider transaction by id or reference and
// normalizes its status. Read-only; callers may retry freely.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*gatewaytypes.GatewayTransaction, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if transactionID == "" {
		return nil, fmt.Errorf("transaction id is required")
	}

	data, err := c.do(ctx, http.MethodGet, "/transactions/"+transactionID, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Status        string `json:"status"`
		Amount        int64  `json:"amount"`
		TransactionID string `json:"transactionId"`
		Reference     string `json:"reference"`
		UpdatedAt     string `json:"updatedAt"`
		Description   string `json:"description"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &gatewaytypes.GatewayError{Reason: fmt.Sprintf("malformed transaction payload: %v", err), RawBody: data}
	}

	tx := &gatewaytypes.GatewayTransaction{
		TransactionID: payload.TransactionID,
		Reference:     payload.Reference,
		Status:        gatewaytypes.NormalizeStatus(payload.Status),
		Amount:        payload.Amount,
		UpdatedAt:     payload.UpdatedAt,
		Description:   payload.Description,
		Raw:           data,
	}

	c.logger.Info("fetched gateway transaction",
		"transaction_id", transactionID,
		"status", tx.Status,
		"amount", tx.Amount)

	return tx, nil
}

// VerifyCheckout hits the alternate verification endpoint, used for
// checkout-style references where the provider reports "success" instead
// of "completed".
func (c *Client) VerifyCheckout(ctx context.Context, reference string) (*gatewaytypes.GatewayTransaction, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if reference == "" {
		return nil, fmt.Errorf("reference is required")
	}

	// the checkout endpoint wraps its payload in {data:{...}} without the
	// usual boolean status envelope
	body, err := c.doRaw(ctx, http.MethodGet, "/checkout/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data struct {
			Status        string `json:"status"`
			Amount        int64  `json:"amount"`
			TransactionID string `json:"transactionId"`
			Reference     string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &gatewaytypes.GatewayError{Reason: fmt.Sprintf("malformed verify payload: %v", err), RawBody: body}
	}

	return &gatewaytypes.GatewayTransaction{
		TransactionID: payload.Data.TransactionID,
		Reference:     payload.Data.Reference,
		Status:        gatewaytypes.NormalizeStatus(payload.Data.Status),
		Amount:        payload.Data.Amount,
		Raw:           body,
	}, nil
}

// do issues a request and unwraps the provider's {status, message, data}
// envelope, converting every failure shape into a GatewayError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	respBody, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var envelope gatewaytypes.Envelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &gatewaytypes.GatewayError{Reason: fmt.Sprintf("malformed envelope: %v", err), RawBody: respBody}
	}

	if !envelope.Status {
		reason := envelope.Message
		if reason == "" {
			reason = "provider reported failure"
		}
		return nil, &gatewaytypes.GatewayError{Reason: reason, RawBody: respBody}
	}

	return envelope.Data, nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("gateway request failed", "method", method, "path", path, "error", err)
		return nil, &gatewaytypes.GatewayError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gatewaytypes.GatewayError{Reason: fmt.Sprintf("read response body: %v", err), StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("gateway returned error status",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"body", string(respBody))
		return nil, &gatewaytypes.GatewayError{
			Reason:     fmt.Sprintf("provider returned HTTP %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			RawBody:    respBody,
		}
	}

	return respBody, nil
}
