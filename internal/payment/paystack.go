// Package payment talks to the Paystack transaction API.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skitro/internal/domain"
	"skitro/internal/domain/models"
)

const defaultBaseURL = "https://api.paystack.co"

// Client is a minimal Paystack client. Every call is bounded by Timeout.
type Client struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	HTTP      *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		Timeout:   timeout,
		HTTP:      &http.Client{},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Channel   string `json:"channel"`
	PaidAt    string `json:"paid_at"`
}

// InitializeTransaction opens a payment and returns the checkout URL.
func (c *Client) InitializeTransaction(ctx context.Context, in models.InitializeTransaction) (string, error) {
	body := map[string]any{
		"email":     in.Email,
		"amount":    in.AmountMinor,
		"reference": in.Reference,
	}
	if in.Currency != "" {
		body["currency"] = in.Currency
	}
	if in.CallbackURL != "" {
		body["callback_url"] = in.CallbackURL
	}
	if len(in.Metadata) > 0 {
		body["metadata"] = in.Metadata
	}

	status, env, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return "", domain.PaymentProviderUnavailableError{Op: "initialize", Err: err}
	}
	if status/100 != 2 || !env.Status {
		return "", domain.PaymentProviderUnavailableError{
			Op:  "initialize",
			Err: fmt.Errorf("paystack %d: %s", status, env.Message),
		}
	}
	var data initializeData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AuthorizationURL == "" {
		return "", domain.PaymentProviderUnavailableError{Op: "initialize", Err: fmt.Errorf("malformed initialize response")}
	}
	return data.AuthorizationURL, nil
}

// VerifyTransaction asks the provider for the current state of reference.
// An unknown reference is reported as a non-success status, not an error.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (models.TransactionStatus, error) {
	path := "/transaction/verify/" + url.PathEscape(reference)
	status, env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return models.TransactionStatus{}, domain.PaymentProviderUnavailableError{Op: "verify", Err: err}
	}
	switch {
	case status >= 500 || status == http.StatusTooManyRequests || status == http.StatusUnauthorized:
		return models.TransactionStatus{}, domain.PaymentProviderUnavailableError{
			Op:  "verify",
			Err: fmt.Errorf("paystack %d: %s", status, env.Message),
		}
	case status/100 != 2 || !env.Status:
		return models.TransactionStatus{Reference: reference, Status: "not_found"}, nil
	}

	var data verifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return models.TransactionStatus{}, domain.PaymentProviderUnavailableError{Op: "verify", Err: fmt.Errorf("malformed verify response: %w", err)}
	}
	if data.Reference == "" {
		data.Reference = reference
	}
	return models.TransactionStatus{
		Reference: data.Reference,
		Status:    data.Status,
		Amount:    data.Amount,
		Currency:  data.Currency,
		Channel:   data.Channel,
		PaidAt:    data.PaidAt,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, envelope{}, err
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return 0, envelope{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, env, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode/100 == 2 {
			return resp.StatusCode, env, fmt.Errorf("decode paystack response: %w", err)
		}
	}
	return resp.StatusCode, env, nil
}

// VerifySignature checks the x-paystack-signature header: hex HMAC-SHA512 of
// the raw body keyed by the secret key.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	if c.SecretKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// WebhookEvent is the part of a Paystack webhook payload we act on.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

func ParseWebhook(body []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, domain.ValidationError{Field: "body", Msg: "invalid webhook payload", Err: err}
	}
	return ev, nil
}
