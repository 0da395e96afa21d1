package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"estate_backoffice/internal/models"
)

// CheckoutRequest carries the fields needed to open a hosted checkout session.
type CheckoutRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"` // minor currency units
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CheckoutSession is the provider's handle to a hosted checkout page.
type CheckoutSession struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// TransactionStatus is the provider's view of a checkout transaction.
type TransactionStatus struct {
	Status string     `json:"status"`
	Amount int64      `json:"amount"`
	PaidAt *time.Time `json:"paid_at"`
}

// TransferRecipient is the provider handle for a registered payout target.
type TransferRecipient struct {
	RecipientCode string `json:"recipient_code"`
}

// TransferResult is the provider's response to an initiated transfer.
type TransferResult struct {
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
}

// CheckoutClient initializes and verifies hosted checkout sessions.
type CheckoutClient interface {
	InitializeTransaction(req CheckoutRequest) (*CheckoutSession, json.RawMessage, error)
	VerifyTransaction(reference string) (*TransactionStatus, error)
}

// TransferClient registers recipients and moves money to them.
type TransferClient interface {
	CreateTransferRecipient(bank models.BankDetails, name string) (*TransferRecipient, json.RawMessage, error)
	InitiateTransfer(amount int64, recipientCode, reference string) (*TransferResult, json.RawMessage, error)
}

// PaystackService is a thin client for the payment provider's REST API.
// Every call is one bounded-timeout request; retries are left to callers.
type PaystackService struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewPaystackService builds a client from PAYSTACK_SECRET_KEY and
// PAYSTACK_BASE_URL (defaults to the hosted API).
func NewPaystackService() *PaystackService {
	url := os.Getenv("PAYSTACK_BASE_URL")
	if url == "" {
		url = "https://api.paystack.co"
	}
	return &PaystackService{
		baseURL:   url,
		secretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is the provider's standard response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// makeRequest performs one API call and decodes the response envelope.
// The raw response body is returned alongside the data for audit storage.
func (s *PaystackService) makeRequest(method, endpoint string, payload interface{}) (json.RawMessage, json.RawMessage, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, raw, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 || !env.Status {
		return nil, raw, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, env.Message)
	}

	return env.Data, raw, nil
}

// InitializeTransaction opens a hosted checkout session for an invoice.
func (s *PaystackService) InitializeTransaction(req CheckoutRequest) (*CheckoutSession, json.RawMessage, error) {
	data, raw, err := s.makeRequest("POST", "/transaction/initialize", req)
	if err != nil {
		return nil, raw, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, raw, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	return &session, raw, nil
}

// VerifyTransaction fetches the provider-side status of a transaction.
func (s *PaystackService) VerifyTransaction(reference string) (*TransactionStatus, error) {
	data, _, err := s.makeRequest("GET", "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var status TransactionStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to decode transaction status: %w", err)
	}
	return &status, nil
}

// CreateTransferRecipient registers a payout target with the provider.
func (s *PaystackService) CreateTransferRecipient(bank models.BankDetails, name string) (*TransferRecipient, json.RawMessage, error) {
	payload := map[string]string{
		"type":           "nuban",
		"name":           name,
		"account_number": bank.AccountNumber,
		"bank_code":      bank.BankCode,
		"currency":       "NGN",
	}

	data, raw, err := s.makeRequest("POST", "/transferrecipient", payload)
	if err != nil {
		return nil, raw, err
	}

	var recipient TransferRecipient
	if err := json.Unmarshal(data, &recipient); err != nil {
		return nil, raw, fmt.Errorf("failed to decode transfer recipient: %w", err)
	}
	return &recipient, raw, nil
}

// InitiateTransfer moves amount (minor units) to a registered recipient.
func (s *PaystackService) InitiateTransfer(amount int64, recipientCode, reference string) (*TransferResult, json.RawMessage, error) {
	payload := map[string]interface{}{
		"source":    "balance",
		"amount":    amount,
		"recipient": recipientCode,
		"reference": reference,
	}

	data, raw, err := s.makeRequest("POST", "/transfer", payload)
	if err != nil {
		return nil, raw, err
	}

	var result TransferResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, raw, fmt.Errorf("failed to decode transfer result: %w", err)
	}
	return &result, raw, nil
}

// VerifyWebhookSignature checks the HMAC-SHA512 hex signature the provider
// sends with each notification against the raw payload bytes.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ToMinorUnits converts a decimal currency amount to the provider's minor
// currency unit (e.g. naira to kobo).
func ToMinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
