package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"estate_backoffice/internal/models"
)

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)
	secret := "sk_test_secret"

	tests := []struct {
		name      string
		signature string
		secret    string
		expected  bool
	}{
		{
			name:      "valid signature",
			signature: signPayload(payload, secret),
			secret:    secret,
			expected:  true,
		},
		{
			name:      "wrong secret",
			signature: signPayload(payload, "sk_test_other"),
			secret:    secret,
			expected:  false,
		},
		{
			name:      "empty signature",
			signature: "",
			secret:    secret,
			expected:  false,
		},
		{
			name:      "tampered payload",
			signature: signPayload([]byte(`{"event":"charge.success"}`), secret),
			secret:    secret,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyWebhookSignature(payload, tt.signature, tt.secret)
			if got != tt.expected {
				t.Errorf("VerifyWebhookSignature() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   float64
		expected int64
	}{
		{50000, 5000000},
		{0, 0},
		{123.45, 12345},
		{0.1, 10},
		{19.99, 1999},
	}

	for _, tt := range tests {
		if got := ToMinorUnits(tt.amount); got != tt.expected {
			t.Errorf("ToMinorUnits(%v) = %d; want %d", tt.amount, got, tt.expected)
		}
	}
}

func newTestPaystack(serverURL string) *PaystackService {
	return &PaystackService{
		baseURL:   serverURL,
		secretKey: "sk_test_secret",
		client:    &http.Client{},
	}
}

func TestInitializeTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk_test_secret" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.example/abc","access_code":"abc","reference":"invoice-1-100"}}`))
	}))
	defer server.Close()

	svc := newTestPaystack(server.URL)
	session, raw, err := svc.InitializeTransaction(CheckoutRequest{
		Email:     "client@example.com",
		Amount:    5000000,
		Reference: "invoice-1-100",
	})
	if err != nil {
		t.Fatalf("InitializeTransaction() error = %v", err)
	}
	if session.AuthorizationURL != "https://checkout.example/abc" {
		t.Errorf("AuthorizationURL = %q", session.AuthorizationURL)
	}
	if session.AccessCode != "abc" {
		t.Errorf("AccessCode = %q", session.AccessCode)
	}
	if len(raw) == 0 {
		t.Error("expected raw response body to be returned")
	}
}

func TestInitializeTransactionRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Invalid amount"}`))
	}))
	defer server.Close()

	svc := newTestPaystack(server.URL)
	_, raw, err := svc.InitializeTransaction(CheckoutRequest{Email: "client@example.com"})
	if err == nil {
		t.Fatal("expected error for rejected initialization")
	}
	if len(raw) == 0 {
		t.Error("expected raw response body to be retained on rejection")
	}
}

func TestInitiateTransfer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transfer" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Transfer has been queued","data":{"transfer_code":"TRF_1","status":"pending"}}`))
	}))
	defer server.Close()

	svc := newTestPaystack(server.URL)
	result, _, err := svc.InitiateTransfer(5000000, "RCP_1", "DISB-abcd1234-100")
	if err != nil {
		t.Fatalf("InitiateTransfer() error = %v", err)
	}
	if result.TransferCode != "TRF_1" {
		t.Errorf("TransferCode = %q; want TRF_1", result.TransferCode)
	}
}

func TestInitiateTransferRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Insufficient balance"}`))
	}))
	defer server.Close()

	svc := newTestPaystack(server.URL)
	_, raw, err := svc.InitiateTransfer(5000000, "RCP_1", "DISB-abcd1234-100")
	if err == nil {
		t.Fatal("expected error for rejected transfer")
	}
	if len(raw) == 0 {
		t.Error("expected raw response body to be retained for audit")
	}
}

func TestCreateTransferRecipient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transferrecipient" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Transfer recipient created","data":{"recipient_code":"RCP_1"}}`))
	}))
	defer server.Close()

	svc := newTestPaystack(server.URL)
	bank := models.BankDetails{BankCode: "058", AccountNumber: "0123456789", AccountName: "Jane Doe"}
	recipient, _, err := svc.CreateTransferRecipient(bank, "Jane Doe")
	if err != nil {
		t.Fatalf("CreateTransferRecipient() error = %v", err)
	}
	if recipient.RecipientCode != "RCP_1" {
		t.Errorf("RecipientCode = %q; want RCP_1", recipient.RecipientCode)
	}
}
