package services

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestMetadataInvoiceID(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]interface{}
		expected uint
	}{
		{
			name:     "string id",
			metadata: map[string]interface{}{"invoice_id": "42"},
			expected: 42,
		},
		{
			name:     "numeric id",
			metadata: map[string]interface{}{"invoice_id": float64(42)},
			expected: 42,
		},
		{
			name:     "missing key",
			metadata: map[string]interface{}{"enrollment_id": "7"},
			expected: 0,
		},
		{
			name:     "garbage string",
			metadata: map[string]interface{}{"invoice_id": "not-a-number"},
			expected: 0,
		},
		{
			name:     "negative number",
			metadata: map[string]interface{}{"invoice_id": float64(-3)},
			expected: 0,
		},
		{
			name:     "nil metadata",
			metadata: nil,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metadataInvoiceID(tt.metadata)
			if got != tt.expected {
				t.Errorf("metadataInvoiceID() = %d; want %d", got, tt.expected)
			}
		})
	}
}

func TestWebhookPayloadParsing(t *testing.T) {
	raw := []byte(`{
		"event": "charge.success",
		"data": {
			"reference": "invoice-42-1700000000",
			"paid_at": "2026-01-20T10:30:00Z",
			"metadata": {"invoice_id": "42", "enrollment_id": "7"}
		}
	}`)

	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}

	if payload.Event != "charge.success" {
		t.Errorf("Event = %q; want charge.success", payload.Event)
	}
	if payload.Data.Reference != "invoice-42-1700000000" {
		t.Errorf("Reference = %q", payload.Data.Reference)
	}
	if payload.Data.PaidAt == nil {
		t.Fatal("PaidAt is nil")
	}
	want := time.Date(2026, 1, 20, 10, 30, 0, 0, time.UTC)
	if !payload.Data.PaidAt.Equal(want) {
		t.Errorf("PaidAt = %v; want %v", payload.Data.PaidAt, want)
	}
	if metadataInvoiceID(payload.Data.Metadata) != 42 {
		t.Errorf("metadata invoice id = %d; want 42", metadataInvoiceID(payload.Data.Metadata))
	}
}

func TestTransferReference(t *testing.T) {
	now := time.Unix(1700000000, 0)
	ref := TransferReference(7, now)

	if ref != "DISB-7-1700000000" {
		t.Errorf("TransferReference() = %q; want DISB-7-1700000000", ref)
	}
	if !strings.HasPrefix(ref, "DISB-") {
		t.Errorf("reference %q does not start with DISB-", ref)
	}
}
