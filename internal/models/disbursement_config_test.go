package models

import "testing"

func TestDisbursementConfigAutoDisburse(t *testing.T) {
	listed := RecipientRef{Kind: RecipientKindAgent, ID: 3}

	tests := []struct {
		name     string
		mode     DisbursementMode
		kind     RecipientKind
		id       uint
		expected bool
	}{
		{
			name:     "none_except allows listed recipient",
			mode:     DisbursementModeNoneExcept,
			kind:     RecipientKindAgent,
			id:       3,
			expected: true,
		},
		{
			name:     "none_except denies unlisted recipient",
			mode:     DisbursementModeNoneExcept,
			kind:     RecipientKindAgent,
			id:       4,
			expected: false,
		},
		{
			name:     "all_except denies listed recipient",
			mode:     DisbursementModeAllExcept,
			kind:     RecipientKindAgent,
			id:       3,
			expected: false,
		},
		{
			name:     "all_except allows unlisted recipient",
			mode:     DisbursementModeAllExcept,
			kind:     RecipientKindAgent,
			id:       4,
			expected: true,
		},
		{
			name:     "same id under a different kind is not listed",
			mode:     DisbursementModeNoneExcept,
			kind:     RecipientKindPartner,
			id:       3,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DisbursementConfig{Mode: tt.mode, Exceptions: []RecipientRef{listed}}
			got := config.AutoDisburse(tt.kind, tt.id)
			if got != tt.expected {
				t.Errorf("AutoDisburse(%s, %d) = %v; want %v", tt.kind, tt.id, got, tt.expected)
			}
		})
	}
}

func TestBankDetailsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		bank     BankDetails
		expected bool
	}{
		{"complete details", BankDetails{BankCode: "058", AccountNumber: "0123456789"}, true},
		{"missing account number", BankDetails{BankCode: "058"}, false},
		{"missing bank code", BankDetails{AccountNumber: "0123456789"}, false},
		{"empty", BankDetails{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bank.Configured(); got != tt.expected {
				t.Errorf("Configured() = %v; want %v", got, tt.expected)
			}
		})
	}
}
