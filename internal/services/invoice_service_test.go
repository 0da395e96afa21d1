package services

import (
	"reflect"
	"testing"
	"time"

	"estate_backoffice/internal/models"
)

func invoiceFixture(number int, status models.InvoiceStatus) models.Invoice {
	return models.Invoice{
		ID:                uint(number),
		InstallmentNumber: number,
		Status:            status,
	}
}

func TestBlockingInstallments(t *testing.T) {
	tests := []struct {
		name     string
		siblings []models.Invoice
		target   int
		expected []int
	}{
		{
			name: "first installment has no blockers",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPending),
				invoiceFixture(2, models.InvoiceStatusPending),
			},
			target:   1,
			expected: nil,
		},
		{
			name: "pending earlier installment blocks",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPending),
				invoiceFixture(2, models.InvoiceStatusPending),
			},
			target:   2,
			expected: []int{1},
		},
		{
			name: "overdue earlier installment blocks",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusOverdue),
				invoiceFixture(2, models.InvoiceStatusPending),
				invoiceFixture(3, models.InvoiceStatusPending),
			},
			target:   3,
			expected: []int{1, 2},
		},
		{
			name: "paid and cancelled earlier installments do not block",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPaid),
				invoiceFixture(2, models.InvoiceStatusCancelled),
				invoiceFixture(3, models.InvoiceStatusPending),
			},
			target:   3,
			expected: nil,
		},
		{
			name: "later installments are ignored",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPaid),
				invoiceFixture(2, models.InvoiceStatusPending),
				invoiceFixture(3, models.InvoiceStatusPending),
			},
			target:   2,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := blockingInstallments(tt.siblings, tt.target)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("blockingInstallments() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestDeriveEnrollmentStatus(t *testing.T) {
	tests := []struct {
		name     string
		siblings []models.Invoice
		expected models.EnrollmentStatus
	}{
		{
			name: "all pending stays ongoing",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPending),
				invoiceFixture(2, models.InvoiceStatusPending),
			},
			expected: models.EnrollmentStatusOngoing,
		},
		{
			name: "partially paid stays ongoing",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPaid),
				invoiceFixture(2, models.InvoiceStatusOverdue),
			},
			expected: models.EnrollmentStatusOngoing,
		},
		{
			name: "all paid completes",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPaid),
				invoiceFixture(2, models.InvoiceStatusPaid),
			},
			expected: models.EnrollmentStatusCompleted,
		},
		{
			name: "paid plus cancelled completes",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPaid),
				invoiceFixture(2, models.InvoiceStatusCancelled),
			},
			expected: models.EnrollmentStatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveEnrollmentStatus(tt.siblings)
			if got != tt.expected {
				t.Errorf("deriveEnrollmentStatus() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestOverdueFeeFor(t *testing.T) {
	property := models.Property{InterestRate: 5000}
	dueDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   models.InvoiceStatus
		paidAt   time.Time
		expected float64
	}{
		{
			name:     "overdue and past due charges the flat fee",
			status:   models.InvoiceStatusOverdue,
			paidAt:   dueDate.AddDate(0, 0, 10),
			expected: 5000,
		},
		{
			name:     "overdue fee is flat regardless of days late",
			status:   models.InvoiceStatusOverdue,
			paidAt:   dueDate.AddDate(0, 6, 0),
			expected: 5000,
		},
		{
			name:     "pending invoice pays no fee",
			status:   models.InvoiceStatusPending,
			paidAt:   dueDate.AddDate(0, 0, 10),
			expected: 0,
		},
		{
			name:     "overdue marker without a past due date pays no fee",
			status:   models.InvoiceStatusOverdue,
			paidAt:   dueDate.AddDate(0, 0, -1),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoice := models.Invoice{Status: tt.status, DueDate: dueDate}
			got := overdueFeeFor(&invoice, &property, tt.paidAt)
			if got != tt.expected {
				t.Errorf("overdueFeeFor() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestMostRecentPaid(t *testing.T) {
	tests := []struct {
		name     string
		siblings []models.Invoice
		expected int // installment number, 0 for nil
	}{
		{
			name: "highest paid installment wins",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPaid),
				invoiceFixture(2, models.InvoiceStatusPaid),
				invoiceFixture(3, models.InvoiceStatusPending),
			},
			expected: 2,
		},
		{
			name: "no paid installments",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPending),
				invoiceFixture(2, models.InvoiceStatusOverdue),
			},
			expected: 0,
		},
		{
			name: "ignores cancelled installments",
			siblings: []models.Invoice{
				invoiceFixture(1, models.InvoiceStatusPaid),
				invoiceFixture(2, models.InvoiceStatusCancelled),
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mostRecentPaid(tt.siblings)
			if tt.expected == 0 {
				if got != nil {
					t.Errorf("mostRecentPaid() = installment %d; want nil", got.InstallmentNumber)
				}
				return
			}
			if got == nil || got.InstallmentNumber != tt.expected {
				t.Errorf("mostRecentPaid() = %v; want installment %d", got, tt.expected)
			}
		})
	}
}

func TestJoinInstallments(t *testing.T) {
	got := joinInstallments([]int{1, 2, 5})
	if got != "1, 2, 5" {
		t.Errorf("joinInstallments() = %q; want %q", got, "1, 2, 5")
	}
}
