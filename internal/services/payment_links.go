package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"estate_backoffice/internal/models"
)

// CheckoutResult is what a payment initialization hands back to the client.
type CheckoutResult struct {
	Token            string `json:"token"`
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	IsExisting       bool   `json:"is_existing"`
}

// InitiateCheckout opens (or resumes) a hosted checkout session for an
// invoice. A new session supersedes any previously active link for the
// same invoice.
func (s *PaymentService) InitiateCheckout(invoiceID uint, forceNew bool, callbackURL string) (*CheckoutResult, error) {
	var invoice models.Invoice
	err := s.db.Preload("Enrollment").Preload("Enrollment.Client").Preload("Enrollment.Property").
		First(&invoice, invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
		}
		return nil, err
	}

	switch invoice.Status {
	case models.InvoiceStatusPaid:
		return nil, fmt.Errorf("invoice %d: %w", invoice.ID, ErrAlreadyPaid)
	case models.InvoiceStatusCancelled:
		return nil, fmt.Errorf("invoice %d: %w", invoice.ID, ErrInvoiceCancelled)
	}

	// Reuse a still-valid active link unless the caller forces a new one.
	var existing models.PaymentLink
	err = s.db.Where("invoice_id = ? AND is_active = ?", invoice.ID, true).
		Order("created_at desc").First(&existing).Error
	if err == nil {
		if !forceNew && existing.ExpiresAt.After(time.Now()) {
			return &CheckoutResult{
				Token:            existing.Token,
				AuthorizationURL: existing.AuthorizationURL,
				Reference:        existing.Reference,
				IsExisting:       true,
			}, nil
		}
		s.deactivateLinks(invoice.ID, false)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// An overdue installment is charged its flat fee up front.
	charge := invoice.Amount
	if invoice.Status == models.InvoiceStatusOverdue {
		charge += invoice.Enrollment.Property.InterestRate
	}

	reference := fmt.Sprintf("invoice-%d-%d", invoice.ID, time.Now().Unix())
	session, raw, err := s.provider.InitializeTransaction(CheckoutRequest{
		Email:       invoice.Enrollment.Client.Email,
		Amount:      ToMinorUnits(charge),
		Reference:   reference,
		CallbackURL: callbackURL,
		Metadata: map[string]string{
			"invoice_id":    strconv.FormatUint(uint64(invoice.ID), 10),
			"enrollment_id": strconv.FormatUint(uint64(invoice.EnrollmentID), 10),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("checkout initialization failed for invoice %d: %w", invoice.ID, err)
	}

	link := models.PaymentLink{
		Token:            uuid.New().String(),
		InvoiceID:        invoice.ID,
		EnrollmentID:     invoice.EnrollmentID,
		Reference:        reference,
		AccessCode:       session.AccessCode,
		AuthorizationURL: session.AuthorizationURL,
		ProviderResponse: raw,
		IsActive:         true,
		ExpiresAt:        time.Now().Add(linkLifetime),
	}
	if err := s.db.Create(&link).Error; err != nil {
		return nil, err
	}

	return &CheckoutResult{
		Token:            link.Token,
		AuthorizationURL: link.AuthorizationURL,
		Reference:        link.Reference,
	}, nil
}

// CheckoutFromLink reopens a checkout session for the invoice behind a
// public token. An expired or superseded link gets a fresh session; a link
// consumed by a successful payment does not.
func (s *PaymentService) CheckoutFromLink(token, callbackURL string) (*CheckoutResult, error) {
	var link models.PaymentLink
	if err := s.db.Where("token = ?", token).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment link %s: %w", token, ErrNotFound)
		}
		return nil, err
	}
	if link.UsedAt != nil {
		return nil, fmt.Errorf("payment link %s: %w", token, ErrLinkUsed)
	}
	return s.InitiateCheckout(link.InvoiceID, false, callbackURL)
}

// LinkSummary is the public view of a payment link.
type LinkSummary struct {
	Token             string               `json:"token"`
	AuthorizationURL  string               `json:"authorization_url"`
	InstallmentNumber int                  `json:"installment_number"`
	Amount            float64              `json:"amount"`
	DueDate           time.Time            `json:"due_date"`
	InvoiceStatus     models.InvoiceStatus `json:"invoice_status"`
	PropertyTitle     string               `json:"property_title"`
	ClientName        string               `json:"client_name"`
	ExpiresAt         time.Time            `json:"expires_at"`
}

// ResolveLink resolves a public token to its invoice summary.
func (s *PaymentService) ResolveLink(token string) (*LinkSummary, error) {
	var link models.PaymentLink
	err := s.db.Preload("Invoice").Preload("Invoice.Enrollment").
		Preload("Invoice.Enrollment.Client").Preload("Invoice.Enrollment.Property").
		Where("token = ?", token).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment link %s: %w", token, ErrNotFound)
		}
		return nil, err
	}

	if !link.IsActive {
		if link.UsedAt != nil {
			return nil, fmt.Errorf("payment link %s: %w", token, ErrLinkUsed)
		}
		return nil, fmt.Errorf("payment link %s: %w", token, ErrLinkInactive)
	}
	if link.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("payment link %s: %w", token, ErrLinkExpired)
	}

	return &LinkSummary{
		Token:             link.Token,
		AuthorizationURL:  link.AuthorizationURL,
		InstallmentNumber: link.Invoice.InstallmentNumber,
		Amount:            link.Invoice.Amount,
		DueDate:           link.Invoice.DueDate,
		InvoiceStatus:     link.Invoice.Status,
		PropertyTitle:     link.Invoice.Enrollment.Property.Title,
		ClientName:        link.Invoice.Enrollment.Client.Name,
		ExpiresAt:         link.ExpiresAt,
	}, nil
}

// SyncLinkStatus double-checks a link's transaction with the provider and
// settles the invoice if the payment went through but the notification was
// missed. Returns the invoice's current status.
func (s *PaymentService) SyncLinkStatus(token string) (models.InvoiceStatus, error) {
	var link models.PaymentLink
	if err := s.db.Preload("Invoice").Where("token = ?", token).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("payment link %s: %w", token, ErrNotFound)
		}
		return "", err
	}

	if link.Invoice.Status == models.InvoiceStatusPaid {
		return models.InvoiceStatusPaid, nil
	}

	status, err := s.provider.VerifyTransaction(link.Reference)
	if err != nil {
		// Provider unreachable; report what the ledger knows.
		log.Printf("Transaction verify failed for link %s: %v", token, err)
		return link.Invoice.Status, nil
	}

	if status.Status != "success" {
		return link.Invoice.Status, nil
	}

	paidAt := time.Now()
	if status.PaidAt != nil {
		paidAt = *status.PaidAt
	}

	if _, err := s.invoices.MarkPaid(link.InvoiceID, link.Reference, paidAt); err != nil {
		if errors.Is(err, ErrAlreadyPaid) {
			s.deactivateLinks(link.InvoiceID, true)
			return models.InvoiceStatusPaid, nil
		}
		return "", err
	}

	s.deactivateLinks(link.InvoiceID, true)
	s.autoDisburse(link.InvoiceID)
	return models.InvoiceStatusPaid, nil
}

// ExpirePaymentLinks deactivates active links whose expiry has passed.
// Called by the background sweep.
func ExpirePaymentLinks(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.PaymentLink{}).
		Where("is_active = ? AND expires_at < ?", true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
