package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"estate_backoffice/internal/models"
)

const linkLifetime = 24 * time.Hour

// PaymentService is the ingestion gateway: manual admin resolution and
// provider webhook notifications both funnel into InvoiceService.MarkPaid,
// which provides the single atomic paid-transition.
type PaymentService struct {
	db            *gorm.DB
	provider      CheckoutClient
	invoices      *InvoiceService
	config        *DisbursementConfigService
	disbursements *DisbursementService
	webhookSecret string
}

func NewPaymentService(
	db *gorm.DB,
	provider CheckoutClient,
	invoices *InvoiceService,
	config *DisbursementConfigService,
	disbursements *DisbursementService,
	webhookSecret string,
) *PaymentService {
	return &PaymentService{
		db:            db,
		provider:      provider,
		invoices:      invoices,
		config:        config,
		disbursements: disbursements,
		webhookSecret: webhookSecret,
	}
}

// ResolveManual marks an invoice paid on behalf of an admin. All invoice
// lifecycle failures surface to the caller unchanged.
func (s *PaymentService) ResolveManual(invoiceID uint, paymentReference, actor string) (*models.Invoice, error) {
	invoice, err := s.invoices.MarkPaid(invoiceID, paymentReference, time.Now())
	if err != nil {
		return nil, err
	}

	log.Printf("Invoice %d manually resolved by %s (reference %s)", invoice.ID, actor, paymentReference)
	s.deactivateLinks(invoice.ID, true)
	s.autoDisburse(invoice.ID)
	return invoice, nil
}

// NotificationResult reports what a webhook delivery amounted to.
type NotificationResult struct {
	Processed   bool `json:"processed"`
	AlreadyPaid bool `json:"already_paid"`
	InvoiceID   uint `json:"invoice_id,omitempty"`
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string                 `json:"reference"`
		PaidAt    *time.Time             `json:"paid_at"`
		Metadata  map[string]interface{} `json:"metadata"`
	} `json:"data"`
}

// metadataInvoiceID digs the invoice id out of event metadata; providers
// deliver it as a string or a JSON number depending on how it was set.
func metadataInvoiceID(metadata map[string]interface{}) uint {
	raw, ok := metadata["invoice_id"]
	if !ok {
		return 0
	}
	switch val := raw.(type) {
	case string:
		id, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return 0
		}
		return uint(id)
	case float64:
		if val <= 0 {
			return 0
		}
		return uint(val)
	}
	return 0
}

// HandleNotification verifies and applies one provider notification.
// Signature mismatch fails closed; re-delivery for an already-paid invoice
// is a successful no-op.
func (s *PaymentService) HandleNotification(rawBody []byte, signature string) (*NotificationResult, error) {
	if !VerifyWebhookSignature(rawBody, signature, s.webhookSecret) {
		return nil, ErrInvalidSignature
	}

	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", ErrValidation)
	}

	if payload.Event != "charge.success" {
		log.Printf("Ignoring webhook event %q", payload.Event)
		return &NotificationResult{}, nil
	}

	invoiceID := metadataInvoiceID(payload.Data.Metadata)
	if invoiceID == 0 {
		// No invoice to reconcile against; drop rather than error so the
		// provider does not keep redelivering.
		log.Printf("Dropping charge.success %s: no invoice_id in metadata", payload.Data.Reference)
		return &NotificationResult{}, nil
	}

	var invoice models.Invoice
	if err := s.db.First(&invoice, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Dropping charge.success %s: invoice %d not found", payload.Data.Reference, invoiceID)
			return &NotificationResult{}, nil
		}
		return nil, err
	}

	s.recordEvent(&payload, rawBody, invoiceID)

	if invoice.Status == models.InvoiceStatusPaid {
		// Idempotent re-delivery.
		s.deactivateLinks(invoice.ID, true)
		return &NotificationResult{Processed: true, AlreadyPaid: true, InvoiceID: invoice.ID}, nil
	}

	paidAt := time.Now()
	if payload.Data.PaidAt != nil {
		paidAt = *payload.Data.PaidAt
	}

	if _, err := s.invoices.MarkPaid(invoiceID, payload.Data.Reference, paidAt); err != nil {
		if errors.Is(err, ErrAlreadyPaid) {
			// A concurrent producer won the paid-transition.
			s.deactivateLinks(invoiceID, true)
			return &NotificationResult{Processed: true, AlreadyPaid: true, InvoiceID: invoiceID}, nil
		}
		return nil, err
	}

	s.deactivateLinks(invoiceID, true)
	s.autoDisburse(invoiceID)
	return &NotificationResult{Processed: true, InvoiceID: invoiceID}, nil
}

// recordEvent stores the accepted notification for audit.
func (s *PaymentService) recordEvent(payload *webhookPayload, rawBody []byte, invoiceID uint) {
	event := models.WebhookEvent{
		Event:     payload.Event,
		Reference: payload.Data.Reference,
		Payload:   json.RawMessage(rawBody),
	}
	if invoiceID > 0 {
		event.InvoiceID = &invoiceID
	}
	if err := s.db.Create(&event).Error; err != nil {
		log.Printf("Failed to record webhook event %s: %v", payload.Data.Reference, err)
	}
}

// deactivateLinks retires every active payment link for an invoice. When
// used is true the links are stamped as consumed by a successful payment.
func (s *PaymentService) deactivateLinks(invoiceID uint, used bool) {
	updates := map[string]interface{}{"is_active": false}
	if used {
		updates["used_at"] = time.Now()
	}
	err := s.db.Model(&models.PaymentLink{}).
		Where("invoice_id = ? AND is_active = ?", invoiceID, true).
		Updates(updates).Error
	if err != nil {
		log.Printf("Failed to deactivate payment links for invoice %d: %v", invoiceID, err)
	}
}

// autoDisburse creates and releases disbursements for the invoice's fresh
// commissions where the policy allows. Runs after the payment transaction
// has committed; provider calls never happen inside it. Failures stay on
// the disbursement record for manual follow-up.
func (s *PaymentService) autoDisburse(invoiceID uint) {
	if s.config == nil || s.disbursements == nil {
		return
	}

	var commissions []models.Commission
	if err := s.db.Where("invoice_id = ? AND status = ?", invoiceID, models.CommissionStatusPending).
		Find(&commissions).Error; err != nil {
		log.Printf("Auto-disburse lookup failed for invoice %d: %v", invoiceID, err)
		return
	}

	for _, commission := range commissions {
		allowed, err := s.config.ShouldAutoDisburse(commission.RecipientKind, commission.RecipientID)
		if err != nil {
			log.Printf("Auto-disburse policy check failed for commission %d: %v", commission.ID, err)
			continue
		}
		if !allowed {
			continue
		}

		disbursement, err := s.disbursements.Create(commission.ID, "auto-disburse")
		if err != nil {
			log.Printf("Auto-disburse create failed for commission %d: %v", commission.ID, err)
			continue
		}
		if _, err := s.disbursements.Release(context.Background(), disbursement.ID, nil, "auto-disburse"); err != nil {
			log.Printf("Auto-disburse release failed for disbursement %d: %v", disbursement.ID, err)
		}
	}
}
