package services

import (
	"fmt"
	"os"
	"strconv"

	"gorm.io/gorm"

	"estate_backoffice/internal/models"
)

const (
	defaultAgentPercent   = 7.0
	defaultPartnerPercent = 3.0
)

// CommissionService derives commission liabilities from paid invoices and
// reverses them when a payment is undone. Both paths run inside the caller's
// transaction so a commission can never exist without its paid invoice.
type CommissionService struct {
	agentPercent   float64
	partnerPercent float64
}

// NewCommissionService reads the commission percentages from
// AGENT_COMMISSION_PERCENT / PARTNER_COMMISSION_PERCENT, falling back to the
// defaults (7% / 3%).
func NewCommissionService() *CommissionService {
	return &CommissionService{
		agentPercent:   envFloat("AGENT_COMMISSION_PERCENT", defaultAgentPercent),
		partnerPercent: envFloat("PARTNER_COMMISSION_PERCENT", defaultPartnerPercent),
	}
}

func envFloat(key string, fallback float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if val, err := strconv.ParseFloat(raw, 64); err == nil {
			return val
		}
	}
	return fallback
}

// CommissionsFor computes the commission rows a paid invoice produces:
// one AGENT commission, plus one PARTNER commission when the enrollment has
// a partner. A zero-amount invoice produces none. Percent and amount are
// both persisted so later percentage changes never rewrite history.
func (s *CommissionService) CommissionsFor(invoice *models.Invoice, enrollment *models.Enrollment) []models.Commission {
	if invoice.Amount == 0 {
		return nil
	}

	commissions := []models.Commission{
		{
			EnrollmentID:  enrollment.ID,
			InvoiceID:     invoice.ID,
			RecipientID:   enrollment.AgentID,
			RecipientKind: models.RecipientKindAgent,
			Percent:       s.agentPercent,
			Amount:        invoice.Amount * s.agentPercent / 100,
			Status:        models.CommissionStatusPending,
		},
	}

	if enrollment.PartnerID != nil {
		commissions = append(commissions, models.Commission{
			EnrollmentID:  enrollment.ID,
			InvoiceID:     invoice.ID,
			RecipientID:   *enrollment.PartnerID,
			RecipientKind: models.RecipientKindPartner,
			Percent:       s.partnerPercent,
			Amount:        invoice.Amount * s.partnerPercent / 100,
			Status:        models.CommissionStatusPending,
		})
	}

	return commissions
}

// Generate creates the commission rows for a freshly paid invoice.
func (s *CommissionService) Generate(tx *gorm.DB, invoice *models.Invoice, enrollment *models.Enrollment) error {
	commissions := s.CommissionsFor(invoice, enrollment)
	if len(commissions) == 0 {
		return nil
	}

	if err := tx.Create(&commissions).Error; err != nil {
		return fmt.Errorf("failed to create commissions for invoice %d: %w", invoice.ID, err)
	}
	return nil
}

// Revoke deletes the commissions generated from an invoice. A commission
// that already progressed to a disbursement blocks the whole revoke; deleting
// it would orphan a money transfer.
func (s *CommissionService) Revoke(tx *gorm.DB, invoiceID uint) error {
	var commissions []models.Commission
	if err := tx.Where("invoice_id = ?", invoiceID).Find(&commissions).Error; err != nil {
		return err
	}

	for _, commission := range commissions {
		if commission.DisbursementID != nil {
			return fmt.Errorf("commission %d is linked to disbursement %d: %w",
				commission.ID, *commission.DisbursementID, ErrCommissionDisbursed)
		}
	}

	if len(commissions) == 0 {
		return nil
	}

	if err := tx.Where("invoice_id = ?", invoiceID).Delete(&models.Commission{}).Error; err != nil {
		return fmt.Errorf("failed to delete commissions for invoice %d: %w", invoiceID, err)
	}
	return nil
}
