package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estate_backoffice/internal/models"
)

// InvoiceService owns invoice status transitions and the enrollment
// aggregates derived from them. All mutations run in one transaction with
// the enrollment row locked, so concurrent payment producers for the same
// enrollment serialize at the database.
type InvoiceService struct {
	db          *gorm.DB
	commissions *CommissionService
}

func NewInvoiceService(db *gorm.DB, commissions *CommissionService) *InvoiceService {
	return &InvoiceService{db: db, commissions: commissions}
}

// blockingInstallments returns the installment numbers that must be settled
// before the target installment may be paid: every smaller-numbered sibling
// that is neither PAID nor CANCELLED.
func blockingInstallments(siblings []models.Invoice, target int) []int {
	var blocking []int
	for _, sibling := range siblings {
		if sibling.InstallmentNumber < target && !sibling.Settled() {
			blocking = append(blocking, sibling.InstallmentNumber)
		}
	}
	return blocking
}

// deriveEnrollmentStatus computes the aggregate status from the full set of
// sibling invoices. Always recomputed from scratch, never patched, so the
// aggregate cannot drift from the rows it summarizes.
func deriveEnrollmentStatus(siblings []models.Invoice) models.EnrollmentStatus {
	for _, sibling := range siblings {
		if !sibling.Settled() {
			return models.EnrollmentStatusOngoing
		}
	}
	return models.EnrollmentStatusCompleted
}

// overdueFeeFor returns the flat fee charged when an overdue invoice is
// paid: the property's InterestRate when the invoice is marked OVERDUE and
// its due date has passed at payment time, zero otherwise.
func overdueFeeFor(invoice *models.Invoice, property *models.Property, paidAt time.Time) float64 {
	if invoice.Status == models.InvoiceStatusOverdue && invoice.DueDate.Before(paidAt) {
		return property.InterestRate
	}
	return 0
}

// mostRecentPaid returns the PAID sibling with the highest installment
// number, or nil when none is paid.
func mostRecentPaid(siblings []models.Invoice) *models.Invoice {
	var latest *models.Invoice
	for i := range siblings {
		if siblings[i].Status != models.InvoiceStatusPaid {
			continue
		}
		if latest == nil || siblings[i].InstallmentNumber > latest.InstallmentNumber {
			latest = &siblings[i]
		}
	}
	return latest
}

func joinInstallments(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// lockEnrollment loads the enrollment row FOR UPDATE. Every payment and
// undo for an enrollment funnels through this lock.
func lockEnrollment(tx *gorm.DB, enrollmentID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}
	return &enrollment, nil
}

// MarkPaid transitions an invoice to PAID, recomputes the enrollment
// aggregates and generates commissions, all in one transaction.
//
// AlreadyPaid doubles as the idempotency checkpoint: a second delivery of
// the same payment observes it and treats it as a no-op upstream.
func (s *InvoiceService) MarkPaid(invoiceID uint, paymentReference string, paidAt time.Time) (*models.Invoice, error) {
	var result models.Invoice

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.First(&invoice, invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
			}
			return err
		}

		enrollment, err := lockEnrollment(tx, invoice.EnrollmentID)
		if err != nil {
			return err
		}

		// Re-read under the enrollment lock; a concurrent producer may have
		// completed between the first read and the lock.
		if err := tx.First(&invoice, invoiceID).Error; err != nil {
			return err
		}

		switch invoice.Status {
		case models.InvoiceStatusPaid:
			return fmt.Errorf("invoice %d: %w", invoice.ID, ErrAlreadyPaid)
		case models.InvoiceStatusCancelled:
			return fmt.Errorf("invoice %d: %w", invoice.ID, ErrInvoiceCancelled)
		}

		var siblings []models.Invoice
		if err := tx.Where("enrollment_id = ?", enrollment.ID).
			Order("installment_number asc").Find(&siblings).Error; err != nil {
			return err
		}

		if blocking := blockingInstallments(siblings, invoice.InstallmentNumber); len(blocking) > 0 {
			return fmt.Errorf("installment(s) %s must be paid before installment %d: %w",
				joinInstallments(blocking), invoice.InstallmentNumber, ErrOutOfOrder)
		}

		var property models.Property
		if err := tx.First(&property, enrollment.PropertyID).Error; err != nil {
			return err
		}

		fee := overdueFeeFor(&invoice, &property, paidAt)

		invoice.AmountPaid = invoice.Amount
		invoice.Status = models.InvoiceStatusPaid
		invoice.OverdueFee = fee
		invoice.PaidAt = &paidAt
		invoice.PaymentReference = paymentReference
		if err := tx.Save(&invoice).Error; err != nil {
			return err
		}

		// Reflect the transition in the sibling snapshot before deriving
		// the aggregate status.
		for i := range siblings {
			if siblings[i].ID == invoice.ID {
				siblings[i].Status = models.InvoiceStatusPaid
			}
		}

		enrollment.AmountPaid += invoice.Amount
		enrollment.Status = deriveEnrollmentStatus(siblings)
		if err := tx.Save(enrollment).Error; err != nil {
			return err
		}

		if err := s.commissions.Generate(tx, &invoice, enrollment); err != nil {
			return err
		}

		result = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UndoPaid reverts the most recently paid invoice of an enrollment back to
// its unpaid status and removes the commissions it generated.
func (s *InvoiceService) UndoPaid(invoiceID uint) (*models.Invoice, error) {
	var result models.Invoice

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.First(&invoice, invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
			}
			return err
		}

		enrollment, err := lockEnrollment(tx, invoice.EnrollmentID)
		if err != nil {
			return err
		}

		if err := tx.First(&invoice, invoiceID).Error; err != nil {
			return err
		}

		if invoice.Status != models.InvoiceStatusPaid {
			return fmt.Errorf("invoice %d has status %s: %w", invoice.ID, invoice.Status, ErrNotPaid)
		}

		var siblings []models.Invoice
		if err := tx.Where("enrollment_id = ?", enrollment.ID).
			Order("installment_number asc").Find(&siblings).Error; err != nil {
			return err
		}

		latest := mostRecentPaid(siblings)
		if latest != nil && latest.ID != invoice.ID {
			return fmt.Errorf("installment %d is the most recently paid, undo it first: %w",
				latest.InstallmentNumber, ErrNotMostRecent)
		}

		// Commissions go first so a disbursed commission blocks the undo
		// before any state is touched.
		if err := s.commissions.Revoke(tx, invoice.ID); err != nil {
			return err
		}

		reverted := models.InvoiceStatusPending
		if invoice.DueDate.Before(time.Now()) {
			reverted = models.InvoiceStatusOverdue
		}

		updates := map[string]interface{}{
			"status":            reverted,
			"amount_paid":       0,
			"overdue_fee":       0,
			"paid_at":           nil,
			"payment_reference": "",
		}
		if err := tx.Model(&invoice).Updates(updates).Error; err != nil {
			return err
		}

		enrollment.AmountPaid -= invoice.Amount
		if enrollment.AmountPaid < 0 {
			enrollment.AmountPaid = 0
		}
		enrollment.Status = models.EnrollmentStatusOngoing
		if err := tx.Save(enrollment).Error; err != nil {
			return err
		}

		invoice.Status = reverted
		invoice.AmountPaid = 0
		invoice.OverdueFee = 0
		invoice.PaidAt = nil
		invoice.PaymentReference = ""
		result = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkOverdue flips a PENDING invoice past its due date to OVERDUE. The
// status is re-checked inside the transaction so the sweep cannot race a
// concurrent payment.
func (s *InvoiceService) MarkOverdue(invoiceID uint, now time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
			}
			return err
		}

		if invoice.Status != models.InvoiceStatusPending || !invoice.DueDate.Before(now) {
			return nil
		}

		return tx.Model(&invoice).Updates(map[string]interface{}{
			"status":            models.InvoiceStatusOverdue,
			"overdue_marked_at": now,
		}).Error
	})
}
