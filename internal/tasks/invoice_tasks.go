package tasks

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"estate_backoffice/internal/models"
	"estate_backoffice/internal/services"
)

// MarkOverdueInvoicesHandler flags PENDING invoices past their due date as
// OVERDUE. Each invoice is transitioned in its own transaction with a
// status re-check, so the sweep never races a concurrent payment.
func MarkOverdueInvoicesHandler(ctx context.Context, db *gorm.DB, args map[string]interface{}) (map[string]interface{}, error) {
	now := time.Now()

	var candidates []models.Invoice
	err := db.Where("status = ? AND due_date < ?", models.InvoiceStatusPending, now).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	invoiceService := services.NewInvoiceService(db, services.NewCommissionService())

	marked := 0
	for _, invoice := range candidates {
		if ctx.Err() != nil {
			break
		}
		if err := invoiceService.MarkOverdue(invoice.ID, now); err != nil {
			log.Printf("Failed to mark invoice %d overdue: %v", invoice.ID, err)
			continue
		}
		marked++
	}

	return map[string]interface{}{
		"status":     "success",
		"candidates": len(candidates),
		"marked":     marked,
	}, nil
}

// ExpirePaymentLinksHandler deactivates payment links past their expiry.
func ExpirePaymentLinksHandler(ctx context.Context, db *gorm.DB, args map[string]interface{}) (map[string]interface{}, error) {
	expired, err := services.ExpirePaymentLinks(db, time.Now())
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":  "success",
		"expired": expired,
	}, nil
}
