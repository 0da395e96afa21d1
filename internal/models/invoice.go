package models

import (
	"time"

	"gorm.io/gorm"
)

// InvoiceStatus is the payment state of a single installment.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is one installment obligation within an enrollment. Installment
// numbers are 1-based and unique per enrollment; installments must be paid
// in installment-number order.
type Invoice struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	EnrollmentID      uint `gorm:"uniqueIndex:idx_enrollment_installment" json:"enrollment_id"`
	InstallmentNumber int  `gorm:"uniqueIndex:idx_enrollment_installment" json:"installment_number"`

	DueDate    time.Time     `gorm:"index" json:"due_date"`
	Amount     float64       `gorm:"type:decimal(15,2)" json:"amount"`
	AmountPaid float64       `gorm:"type:decimal(15,2)" json:"amount_paid"`
	Status     InvoiceStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`

	OverdueFee       float64    `gorm:"type:decimal(15,2)" json:"overdue_fee"`
	OverdueMarkedAt  *time.Time `json:"overdue_marked_at,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	PaymentReference string     `gorm:"type:varchar(100);index" json:"payment_reference"`

	// Relationships
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID" json:"enrollment,omitempty"`
}

// Settled reports whether the invoice no longer carries an open obligation.
func (i Invoice) Settled() bool {
	return i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled
}
