package models

import (
	"time"

	"gorm.io/gorm"
)

// CommissionStatus is the settlement state of a commission liability.
type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "PENDING"
	CommissionStatusPaid    CommissionStatus = "PAID"
)

// Commission is a liability owed to an agent or partner, derived from
// exactly one paid invoice. At most one commission per recipient kind
// exists per invoice.
type Commission struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	EnrollmentID uint `gorm:"index" json:"enrollment_id"`
	InvoiceID    uint `gorm:"uniqueIndex:idx_invoice_recipient_kind" json:"invoice_id"`

	RecipientID   uint          `gorm:"index" json:"recipient_id"`
	RecipientKind RecipientKind `gorm:"type:varchar(20);uniqueIndex:idx_invoice_recipient_kind" json:"recipient_kind"`

	Percent float64          `gorm:"type:decimal(5,2)" json:"percent"`
	Amount  float64          `gorm:"type:decimal(15,2)" json:"amount"`
	Status  CommissionStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`
	PaidAt  *time.Time       `json:"paid_at,omitempty"`

	// DisbursementID is set once a disbursement has been created for this
	// commission; a commission is linked to at most one disbursement.
	DisbursementID *uint `gorm:"uniqueIndex" json:"disbursement_id,omitempty"`

	// Relationships
	Enrollment   Enrollment    `gorm:"foreignKey:EnrollmentID" json:"enrollment,omitempty"`
	Invoice      Invoice       `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	Disbursement *Disbursement `gorm:"foreignKey:DisbursementID" json:"disbursement,omitempty"`
}
