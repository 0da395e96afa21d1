package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// DisbursementType distinguishes commission settlements from refunds.
type DisbursementType string

const (
	DisbursementTypeCommission DisbursementType = "COMMISSION"
	DisbursementTypeRefund     DisbursementType = "REFUND"
)

// DisbursementStatus is the release state of an outbound transfer.
type DisbursementStatus string

const (
	DisbursementStatusPending DisbursementStatus = "PENDING"
	// RELEASING is the transient claim state held while a release attempt
	// is talking to the provider; only one attempt can hold it at a time.
	DisbursementStatusReleasing DisbursementStatus = "RELEASING"
	DisbursementStatusReleased  DisbursementStatus = "RELEASED"
	DisbursementStatusFailed    DisbursementStatus = "FAILED"
)

// Disbursement is an outbound money-movement record. Rows are never
// deleted; failed release attempts stay FAILED with the raw provider
// response retained for audit.
type Disbursement struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Type          DisbursementType   `gorm:"type:varchar(20)" json:"type"`
	RecipientID   uint               `gorm:"index" json:"recipient_id"`
	RecipientKind RecipientKind      `gorm:"type:varchar(20)" json:"recipient_kind"`
	Amount        float64            `gorm:"type:decimal(15,2)" json:"amount"`
	Status        DisbursementStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`

	ReleasedAt        *time.Time      `json:"released_at,omitempty"`
	TransferCode      string          `gorm:"type:varchar(100)" json:"transfer_code"`
	TransferReference string          `gorm:"type:varchar(100);index" json:"transfer_reference"`
	ProviderResponse  json.RawMessage `gorm:"type:jsonb" json:"provider_response,omitempty"`

	CreatedBy  string `gorm:"type:varchar(255)" json:"created_by"`
	ReleasedBy string `gorm:"type:varchar(255)" json:"released_by"`

	// Relationships
	Commission *Commission `gorm:"foreignKey:DisbursementID" json:"commission,omitempty"`
}
