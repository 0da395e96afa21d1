package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentLink is a single-use pointer from a public token to one invoice's
// hosted checkout session. A new initialization for the same invoice
// supersedes any previously active link.
type PaymentLink struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Token        string `gorm:"type:varchar(100);uniqueIndex" json:"token"`
	InvoiceID    uint   `gorm:"index" json:"invoice_id"`
	EnrollmentID uint   `gorm:"index" json:"enrollment_id"`

	// Provider checkout session handles.
	Reference        string          `gorm:"type:varchar(100);index" json:"reference"`
	AccessCode       string          `gorm:"type:varchar(100)" json:"access_code"`
	AuthorizationURL string          `gorm:"type:varchar(500)" json:"authorization_url"`
	ProviderResponse json.RawMessage `gorm:"type:jsonb" json:"provider_response,omitempty"`

	IsActive  bool       `gorm:"default:true" json:"is_active"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`

	// Relationships
	Invoice Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}
