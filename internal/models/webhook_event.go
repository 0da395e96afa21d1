package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// WebhookEvent stores every provider notification that passed signature
// verification, for audit and manual reconciliation.
type WebhookEvent struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Event     string          `gorm:"type:varchar(100);index" json:"event"`
	Reference string          `gorm:"type:varchar(100);index" json:"reference"`
	InvoiceID *uint           `gorm:"index" json:"invoice_id,omitempty"`
	Payload   json.RawMessage `gorm:"type:jsonb" json:"payload"`
}
