package models

import (
	"time"

	"gorm.io/gorm"
)

// DisbursementMode selects how the exception list is interpreted.
type DisbursementMode string

const (
	// DisbursementModeAllExcept auto-disburses for everyone except the
	// recipients in the exception list.
	DisbursementModeAllExcept DisbursementMode = "ALL_EXCEPT"
	// DisbursementModeNoneExcept auto-disburses only for the recipients in
	// the exception list.
	DisbursementModeNoneExcept DisbursementMode = "NONE_EXCEPT"
)

// RecipientRef identifies a recipient by kind and id.
type RecipientRef struct {
	Kind RecipientKind `json:"kind"`
	ID   uint          `json:"id"`
}

// DisbursementConfig is the auto-disbursement policy record. A default
// (NONE_EXCEPT, empty list) is materialized on first read.
type DisbursementConfig struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Mode       DisbursementMode `gorm:"type:varchar(20);default:'NONE_EXCEPT'" json:"mode"`
	Exceptions []RecipientRef   `gorm:"serializer:json" json:"exceptions"`
}

// HasException reports whether the recipient is in the exception list.
func (c DisbursementConfig) HasException(kind RecipientKind, id uint) bool {
	for _, ref := range c.Exceptions {
		if ref.Kind == kind && ref.ID == id {
			return true
		}
	}
	return false
}

// AutoDisburse applies the mode to the exception list for one recipient.
func (c DisbursementConfig) AutoDisburse(kind RecipientKind, id uint) bool {
	if c.Mode == DisbursementModeAllExcept {
		return !c.HasException(kind, id)
	}
	return c.HasException(kind, id)
}
