package models

import (
	"time"

	"gorm.io/gorm"
)

// Property is a unit offered for installment purchase.
type Property struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title    string  `gorm:"type:varchar(255)" json:"title"`
	Location string  `gorm:"type:varchar(255)" json:"location"`
	Price    float64 `gorm:"type:decimal(15,2)" json:"price"`

	// InterestRate is applied as a flat overdue fee per late installment,
	// not prorated by days overdue. The name is historical; changing the
	// semantics would alter existing fee amounts.
	InterestRate float64 `gorm:"type:decimal(15,2)" json:"interest_rate"`
}
