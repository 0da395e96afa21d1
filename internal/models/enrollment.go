package models

import (
	"time"

	"gorm.io/gorm"
)

// EnrollmentStatus is the aggregate payment state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusOngoing   EnrollmentStatus = "ONGOING"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// Enrollment is a client's agreement to pay for a property in installments.
type Enrollment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ClientID   uint  `gorm:"index" json:"client_id"`
	PropertyID uint  `gorm:"index" json:"property_id"`
	AgentID    uint  `gorm:"index" json:"agent_id"`
	PartnerID  *uint `gorm:"index" json:"partner_id,omitempty"`

	TotalAmount      float64          `gorm:"type:decimal(15,2)" json:"total_amount"`
	AmountPaid       float64          `gorm:"type:decimal(15,2)" json:"amount_paid"`
	InstallmentCount int              `json:"installment_count"`
	Status           EnrollmentStatus `gorm:"type:varchar(20);default:'ONGOING'" json:"status"`

	// Relationships
	Client   Client    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Property Property  `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Agent    Agent     `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Partner  *Partner  `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	Invoices []Invoice `gorm:"foreignKey:EnrollmentID" json:"invoices,omitempty"`
}
