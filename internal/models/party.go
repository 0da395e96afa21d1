package models

import (
	"time"

	"gorm.io/gorm"
)

// RecipientKind identifies which kind of party a commission or
// disbursement is owed to.
type RecipientKind string

const (
	RecipientKindAgent   RecipientKind = "AGENT"
	RecipientKindPartner RecipientKind = "PARTNER"
)

// BankDetails holds the transfer destination for a recipient.
// An empty AccountNumber means no bank account is configured.
type BankDetails struct {
	BankCode      string `gorm:"type:varchar(20)" json:"bank_code"`
	AccountNumber string `gorm:"type:varchar(50)" json:"account_number"`
	AccountName   string `gorm:"type:varchar(255)" json:"account_name"`
}

// Configured reports whether the details are complete enough to transfer to.
func (b BankDetails) Configured() bool {
	return b.BankCode != "" && b.AccountNumber != ""
}

// Client is a buyer paying for a property in installments.
type Client struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name  string `gorm:"type:varchar(255)" json:"name"`
	Email string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone string `gorm:"type:varchar(50)" json:"phone"`
}

// Agent is a sales agent earning commission on paid installments.
type Agent struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string      `gorm:"type:varchar(255)" json:"name"`
	Email       string      `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone       string      `gorm:"type:varchar(50)" json:"phone"`
	BankDetails BankDetails `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`
}

// Partner is a referring partner earning commission on paid installments.
type Partner struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string      `gorm:"type:varchar(255)" json:"name"`
	Email       string      `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone       string      `gorm:"type:varchar(50)" json:"phone"`
	BankDetails BankDetails `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`
}
