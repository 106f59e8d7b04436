package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type Contact struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactBankAccount links an account number (IBAN or local format) to a contact.
type ContactBankAccount struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID     uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	ContactID     uuid.UUID `gorm:"type:uuid;index" json:"contact_id"`
	AccountNumber string    `gorm:"index" json:"account_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// NormalizeAccountNumber strips all whitespace and upper-cases an account
// number, so "cz65 0800 0000 1920" and "CZ6508000000 1920" compare equal.
func NormalizeAccountNumber(account string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, account))
}
