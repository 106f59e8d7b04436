package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	TransactionUnmatched = "unmatched"
	TransactionMatched   = "matched"
	TransactionPosted    = "posted"
)

type BankTransaction struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id" validate:"required"`
	CompanyID           uuid.UUID       `gorm:"type:uuid;index" json:"company_id" validate:"required"`
	BankAccountID       uuid.UUID       `gorm:"type:uuid;index" json:"bank_account_id"`
	TransactionDate     time.Time       `gorm:"column:transaction_date" json:"transaction_date"`
	Amount              decimal.Decimal `gorm:"type:numeric(18,2)" json:"amount" validate:"required"`
	CounterpartyName    string          `json:"counterparty_name"`
	CounterpartyAccount string          `json:"counterparty_account"`
	ReferenceCode       string          `gorm:"index" json:"reference_code"`
	ConstantCode        string          `json:"constant_code"`
	SpecificCode        string          `json:"specific_code"`
	Description         string          `json:"description"`
	Status              string          `gorm:"index" json:"status" validate:"oneof=unmatched matched posted"`
	InvoiceID           *uuid.UUID      `gorm:"type:uuid;index" json:"invoice_id"`
	ConfidenceScore     float64         `json:"confidence_score"`
	MatchDetails        datatypes.JSON  `json:"match_details"`
	MatchedBy           string          `json:"matched_by"`
	MatchedAt           *time.Time      `json:"matched_at"`
	CreatedAt           time.Time       `json:"created_at"`
}
