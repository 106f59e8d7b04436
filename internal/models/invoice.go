package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice types. Issued invoices are receivables, received invoices are payables.
const (
	InvoiceIssued   = "issued"
	InvoiceReceived = "received"
)

const (
	InvoiceDraft         = "draft"
	InvoiceSent          = "sent"
	InvoiceOverdue       = "overdue"
	InvoicePartiallyPaid = "partially_paid"
	InvoicePaid          = "paid"
	InvoiceCancelled     = "cancelled"
)

type Invoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id" validate:"required"`
	CompanyID     uuid.UUID       `gorm:"type:uuid;index" json:"company_id" validate:"required"`
	ContactID     *uuid.UUID      `gorm:"type:uuid;index" json:"contact_id"`
	Type          string          `gorm:"index" json:"type" validate:"oneof=issued received"`
	InvoiceNumber string          `json:"invoice_number"`
	ReferenceCode string          `gorm:"index" json:"reference_code"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(18,2)" json:"total_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:numeric(18,2)" json:"paid_amount" validate:"gte=0"`
	Status        string          `gorm:"index" json:"status" validate:"oneof=draft sent overdue partially_paid paid cancelled"`
	DueDate       time.Time       `json:"due_date"`
	CreatedAt     time.Time       `json:"created_at"`
}
