package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditAutoMatch   = "auto_match"
	AuditManualMatch = "manual_match"
	AuditUnmatch     = "unmatch"
)

type MatchAuditLog struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;index" json:"company_id"`
	TransactionID   uuid.UUID  `gorm:"type:uuid;index" json:"transaction_id"`
	Action          string     `json:"action"`
	PreviousInvoice *uuid.UUID `gorm:"type:uuid" json:"previous_invoice"`
	NewInvoice      *uuid.UUID `gorm:"type:uuid" json:"new_invoice"`
	Confidence      float64    `json:"confidence"`
	PerformedBy     string     `json:"performed_by"`
	Reason          string     `json:"reason"`
	CreatedAt       time.Time  `json:"created_at"`
}
