package matching

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-matching-backend/internal/models"
)

// Transaction is the subset of a bank transaction the scorer looks at.
type Transaction struct {
	ID                  uuid.UUID
	Amount              decimal.Decimal
	CounterpartyName    string
	CounterpartyAccount string
	ReferenceCode       string
}

// Invoice is an invoice as the scorer sees it. Type is issued or received.
type Invoice struct {
	ID            uuid.UUID
	Type          string
	InvoiceNumber string
	ReferenceCode string
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Status        string
	ContactID     *uuid.UUID
}

// Remaining is the part of the invoice total not yet paid.
func (inv Invoice) Remaining() decimal.Decimal {
	return inv.Total.Sub(inv.Paid)
}

// Open reports whether the invoice is neither fully settled nor voided.
func (inv Invoice) Open() bool {
	return inv.Status != models.InvoicePaid && inv.Status != models.InvoiceCancelled
}

// Contact supplies the name used by the name signal.
type Contact struct {
	ID   uuid.UUID
	Name string
}

// ContactBankAccount ties an account number on file to a contact.
type ContactBankAccount struct {
	ContactID     uuid.UUID
	AccountNumber string
}

// Signal names one piece of evidence that contributed to a candidate score.
type Signal string

const (
	SignalReferenceCode Signal = "reference_code"
	SignalAmount        Signal = "amount"
	SignalAccount       Signal = "account"
	SignalName          Signal = "name"
)

// MatchCandidate is one ranked, unpersisted invoice suggestion.
type MatchCandidate struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ReferenceCode string          `json:"reference_code"`
	ContactName   string          `json:"contact_name"`
	Total         decimal.Decimal `json:"total"`
	Remaining     decimal.Decimal `json:"remaining"`
	Confidence    float64         `json:"confidence"`
	Signals       []Signal        `json:"signals"`
	Explanation   string          `json:"explanation"`
}

// MatchResult holds the ranked candidates for one transaction and whether
// the best of them clears the auto-match threshold.
type MatchResult struct {
	TransactionID uuid.UUID        `json:"transaction_id"`
	Candidates    []MatchCandidate `json:"candidates"`
	BestMatch     *MatchCandidate  `json:"best_match"`
	AutoMatch     bool             `json:"auto_match"`
}
