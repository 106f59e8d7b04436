// Package matching scores open invoices against a single bank transaction.
//
// Scoring is additive over four independent signals:
//   - reference code equal to the invoice reference code (0.50)
//   - amount equal to the invoice remaining balance within one cent (0.30)
//   - counterparty account on file for the invoice contact (0.10)
//   - counterparty name containing the invoice contact name (0.10)
//
// A match is auto-committable only at 0.90 or above, which a reference code
// alone or the weak signals alone can never reach.
//
// Example usage:
//
//	scorer := matching.NewScorer(contacts, accounts)
//	result := scorer.FindMatches(tx, invoices)
//	if result.AutoMatch {
//		invoiceID := result.BestMatch.InvoiceID
//	}
package matching

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payment-matching-backend/internal/models"
)

const (
	// MaxCandidates is the number of ranked candidates kept per transaction.
	MaxCandidates = 5
	// AutoMatchThreshold is the minimum confidence for committing without review.
	AutoMatchThreshold = 0.90
)

// Weights in hundredths of confidence.
const (
	weightReferenceCode = 50
	weightAmount        = 30
	weightAccount       = 10
	weightName          = 10
	maxPoints           = 100
)

var amountTolerance = decimal.New(1, -2)

var signalLabels = map[Signal]string{
	SignalReferenceCode: "reference code match",
	SignalAmount:        "amount match",
	SignalAccount:       "account number match",
	SignalName:          "name match",
}

// Scorer holds the contact lookups for one company. It is immutable after
// construction and safe for concurrent use.
type Scorer struct {
	contactNames    map[uuid.UUID]string
	contactAccounts map[uuid.UUID]map[string]struct{}
}

// NewScorer indexes contacts and their bank accounts.
func NewScorer(contacts []Contact, accounts []ContactBankAccount) *Scorer {
	s := &Scorer{
		contactNames:    make(map[uuid.UUID]string, len(contacts)),
		contactAccounts: make(map[uuid.UUID]map[string]struct{}),
	}
	for _, c := range contacts {
		s.contactNames[c.ID] = c.Name
	}
	for _, a := range accounts {
		number := models.NormalizeAccountNumber(a.AccountNumber)
		if number == "" {
			continue
		}
		set, ok := s.contactAccounts[a.ContactID]
		if !ok {
			set = make(map[string]struct{})
			s.contactAccounts[a.ContactID] = set
		}
		set[number] = struct{}{}
	}
	return s
}

// FindMatches is a one-shot helper for callers scoring a single transaction.
func FindMatches(tx Transaction, invoices []Invoice, contacts []Contact, accounts []ContactBankAccount) MatchResult {
	return NewScorer(contacts, accounts).FindMatches(tx, invoices)
}

// FindMatches ranks the eligible invoices for tx. Candidates keep the input
// order of invoices with equal confidence.
func (s *Scorer) FindMatches(tx Transaction, invoices []Invoice) MatchResult {
	result := MatchResult{TransactionID: tx.ID, Candidates: []MatchCandidate{}}

	wantType := EligibleType(tx.Amount)
	if wantType == "" {
		return result
	}

	amount := tx.Amount.Abs()
	account := models.NormalizeAccountNumber(tx.CounterpartyAccount)
	counterparty := normalizeName(tx.CounterpartyName)

	for _, inv := range invoices {
		if inv.Type != wantType || !inv.Open() {
			continue
		}

		var points int
		var signals []Signal

		if tx.ReferenceCode != "" && tx.ReferenceCode == inv.ReferenceCode {
			points += weightReferenceCode
			signals = append(signals, SignalReferenceCode)
		}

		remaining := inv.Remaining()
		if remaining.IsPositive() && amount.Sub(remaining).Abs().LessThanOrEqual(amountTolerance) {
			points += weightAmount
			signals = append(signals, SignalAmount)
		}

		var contactName string
		if inv.ContactID != nil {
			contactName = s.contactNames[*inv.ContactID]

			if account != "" {
				if _, ok := s.contactAccounts[*inv.ContactID][account]; ok {
					points += weightAccount
					signals = append(signals, SignalAccount)
				}
			}

			name := normalizeName(contactName)
			if name != "" && counterparty != "" && strings.Contains(counterparty, name) {
				points += weightName
				signals = append(signals, SignalName)
			}
		}

		if points <= 0 {
			continue
		}
		if points > maxPoints {
			points = maxPoints
		}

		result.Candidates = append(result.Candidates, MatchCandidate{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ReferenceCode: inv.ReferenceCode,
			ContactName:   contactName,
			Total:         inv.Total,
			Remaining:     remaining,
			Confidence:    float64(points) / maxPoints,
			Signals:       signals,
			Explanation:   explain(signals),
		})
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Confidence > result.Candidates[j].Confidence
	})
	if len(result.Candidates) > MaxCandidates {
		result.Candidates = result.Candidates[:MaxCandidates]
	}

	if len(result.Candidates) > 0 {
		best := result.Candidates[0]
		result.BestMatch = &best
		result.AutoMatch = IsAutoMatch(best.Confidence)
	}

	return result
}

// IsAutoMatch reports whether a confidence clears the auto-commit threshold.
func IsAutoMatch(confidence float64) bool {
	return confidence >= AutoMatchThreshold
}

// EligibleType returns the invoice type a transaction amount may settle,
// or "" for a zero amount.
func EligibleType(amount decimal.Decimal) string {
	switch amount.Sign() {
	case 1:
		return models.InvoiceIssued
	case -1:
		return models.InvoiceReceived
	default:
		return ""
	}
}

func explain(signals []Signal) string {
	parts := make([]string, 0, len(signals))
	for _, sig := range signals {
		parts = append(parts, signalLabels[sig])
	}
	return strings.Join(parts, ", ")
}
