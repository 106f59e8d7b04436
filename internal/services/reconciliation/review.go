package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"payment-matching-backend/internal/models"
	"payment-matching-backend/internal/repository"
	"payment-matching-backend/internal/services/matching"
)

// SuggestMatches scores one unmatched transaction without committing anything.
func (s *ReconciliationService) SuggestMatches(ctx context.Context, companyID, txID uuid.UUID) (*matching.MatchResult, error) {
	row, err := s.getTransaction(ctx, companyID, txID)
	if err != nil {
		return nil, err
	}
	tx, err := toTransaction(*row)
	if err != nil {
		return nil, err
	}

	invoiceRows, err := s.invoices.ListOpen(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open invoices: %w", err)
	}
	snapshot, err := s.loadSnapshot(ctx, companyID, invoiceRows)
	if err != nil {
		return nil, err
	}

	result := snapshot.scorer.FindMatches(tx, snapshot.invoices)
	return &result, nil
}

// ManualMatch links a transaction to the invoice a reviewer picked. The
// invoice must be open and of the direction the transaction amount allows.
func (s *ReconciliationService) ManualMatch(ctx context.Context, companyID, txID, invoiceID uuid.UUID, userID string) (*models.BankTransaction, error) {
	row, err := s.getTransaction(ctx, companyID, txID)
	if err != nil {
		return nil, err
	}
	tx, err := toTransaction(*row)
	if err != nil {
		return nil, err
	}

	invoiceRow, err := s.invoices.GetByID(ctx, companyID, invoiceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	invoice, err := toInvoice(*invoiceRow)
	if err != nil {
		return nil, err
	}
	if !invoice.Open() || invoice.Type != matching.EligibleType(tx.Amount) {
		return nil, ErrInvoiceNotEligible
	}

	// score the single pair so the stored explanation says which signals agreed
	contacts, err := s.contacts.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	accounts, err := s.contacts.ListBankAccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact bank accounts: %w", err)
	}
	scored := matching.FindMatches(tx, []matching.Invoice{invoice}, toContacts(contacts), toBankAccounts(accounts))

	details := matchDetails{InvoiceID: invoiceID, Confidence: 1, Decision: models.AuditManualMatch}
	if scored.BestMatch != nil {
		details.Signals = scored.BestMatch.Signals
		details.Explanation = scored.BestMatch.Explanation
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	err = s.transactions.LinkInvoice(ctx, repository.InvoiceLink{
		CompanyID:     companyID,
		TransactionID: txID,
		InvoiceID:     invoiceID,
		Confidence:    1,
		Details:       raw,
		Action:        models.AuditManualMatch,
		PerformedBy:   userID,
		Reason:        "confirmed by reviewer",
	})
	if errors.Is(err, repository.ErrStateConflict) {
		return nil, ErrTransactionNotEligible
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Manual match committed", "transaction_id", txID, "invoice_id", invoiceID, "user_id", userID)
	return s.getTransaction(ctx, companyID, txID)
}

// Unmatch reverts a matched transaction that has not been posted yet.
func (s *ReconciliationService) Unmatch(ctx context.Context, companyID, txID uuid.UUID, userID, reason string) (*models.BankTransaction, error) {
	err := s.transactions.Unlink(ctx, companyID, txID, userID, reason)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if errors.Is(err, repository.ErrStateConflict) {
		return nil, ErrNotMatched
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Match reverted", "transaction_id", txID, "user_id", userID, "reason", reason)
	return s.getTransaction(ctx, companyID, txID)
}

// AuditTrail lists the link and unlink history of a transaction, oldest first.
func (s *ReconciliationService) AuditTrail(ctx context.Context, companyID, txID uuid.UUID) ([]models.MatchAuditLog, error) {
	if _, err := s.getTransaction(ctx, companyID, txID); err != nil {
		return nil, err
	}
	return s.transactions.AuditTrail(ctx, companyID, txID)
}

func (s *ReconciliationService) getTransaction(ctx context.Context, companyID, txID uuid.UUID) (*models.BankTransaction, error) {
	row, err := s.transactions.GetByID(ctx, companyID, txID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}
