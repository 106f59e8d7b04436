package reconciliation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"payment-matching-backend/internal/models"
	"payment-matching-backend/internal/repository"
)

type fakeTransactionStore struct {
	mu      sync.Mutex
	rows    []*models.BankTransaction
	links   []repository.InvoiceLink
	audits  []models.MatchAuditLog
	listErr error
	linkErr func(link repository.InvoiceLink) error
}

func (f *fakeTransactionStore) add(tx models.BankTransaction) *models.BankTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := tx
	f.rows = append(f.rows, &row)
	return &row
}

func (f *fakeTransactionStore) ListUnmatched(_ context.Context, companyID uuid.UUID, bankAccountID *uuid.UUID, limit int) ([]models.BankTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.BankTransaction
	for _, row := range f.rows {
		if len(out) >= limit {
			break
		}
		if row.CompanyID != companyID || row.Status != models.TransactionUnmatched || row.InvoiceID != nil {
			continue
		}
		if bankAccountID != nil && row.BankAccountID != *bankAccountID {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeTransactionStore) GetByID(_ context.Context, companyID, id uuid.UUID) (*models.BankTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id && row.CompanyID == companyID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTransactionStore) LinkInvoice(_ context.Context, link repository.InvoiceLink) error {
	if f.linkErr != nil {
		if err := f.linkErr(link); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID != link.TransactionID || row.CompanyID != link.CompanyID {
			continue
		}
		if row.Status != models.TransactionUnmatched || row.InvoiceID != nil {
			return repository.ErrStateConflict
		}
		invoiceID := link.InvoiceID
		row.InvoiceID = &invoiceID
		row.Status = models.TransactionMatched
		row.ConfidenceScore = link.Confidence
		row.MatchDetails = link.Details
		row.MatchedBy = link.PerformedBy
		f.links = append(f.links, link)
		f.audits = append(f.audits, models.MatchAuditLog{
			ID:            uuid.New(),
			CompanyID:     link.CompanyID,
			TransactionID: link.TransactionID,
			Action:        link.Action,
			NewInvoice:    &invoiceID,
			Confidence:    link.Confidence,
			PerformedBy:   link.PerformedBy,
			Reason:        link.Reason,
		})
		return nil
	}
	return repository.ErrStateConflict
}

func (f *fakeTransactionStore) Unlink(_ context.Context, companyID, txID uuid.UUID, performedBy, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID != txID || row.CompanyID != companyID {
			continue
		}
		if row.Status != models.TransactionMatched {
			return repository.ErrStateConflict
		}
		f.audits = append(f.audits, models.MatchAuditLog{
			ID:              uuid.New(),
			CompanyID:       companyID,
			TransactionID:   txID,
			Action:          models.AuditUnmatch,
			PreviousInvoice: row.InvoiceID,
			PerformedBy:     performedBy,
			Reason:          reason,
		})
		row.Status = models.TransactionUnmatched
		row.InvoiceID = nil
		return nil
	}
	return repository.ErrNotFound
}

type fakeInvoiceStore struct {
	rows      []models.Invoice
	listErr   error
	listCalls int
}

func (f *fakeInvoiceStore) ListOpen(_ context.Context, companyID uuid.UUID) ([]models.Invoice, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Invoice
	for _, inv := range f.rows {
		if inv.CompanyID == companyID && inv.Status != models.InvoicePaid && inv.Status != models.InvoiceCancelled {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvoiceStore) GetByID(_ context.Context, companyID, id uuid.UUID) (*models.Invoice, error) {
	for _, inv := range f.rows {
		if inv.ID == id && inv.CompanyID == companyID {
			cp := inv
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeContactStore struct {
	contacts []models.Contact
	accounts []models.ContactBankAccount
	err      error
}

func (f *fakeContactStore) ListByCompany(_ context.Context, companyID uuid.UUID) ([]models.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Contact
	for _, c := range f.contacts {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactStore) ListBankAccountsByCompany(_ context.Context, companyID uuid.UUID) ([]models.ContactBankAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.ContactBankAccount
	for _, a := range f.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeTransactionStore) AuditTrail(_ context.Context, companyID, txID uuid.UUID) ([]models.MatchAuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MatchAuditLog
	for _, a := range f.audits {
		if a.CompanyID == companyID && a.TransactionID == txID {
			out = append(out, a)
		}
	}
	return out, nil
}
