package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"payment-matching-backend/internal/models"
	"payment-matching-backend/internal/repository"
)

type TransactionStore interface {
	ListUnmatched(ctx context.Context, companyID uuid.UUID, bankAccountID *uuid.UUID, limit int) ([]models.BankTransaction, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.BankTransaction, error)
	LinkInvoice(ctx context.Context, link repository.InvoiceLink) error
	Unlink(ctx context.Context, companyID, txID uuid.UUID, performedBy, reason string) error
	AuditTrail(ctx context.Context, companyID, txID uuid.UUID) ([]models.MatchAuditLog, error)
}

type InvoiceStore interface {
	ListOpen(ctx context.Context, companyID uuid.UUID) ([]models.Invoice, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Invoice, error)
}

type ContactStore interface {
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Contact, error)
	ListBankAccountsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.ContactBankAccount, error)
}
