package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"payment-matching-backend/internal/models"
)

type BankTransactionRepository struct {
	db *gorm.DB
}

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

// InvoiceLink describes one committed transaction -> invoice link.
type InvoiceLink struct {
	CompanyID     uuid.UUID
	TransactionID uuid.UUID
	InvoiceID     uuid.UUID
	Confidence    float64
	Details       datatypes.JSON
	Action        string
	PerformedBy   string
	Reason        string
}

// Create inserts a transaction, filling id, status and timestamps when unset.
func (r *BankTransactionRepository) Create(ctx context.Context, tx *models.BankTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Status == "" {
		tx.Status = models.TransactionUnmatched
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *BankTransactionRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	err := r.db.WithContext(ctx).
		First(&tx, "id = ? AND company_id = ?", id, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListUnmatched returns up to limit unmatched, unlinked transactions of a
// company, oldest first, optionally restricted to one bank account.
func (r *BankTransactionRepository) ListUnmatched(
	ctx context.Context,
	companyID uuid.UUID,
	bankAccountID *uuid.UUID,
	limit int,
) ([]models.BankTransaction, error) {
	var txs []models.BankTransaction

	query := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("status = ?", models.TransactionUnmatched).
		Where("invoice_id IS NULL").
		Order("transaction_date ASC").
		Order("created_at ASC").
		Limit(limit)

	if bankAccountID != nil {
		query = query.Where("bank_account_id = ?", *bankAccountID)
	}

	err := query.Find(&txs).Error
	return txs, err
}

// CompaniesWithUnmatched lists every company that has work for the matcher.
func (r *BankTransactionRepository) CompaniesWithUnmatched(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.BankTransaction{}).
		Where("status = ? AND invoice_id IS NULL", models.TransactionUnmatched).
		Distinct("company_id").
		Pluck("company_id", &ids).Error
	return ids, err
}

// LinkInvoice sets the invoice link and matched status of a still-unmatched
// transaction and writes the audit row, atomically. ErrStateConflict means
// the transaction was matched or linked by someone else first.
func (r *BankTransactionRepository) LinkInvoice(ctx context.Context, link InvoiceLink) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		now := time.Now()
		invoiceID := link.InvoiceID

		res := db.Model(&models.BankTransaction{}).
			Where("id = ? AND company_id = ?", link.TransactionID, link.CompanyID).
			Where("status = ? AND invoice_id IS NULL", models.TransactionUnmatched).
			Updates(map[string]interface{}{
				"invoice_id":       invoiceID,
				"status":           models.TransactionMatched,
				"confidence_score": link.Confidence,
				"match_details":    link.Details,
				"matched_by":       link.PerformedBy,
				"matched_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateConflict
		}

		return db.Create(&models.MatchAuditLog{
			ID:            uuid.New(),
			CompanyID:     link.CompanyID,
			TransactionID: link.TransactionID,
			Action:        link.Action,
			NewInvoice:    &invoiceID,
			Confidence:    link.Confidence,
			PerformedBy:   link.PerformedBy,
			Reason:        link.Reason,
			CreatedAt:     now,
		}).Error
	})
}

// Unlink reverts a matched (not yet posted) transaction to unmatched.
func (r *BankTransactionRepository) Unlink(ctx context.Context, companyID, txID uuid.UUID, performedBy, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var tx models.BankTransaction
		err := db.First(&tx, "id = ? AND company_id = ?", txID, companyID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		res := db.Model(&models.BankTransaction{}).
			Where("id = ? AND status = ?", txID, models.TransactionMatched).
			Updates(map[string]interface{}{
				"invoice_id":       nil,
				"status":           models.TransactionUnmatched,
				"confidence_score": 0,
				"match_details":    nil,
				"matched_by":       "",
				"matched_at":       nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStateConflict
		}

		return db.Create(&models.MatchAuditLog{
			ID:              uuid.New(),
			CompanyID:       companyID,
			TransactionID:   txID,
			Action:          models.AuditUnmatch,
			PreviousInvoice: tx.InvoiceID,
			PerformedBy:     performedBy,
			Reason:          reason,
			CreatedAt:       time.Now(),
		}).Error
	})
}

// AuditTrail returns the audit rows of a transaction, oldest first.
func (r *BankTransactionRepository) AuditTrail(ctx context.Context, companyID, txID uuid.UUID) ([]models.MatchAuditLog, error) {
	var logs []models.MatchAuditLog
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND transaction_id = ?", companyID, txID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
