package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"payment-matching-backend/internal/models"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(c).Error
}

// AddBankAccount stores the account number in normalized form.
func (r *ContactRepository) AddBankAccount(ctx context.Context, a *models.ContactBankAccount) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.AccountNumber = models.NormalizeAccountNumber(a.AccountNumber)
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ContactRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Find(&contacts).Error
	return contacts, err
}

func (r *ContactRepository) ListBankAccountsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.ContactBankAccount, error) {
	var accounts []models.ContactBankAccount
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Find(&accounts).Error
	return accounts, err
}
