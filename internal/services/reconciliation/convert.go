package reconciliation

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"payment-matching-backend/internal/models"
	"payment-matching-backend/internal/services/matching"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// decimals validate as their float value, so "required" means non-zero
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func toTransaction(row models.BankTransaction) (matching.Transaction, error) {
	if err := validate.Struct(row); err != nil {
		return matching.Transaction{}, fmt.Errorf("%w: transaction %s: %v", ErrInvalidRecord, row.ID, err)
	}
	if row.Status != models.TransactionUnmatched || row.InvoiceID != nil {
		return matching.Transaction{}, ErrTransactionNotEligible
	}
	return matching.Transaction{
		ID:                  row.ID,
		Amount:              row.Amount,
		CounterpartyName:    row.CounterpartyName,
		CounterpartyAccount: row.CounterpartyAccount,
		ReferenceCode:       row.ReferenceCode,
	}, nil
}

func toInvoice(row models.Invoice) (matching.Invoice, error) {
	if err := validate.Struct(row); err != nil {
		return matching.Invoice{}, fmt.Errorf("%w: invoice %s: %v", ErrInvalidRecord, row.ID, err)
	}
	return matching.Invoice{
		ID:            row.ID,
		Type:          row.Type,
		InvoiceNumber: row.InvoiceNumber,
		ReferenceCode: row.ReferenceCode,
		Total:         row.TotalAmount,
		Paid:          row.PaidAmount,
		Status:        row.Status,
		ContactID:     row.ContactID,
	}, nil
}

func toContacts(rows []models.Contact) []matching.Contact {
	contacts := make([]matching.Contact, 0, len(rows))
	for _, c := range rows {
		contacts = append(contacts, matching.Contact{ID: c.ID, Name: c.Name})
	}
	return contacts
}

func toBankAccounts(rows []models.ContactBankAccount) []matching.ContactBankAccount {
	accounts := make([]matching.ContactBankAccount, 0, len(rows))
	for _, a := range rows {
		accounts = append(accounts, matching.ContactBankAccount{ContactID: a.ContactID, AccountNumber: a.AccountNumber})
	}
	return accounts
}
