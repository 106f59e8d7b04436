package reconciliation

import "errors"

var (
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrTransactionNotEligible = errors.New("transaction is not eligible for matching")
	ErrInvoiceNotEligible     = errors.New("invoice is not eligible for this transaction")
	ErrInvoiceClaimed         = errors.New("invoice already claimed in this run")
	ErrNotMatched             = errors.New("transaction is not in matched state")
	ErrInvalidRecord          = errors.New("invalid record")
	ErrRunInProgress          = errors.New("auto-match already running for this company")
)
