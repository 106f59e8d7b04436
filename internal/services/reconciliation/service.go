package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"payment-matching-backend/internal/models"
	"payment-matching-backend/internal/services/matching"
)

// DefaultBatchLimit caps how many unmatched transactions one run loads.
const DefaultBatchLimit = 200

var (
	tracer       = otel.Tracer("reconciliation/automatch")
	meter        = otel.Meter("reconciliation/automatch")
	itemTotal, _ = meter.Int64Counter("reconciliation.automatch.items", metric.WithDescription("Transactions processed by outcome"))
)

type Options struct {
	BatchLimit int
	// Workers > 1 scores and commits transactions of one batch concurrently.
	Workers int
}

type ReconciliationService struct {
	transactions TransactionStore
	invoices     InvoiceStore
	contacts     ContactStore
	opts         Options
	logger       *slog.Logger
	lastRuns     sync.Map // companyID -> *RunSummary
	running      sync.Map // companyID -> struct{} while a run is in flight
}

func NewReconciliationService(
	transactions TransactionStore,
	invoices InvoiceStore,
	contacts ContactStore,
	opts Options,
	logger *slog.Logger,
) *ReconciliationService {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = DefaultBatchLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationService{
		transactions: transactions,
		invoices:     invoices,
		contacts:     contacts,
		opts:         opts,
		logger:       logger.With("system", "reconciliation"),
	}
}

// LastRun returns the summary of the most recent auto-match run of a company.
func (s *ReconciliationService) LastRun(companyID uuid.UUID) (*RunSummary, bool) {
	val, ok := s.lastRuns.Load(companyID)
	if !ok {
		return nil, false
	}
	return val.(*RunSummary), true
}

// companySnapshot is the read-once, request-scoped view of a company used to
// score any number of its transactions.
type companySnapshot struct {
	invoices []matching.Invoice
	scorer   *matching.Scorer
}

func (s *ReconciliationService) loadSnapshot(ctx context.Context, companyID uuid.UUID, invoiceRows []models.Invoice) (*companySnapshot, error) {
	contacts, err := s.contacts.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	accounts, err := s.contacts.ListBankAccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact bank accounts: %w", err)
	}

	invoices := make([]matching.Invoice, 0, len(invoiceRows))
	for _, row := range invoiceRows {
		inv, err := toInvoice(row)
		if err != nil {
			s.logger.Warn("Dropping invalid invoice from candidate set", "invoice_id", row.ID, "error", err)
			continue
		}
		invoices = append(invoices, inv)
	}

	return &companySnapshot{
		invoices: invoices,
		scorer:   matching.NewScorer(toContacts(contacts), toBankAccounts(accounts)),
	}, nil
}
