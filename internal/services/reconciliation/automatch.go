package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"payment-matching-backend/internal/models"
	"payment-matching-backend/internal/repository"
	"payment-matching-backend/internal/services/matching"
)

// Per-transaction outcomes of a run. Everything except OutcomeMatched counts
// as unmatched and is left for human review or the next run.
const (
	OutcomeMatched     = "matched"
	OutcomeNeedsReview = "needs_review"
	OutcomeNoMatch     = "no_match"
	OutcomeSkipped     = "skipped"
)

type MatchDetail struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	Confidence    float64   `json:"confidence"`
}

type ItemResult struct {
	TransactionID uuid.UUID  `json:"transaction_id"`
	Outcome       string     `json:"outcome"`
	Reason        string     `json:"reason,omitempty"`
	InvoiceID     *uuid.UUID `json:"invoice_id,omitempty"`
	Confidence    float64    `json:"confidence"`
}

type RunSummary struct {
	CompanyID   uuid.UUID     `json:"company_id"`
	Matched     int           `json:"matched"`
	Unmatched   int           `json:"unmatched"`
	Details     []MatchDetail `json:"details"`
	Items       []ItemResult  `json:"items"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
}

// matchDetails is the explanation stored on the transaction at commit time.
type matchDetails struct {
	InvoiceID   uuid.UUID         `json:"invoice_id"`
	Confidence  float64           `json:"confidence"`
	Signals     []matching.Signal `json:"signals"`
	Explanation string            `json:"explanation"`
	Candidates  int               `json:"candidate_count"`
	Decision    string            `json:"decision"`
}

// invoiceClaims ensures one invoice is committed to at most one transaction
// within a run, whichever worker gets there first.
type invoiceClaims struct {
	mu      sync.Mutex
	claimed map[uuid.UUID]uuid.UUID // invoice -> transaction
}

func newInvoiceClaims() *invoiceClaims {
	return &invoiceClaims{claimed: make(map[uuid.UUID]uuid.UUID)}
}

func (c *invoiceClaims) claim(invoiceID, txID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.claimed[invoiceID]; taken {
		return false
	}
	c.claimed[invoiceID] = txID
	return true
}

func (c *invoiceClaims) release(invoiceID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claimed, invoiceID)
}

// RunAutoMatching scores every unmatched transaction of a company (up to the
// batch limit) and commits the matches that clear the auto-match threshold.
// Only failures to load the batch inputs are returned as errors; a failure on
// a single transaction is reported as a skipped item. A second run for a
// company whose run is still in flight returns ErrRunInProgress.
func (s *ReconciliationService) RunAutoMatching(
	ctx context.Context,
	companyID uuid.UUID,
	userID string,
	bankAccountID *uuid.UUID,
) (*RunSummary, error) {
	if _, busy := s.running.LoadOrStore(companyID, struct{}{}); busy {
		s.logger.Info("Auto-match already running", "company_id", companyID)
		return nil, ErrRunInProgress
	}
	defer s.running.Delete(companyID)

	ctx, span := tracer.Start(ctx, "reconciliation.auto_match", trace.WithAttributes(
		attribute.String("company.id", companyID.String()),
	))
	defer span.End()

	summary := &RunSummary{
		CompanyID: companyID,
		Details:   []MatchDetail{},
		Items:     []ItemResult{},
		StartedAt: time.Now(),
	}

	txRows, err := s.transactions.ListUnmatched(ctx, companyID, bankAccountID, s.opts.BatchLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to load unmatched transactions: %w", err)
	}
	if len(txRows) == 0 {
		s.logger.Debug("No unmatched transactions", "company_id", companyID)
		return s.finish(ctx, summary), nil
	}

	invoiceRows, err := s.invoices.ListOpen(ctx, companyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to load open invoices: %w", err)
	}
	if len(invoiceRows) == 0 {
		s.logger.Debug("No open invoices", "company_id", companyID, "transactions", len(txRows))
		for _, row := range txRows {
			summary.Items = append(summary.Items, ItemResult{
				TransactionID: row.ID,
				Outcome:       OutcomeNoMatch,
				Reason:        "no open invoices",
			})
		}
		return s.finish(ctx, summary), nil
	}

	snapshot, err := s.loadSnapshot(ctx, companyID, invoiceRows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Info("Auto-matching batch",
		"company_id", companyID,
		"transactions", len(txRows),
		"invoices", len(snapshot.invoices),
		"workers", s.opts.Workers,
	)

	claims := newInvoiceClaims()
	items := make([]ItemResult, len(txRows))

	if s.opts.Workers <= 1 {
		for i := range txRows {
			items[i] = s.matchOne(ctx, companyID, userID, txRows[i], snapshot, claims)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.Workers)
		for i := range txRows {
			i := i
			g.Go(func() error {
				items[i] = s.matchOne(gctx, companyID, userID, txRows[i], snapshot, claims)
				return nil
			})
		}
		_ = g.Wait()
	}

	summary.Items = items
	return s.finish(ctx, summary), nil
}

func (s *ReconciliationService) finish(ctx context.Context, summary *RunSummary) *RunSummary {
	for _, item := range summary.Items {
		itemTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", item.Outcome)))
		if item.Outcome != OutcomeMatched {
			continue
		}
		summary.Matched++
		summary.Details = append(summary.Details, MatchDetail{
			TransactionID: item.TransactionID,
			InvoiceID:     *item.InvoiceID,
			Confidence:    item.Confidence,
		})
	}
	summary.Unmatched = len(summary.Items) - summary.Matched
	summary.CompletedAt = time.Now()

	s.lastRuns.Store(summary.CompanyID, summary)

	s.logger.Info("Auto-matching finished",
		"company_id", summary.CompanyID,
		"matched", summary.Matched,
		"unmatched", summary.Unmatched,
		"duration", summary.CompletedAt.Sub(summary.StartedAt),
	)
	return summary
}

func (s *ReconciliationService) matchOne(
	ctx context.Context,
	companyID uuid.UUID,
	userID string,
	row models.BankTransaction,
	snapshot *companySnapshot,
	claims *invoiceClaims,
) (item ItemResult) {
	item = ItemResult{TransactionID: row.ID}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic while matching", "transaction_id", row.ID, "panic", r)
			item = ItemResult{
				TransactionID: row.ID,
				Outcome:       OutcomeSkipped,
				Reason:        fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	tx, err := toTransaction(row)
	if err != nil {
		s.logger.Warn("Skipping transaction", "transaction_id", row.ID, "error", err)
		item.Outcome = OutcomeSkipped
		item.Reason = err.Error()
		return item
	}

	result := snapshot.scorer.FindMatches(tx, snapshot.invoices)
	if result.BestMatch == nil {
		item.Outcome = OutcomeNoMatch
		return item
	}

	best := result.BestMatch
	invoiceID := best.InvoiceID
	item.InvoiceID = &invoiceID
	item.Confidence = best.Confidence

	if !result.AutoMatch {
		item.Outcome = OutcomeNeedsReview
		item.Reason = best.Explanation
		return item
	}

	if !claims.claim(invoiceID, row.ID) {
		s.logger.Warn("Invoice already claimed in this run", "transaction_id", row.ID, "invoice_id", invoiceID)
		item.Outcome = OutcomeSkipped
		item.Reason = ErrInvoiceClaimed.Error()
		return item
	}

	details, err := json.Marshal(matchDetails{
		InvoiceID:   invoiceID,
		Confidence:  best.Confidence,
		Signals:     best.Signals,
		Explanation: best.Explanation,
		Candidates:  len(result.Candidates),
		Decision:    models.AuditAutoMatch,
	})
	if err != nil {
		claims.release(invoiceID)
		item.Outcome = OutcomeSkipped
		item.Reason = err.Error()
		return item
	}

	err = s.transactions.LinkInvoice(ctx, repository.InvoiceLink{
		CompanyID:     companyID,
		TransactionID: row.ID,
		InvoiceID:     invoiceID,
		Confidence:    best.Confidence,
		Details:       details,
		Action:        models.AuditAutoMatch,
		PerformedBy:   userID,
		Reason:        best.Explanation,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			// another writer got to the transaction first and may have linked
			// this invoice, so the claim stays until the run ends
			err = ErrTransactionNotEligible
		} else {
			claims.release(invoiceID)
		}
		s.logger.Error("Failed to commit match", "transaction_id", row.ID, "invoice_id", invoiceID, "error", err)
		item.Outcome = OutcomeSkipped
		item.Reason = fmt.Sprintf("commit failed: %v", err)
		return item
	}

	s.logger.Debug("Committed match",
		"transaction_id", row.ID,
		"invoice_id", invoiceID,
		"confidence", best.Confidence,
	)
	item.Outcome = OutcomeMatched
	item.Reason = best.Explanation
	return item
}
