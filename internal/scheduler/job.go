package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	service "payment-matching-backend/internal/services/reconciliation"
)

// Job is a unit of work executed by the worker pool.
type Job interface {
	// Execute runs the job. Implementations should respect ctx cancellation.
	Execute(ctx context.Context) error

	// CompanyID identifies whose data the job touches, for logs and metrics.
	CompanyID() string

	Description() string
}

// AutoMatcher runs one auto-match pass for a company.
type AutoMatcher interface {
	RunAutoMatching(ctx context.Context, companyID uuid.UUID, userID string, bankAccountID *uuid.UUID) (*service.RunSummary, error)
}

// AutoMatchJob runs auto-matching over all unmatched transactions of one company.
type AutoMatchJob struct {
	companyID uuid.UUID
	userID    string
	matcher   AutoMatcher
}

func NewAutoMatchJob(companyID uuid.UUID, userID string, matcher AutoMatcher) *AutoMatchJob {
	return &AutoMatchJob{companyID: companyID, userID: userID, matcher: matcher}
}

// Execute runs one pass. A pass already in flight for the company, started
// by an earlier tick or over HTTP, counts as done.
func (j *AutoMatchJob) Execute(ctx context.Context) error {
	_, err := j.matcher.RunAutoMatching(ctx, j.companyID, j.userID, nil)
	if errors.Is(err, service.ErrRunInProgress) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auto-match company %s: %w", j.companyID, err)
	}
	return nil
}

func (j *AutoMatchJob) CompanyID() string {
	return j.companyID.String()
}

func (j *AutoMatchJob) Description() string {
	return "auto-match"
}

// CompanyLister lists companies that currently have unmatched transactions.
type CompanyLister interface {
	CompaniesWithUnmatched(ctx context.Context) ([]uuid.UUID, error)
}

// AutoMatchJobs returns a job provider that creates one AutoMatchJob per
// company with pending transactions.
func AutoMatchJobs(companies CompanyLister, matcher AutoMatcher, userID string) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		ids, err := companies.CompaniesWithUnmatched(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list companies: %w", err)
		}
		jobs := make([]Job, 0, len(ids))
		for _, id := range ids {
			jobs = append(jobs, NewAutoMatchJob(id, userID, matcher))
		}
		return jobs, nil
	}
}
