package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/kerjalink/kerjalink-backend/internal/escrow"
	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
)

const defaultAutoApproveMaxAge = 24 * time.Hour

type staleJobFinder interface {
	FindStaleCompleted(ctx context.Context, cutoff time.Time) ([]models.Job, error)
}

type escrowReleaser interface {
	Release(ctx context.Context, input escrow.ReleaseInput) (*escrow.ReleaseResult, error)
}

// AutoApproveJobParams configures the scheduled auto-approval.
type AutoApproveJobParams struct {
	Logger *logger.Logger
	Jobs   staleJobFinder
	Escrow escrowReleaser
	MaxAge time.Duration
}

// NewAutoApproveJob constructs the job that approves completed work the
// provider left unreviewed and releases its escrow.
func NewAutoApproveJob(params AutoApproveJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if params.Escrow == nil {
		return nil, fmt.Errorf("escrow service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultAutoApproveMaxAge
	}
	return &autoApproveJob{
		logg:   params.Logger,
		jobs:   params.Jobs,
		escrow: params.Escrow,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type autoApproveJob struct {
	logg   *logger.Logger
	jobs   staleJobFinder
	escrow escrowReleaser
	maxAge time.Duration
	now    func() time.Time
}

func (j *autoApproveJob) Name() string { return "auto-approve" }

// Run releases escrow for every job completed longer than maxAge ago.
// One failing release does not stop the sweep; errors are combined.
func (j *autoApproveJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	stale, err := j.jobs.FindStaleCompleted(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale completed jobs: %w", err)
	}

	var errs []error
	released := 0
	for _, job := range stale {
		if _, err := j.escrow.Release(ctx, escrow.ReleaseInput{JobID: job.ID}); err != nil {
			jobCtx := j.logg.WithJobID(ctx, job.ID.String())
			j.logg.Error(jobCtx, "auto-approve release failed", err)
			errs = append(errs, fmt.Errorf("release job %s: %w", job.ID, err))
			continue
		}
		released++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": released})
	j.logg.Info(logCtx, "auto-approve sweep complete")
	return multierr.Combine(errs...)
}
