package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
)

// Repository manages the job and application state the ledger flows
// depend on. Every status change is a conditional UPDATE guarded by the
// expected current status, so two actors racing on the same job cannot
// both win.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Assign(ctx context.Context, jobID, workerID uuid.UUID) error
	MarkCompleted(ctx context.Context, jobID uuid.UUID, completedAt time.Time) error
	MarkApproved(ctx context.Context, jobID uuid.UUID) error
	MarkRejected(ctx context.Context, jobID uuid.UUID) error
	MarkCancelled(ctx context.Context, jobID uuid.UUID) error
	FindStaleCompleted(ctx context.Context, cutoff time.Time) ([]models.Job, error)

	CreateApplication(ctx context.Context, application *models.JobApplication) error
	FindApplicationByID(ctx context.Context, id uuid.UUID) (*models.JobApplication, error)
	AcceptApplication(ctx context.Context, id uuid.UUID) error
	RejectOpenApplications(ctx context.Context, jobID uuid.UUID, exceptID uuid.UUID) error
}

// openApplicationStatuses are the states an application can still be
// decided from: freshly submitted or shortlisted by the provider.
var openApplicationStatuses = []enums.ApplicationStatus{
	enums.ApplicationStatusPending,
	enums.ApplicationStatusUnderReview,
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a job repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) Assign(ctx context.Context, jobID, workerID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, enums.JobStatusOpen).
		Updates(map[string]any{
			"status":    enums.JobStatusAssigned,
			"worker_id": workerID,
		})
	return r.transitionResult(ctx, res, jobID, string(enums.JobStatusOpen))
}

func (r *repository) MarkCompleted(ctx context.Context, jobID uuid.UUID, completedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status IN ?", jobID, []enums.JobStatus{enums.JobStatusAssigned, enums.JobStatusRejected}).
		Updates(map[string]any{
			"status":       enums.JobStatusCompleted,
			"completed_at": completedAt,
		})
	return r.transitionResult(ctx, res, jobID,
		string(enums.JobStatusAssigned)+" or "+string(enums.JobStatusRejected))
}

func (r *repository) MarkApproved(ctx context.Context, jobID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, enums.JobStatusCompleted).
		Update("status", enums.JobStatusApproved)
	return r.transitionResult(ctx, res, jobID, string(enums.JobStatusCompleted))
}

func (r *repository) MarkRejected(ctx context.Context, jobID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, enums.JobStatusCompleted).
		Updates(map[string]any{
			"status":          enums.JobStatusRejected,
			"rejection_count": gorm.Expr("rejection_count + 1"),
		})
	return r.transitionResult(ctx, res, jobID, string(enums.JobStatusCompleted))
}

func (r *repository) MarkCancelled(ctx context.Context, jobID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, enums.JobStatusOpen).
		Update("status", enums.JobStatusCancelled)
	return r.transitionResult(ctx, res, jobID, string(enums.JobStatusOpen))
}

func (r *repository) FindStaleCompleted(ctx context.Context, cutoff time.Time) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Where("status = ? AND completed_at IS NOT NULL AND completed_at <= ?", enums.JobStatusCompleted, cutoff).
		Order("completed_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repository) CreateApplication(ctx context.Context, application *models.JobApplication) error {
	if application.ID == uuid.Nil {
		application.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *repository) FindApplicationByID(ctx context.Context, id uuid.UUID) (*models.JobApplication, error) {
	var application models.JobApplication
	err := r.db.WithContext(ctx).First(&application, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job application not found")
	}
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *repository) AcceptApplication(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.JobApplication{}).
		Where("id = ? AND status IN ?", id, openApplicationStatuses).
		Update("status", enums.ApplicationStatusAccepted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindApplicationByID(ctx, id)
		if err != nil {
			return err
		}
		return pkgerrors.NewInvalidTransition("job application",
			string(enums.ApplicationStatusPending)+" or "+string(enums.ApplicationStatusUnderReview),
			string(existing.Status))
	}
	return nil
}

// RejectOpenApplications closes out every rival application, whether it
// was still pending or already under review.
func (r *repository) RejectOpenApplications(ctx context.Context, jobID uuid.UUID, exceptID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.JobApplication{}).
		Where("job_id = ? AND id <> ? AND status IN ?", jobID, exceptID, openApplicationStatuses).
		Update("status", enums.ApplicationStatusRejected).Error
}

func (r *repository) transitionResult(ctx context.Context, res *gorm.DB, jobID uuid.UUID, required string) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, jobID)
		if err != nil {
			return err
		}
		return pkgerrors.NewInvalidTransition("job", required, string(existing.Status))
	}
	return nil
}
