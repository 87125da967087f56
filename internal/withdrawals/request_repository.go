package withdrawals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/pagination"
)

// RequestRepository manages the withdraw request state machine. Every
// transition is a single conditional UPDATE keyed on the required
// status (and lock owner, for admin steps), so two admins racing on the
// same request see exactly one winner.
type RequestRepository interface {
	WithTx(tx *gorm.DB) RequestRepository
	Create(ctx context.Context, request *models.WithdrawRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WithdrawRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WithdrawRequest, string, error)
	ListByStatus(ctx context.Context, status enums.WithdrawStatus, params pagination.Params) ([]models.WithdrawRequest, string, error)
	Lock(ctx context.Context, id, adminID uuid.UUID) error
	Unlock(ctx context.Context, id, adminID uuid.UUID) error
	Approve(ctx context.Context, id, adminID uuid.UUID, note string) error
	Reject(ctx context.Context, id, adminID uuid.UUID, note string) error
	MarkSent(ctx context.Context, id uuid.UUID, receipt string) error
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a withdraw request repository.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) WithTx(tx *gorm.DB) RequestRepository {
	if tx == nil {
		return r
	}
	return &requestRepository{db: tx}
}

func (r *requestRepository) Create(ctx context.Context, request *models.WithdrawRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.WithdrawRequest, error) {
	var request models.WithdrawRequest
	err := r.db.WithContext(ctx).Preload("Method").First(&request, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdraw request not found")
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WithdrawRequest, string, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	return r.paginate(ctx, query, params)
}

func (r *requestRepository) ListByStatus(ctx context.Context, status enums.WithdrawStatus, params pagination.Params) ([]models.WithdrawRequest, string, error) {
	query := r.db.WithContext(ctx)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return r.paginate(ctx, query, params)
}

func (r *requestRepository) paginate(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.WithdrawRequest, string, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var requests []models.WithdrawRequest
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&requests).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(requests) == limit {
		requests = requests[:limit-1]
		last := requests[len(requests)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return requests, nextCursor, nil
}

// Lock is the mutual-exclusion step: PENDING and unlocked (or already
// ours) moves to PROCESSING under the calling admin.
func (r *requestRepository) Lock(ctx context.Context, id, adminID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.WithdrawRequest{}).
		Where("id = ? AND status = ? AND (admin_locked_by IS NULL OR admin_locked_by = ?)",
			id, enums.WithdrawStatusPending, adminID).
		Updates(map[string]any{
			"status":          enums.WithdrawStatusProcessing,
			"admin_locked_by": adminID,
		})
	return r.transitionResult(ctx, res, id, adminID, string(enums.WithdrawStatusPending))
}

func (r *requestRepository) Unlock(ctx context.Context, id, adminID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.WithdrawRequest{}).
		Where("id = ? AND status = ? AND admin_locked_by = ?",
			id, enums.WithdrawStatusProcessing, adminID).
		Updates(map[string]any{
			"status":          enums.WithdrawStatusPending,
			"admin_locked_by": nil,
		})
	return r.transitionResult(ctx, res, id, adminID, string(enums.WithdrawStatusProcessing))
}

func (r *requestRepository) Approve(ctx context.Context, id, adminID uuid.UUID, note string) error {
	res := r.db.WithContext(ctx).
		Model(&models.WithdrawRequest{}).
		Where("id = ? AND status = ? AND admin_locked_by = ?",
			id, enums.WithdrawStatusProcessing, adminID).
		Updates(map[string]any{
			"status":            enums.WithdrawStatusApproved,
			"admin_approved_by": adminID,
			"admin_note":        noteOrNil(note),
		})
	return r.transitionResult(ctx, res, id, adminID, string(enums.WithdrawStatusProcessing))
}

func (r *requestRepository) Reject(ctx context.Context, id, adminID uuid.UUID, note string) error {
	res := r.db.WithContext(ctx).
		Model(&models.WithdrawRequest{}).
		Where("id = ? AND status = ? AND admin_locked_by = ?",
			id, enums.WithdrawStatusProcessing, adminID).
		Updates(map[string]any{
			"status":            enums.WithdrawStatusRejected,
			"admin_rejected_by": adminID,
			"admin_note":        noteOrNil(note),
		})
	return r.transitionResult(ctx, res, id, adminID, string(enums.WithdrawStatusProcessing))
}

func (r *requestRepository) MarkSent(ctx context.Context, id uuid.UUID, receipt string) error {
	res := r.db.WithContext(ctx).
		Model(&models.WithdrawRequest{}).
		Where("id = ? AND status = ?", id, enums.WithdrawStatusApproved).
		Updates(map[string]any{
			"status":           enums.WithdrawStatusSent,
			"transfer_receipt": receipt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return pkgerrors.NewInvalidTransition("withdraw request",
			string(enums.WithdrawStatusApproved), string(existing.Status))
	}
	return nil
}

func (r *requestRepository) transitionResult(ctx context.Context, res *gorm.DB, id, adminID uuid.UUID, required string) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing.AdminLockedBy != nil && *existing.AdminLockedBy != adminID && !existing.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeConflict, "withdraw request is locked by another admin")
		}
		return pkgerrors.NewInvalidTransition("withdraw request", required, string(existing.Status))
	}
	return nil
}

func noteOrNil(note string) any {
	if note == "" {
		return nil
	}
	return note
}
