package escrow

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

// Repository manages escrow rows. One escrow per job; release is a
// conditional UPDATE so a double release can never pay out twice.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, escrow *models.Escrow) error
	FindByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error)
	MarkReleased(ctx context.Context, id uuid.UUID, releasedAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an escrow repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, escrow *models.Escrow) error {
	if escrow.ID == uuid.Nil {
		escrow.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(escrow).Error
}

func (r *repository) FindByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := r.db.WithContext(ctx).First(&escrow, "job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "escrow not found for job")
	}
	if err != nil {
		return nil, err
	}
	return &escrow, nil
}

func (r *repository) MarkReleased(ctx context.Context, id uuid.UUID, releasedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Escrow{}).
		Where("id = ? AND status = ?", id, enums.EscrowStatusHeld).
		Updates(map[string]any{
			"status":      enums.EscrowStatusReleased,
			"released_at": releasedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var existing models.Escrow
		err := r.db.WithContext(ctx).First(&existing, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "escrow not found")
		}
		if err != nil {
			return err
		}
		return pkgerrors.NewInvalidTransition("escrow",
			string(enums.EscrowStatusHeld), string(existing.Status))
	}
	return nil
}
