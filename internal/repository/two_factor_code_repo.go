package repository

import (
	"context"
	"errors"

	"staffhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TwoFactorCodeRepository interface {
	Create(ctx context.Context, code *entity.TwoFactorCode) error
	// FindUnused returns the most recently issued unused code matching the
	// submitted digits, regardless of expiry. Expiry is the caller's concern
	// so that an expired match can be reported distinctly from a miss.
	FindUnused(ctx context.Context, userID uuid.UUID, code string) (*entity.TwoFactorCode, error)
	// Consume flips used=false to used=true for the given row. It reports
	// false when the row was already consumed, so exactly one of any number
	// of concurrent attempts on the same code wins.
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.TwoFactorCode, error)
	ListAll(ctx context.Context) ([]entity.TwoFactorCode, error)
}

type twoFactorCodeRepository struct {
	db *gorm.DB
}

func NewTwoFactorCodeRepository(db *gorm.DB) TwoFactorCodeRepository {
	return &twoFactorCodeRepository{db: db}
}

func (r *twoFactorCodeRepository) Create(ctx context.Context, code *entity.TwoFactorCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *twoFactorCodeRepository) FindUnused(ctx context.Context, userID uuid.UUID, code string) (*entity.TwoFactorCode, error) {
	var record entity.TwoFactorCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND used = false", userID, code).
		Order("created_at DESC").
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &record, err
}

func (r *twoFactorCodeRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.TwoFactorCode{}).
		Where("id = ? AND used = false", id).
		Update("used", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *twoFactorCodeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.TwoFactorCode, error) {
	var codes []entity.TwoFactorCode
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&codes).Error
	return codes, err
}

func (r *twoFactorCodeRepository) ListAll(ctx context.Context) ([]entity.TwoFactorCode, error) {
	var codes []entity.TwoFactorCode
	err := r.db.WithContext(ctx).Order("created_at").Find(&codes).Error
	return codes, err
}
