package repository

import (
	"context"
	"time"

	"github.com/fairwaybook/teetime-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeeTimeRepository interface {
	FindByID(ctx context.Context, id uint) (*models.TeeTime, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TeeTime, error)
	UpdateSlots(ctx context.Context, tx *gorm.DB, id uint, availableSlots int) error
	FindAvailableByDate(ctx context.Context, date time.Time, offset, limit int) ([]models.TeeTime, int64, error)
}

type teeTimeRepository struct {
	db *gorm.DB
}

func NewTeeTimeRepository(db *gorm.DB) TeeTimeRepository {
	return &teeTimeRepository{db: db}
}

func (r *teeTimeRepository) FindByID(ctx context.Context, id uint) (*models.TeeTime, error) {
	var tt models.TeeTime
	if err := r.db.WithContext(ctx).First(&tt, id).Error; err != nil {
		return nil, err
	}
	return &tt, nil
}

// FindByIDForUpdate acquires a row-level lock on the tee time within the given
// transaction. All slot mutations go through this lock so concurrent reserves
// against the same slot serialize.
func (r *teeTimeRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TeeTime, error) {
	var tt models.TeeTime
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tt, id).Error; err != nil {
		return nil, err
	}
	return &tt, nil
}

// UpdateSlots writes the new slot count and recomputes is_available in the
// same statement, so the derived flag can never drift from the counter.
func (r *teeTimeRepository) UpdateSlots(ctx context.Context, tx *gorm.DB, id uint, availableSlots int) error {
	return tx.WithContext(ctx).
		Model(&models.TeeTime{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"available_slots": availableSlots,
			"is_available":    availableSlots > 0,
		}).Error
}

func (r *teeTimeRepository) FindAvailableByDate(ctx context.Context, date time.Time, offset, limit int) ([]models.TeeTime, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.TeeTime{}).
		Where("date = ? AND is_available = ? AND available_slots > 0", date.Format("2006-01-02"), true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var teeTimes []models.TeeTime
	if err := q.Order("date ASC, time ASC").
		Offset(offset).
		Limit(limit).
		Find(&teeTimes).Error; err != nil {
		return nil, 0, err
	}
	return teeTimes, total, nil
}
