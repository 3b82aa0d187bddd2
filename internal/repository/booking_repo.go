package repository

import (
	"context"
	"time"

	"github.com/fairwaybook/teetime-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Booking, error)
	CountActiveByUser(ctx context.Context, tx *gorm.DB, userID string, from time.Time) (int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error
	UpdateStatusFrom(ctx context.Context, tx *gorm.DB, bookingID uint, from, to models.BookingStatus) (bool, error)
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).
		Preload("TeeTime").
		Preload("Room").
		First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Preload("TeeTime").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// CountActiveByUser counts the user's pending/confirmed bookings for tee times
// on or after the given date. Must run on the reserve transaction so the
// booking cap is re-validated against committed state before commit.
func (r *bookingRepository) CountActiveByUser(ctx context.Context, tx *gorm.DB, userID string, from time.Time) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Joins("JOIN tee_times ON tee_times.id = bookings.tee_time_id").
		Where("bookings.user_id = ? AND bookings.status IN ? AND tee_times.date >= ?",
			userID,
			[]models.BookingStatus{models.StatusPending, models.StatusConfirmed},
			from.Format("2006-01-02")).
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("status", status).Error
}

// UpdateStatusFrom is a compare-and-set transition. It returns false when the
// booking was no longer in the expected state, which makes hold reclamation
// and confirmation idempotent.
func (r *bookingRepository) UpdateStatusFrom(ctx context.Context, tx *gorm.DB, bookingID uint, from, to models.BookingStatus) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bookingRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.StatusPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
