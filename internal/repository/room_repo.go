package repository

import (
	"context"

	"github.com/fairwaybook/teetime-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HotelRoomRepository interface {
	FindByID(ctx context.Context, id uint) (*models.HotelRoom, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.HotelRoom, error)
	SetAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error
}

type hotelRoomRepository struct {
	db *gorm.DB
}

func NewHotelRoomRepository(db *gorm.DB) HotelRoomRepository {
	return &hotelRoomRepository{db: db}
}

func (r *hotelRoomRepository) FindByID(ctx context.Context, id uint) (*models.HotelRoom, error) {
	var room models.HotelRoom
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *hotelRoomRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.HotelRoom, error) {
	var room models.HotelRoom
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *hotelRoomRepository) SetAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error {
	return tx.WithContext(ctx).
		Model(&models.HotelRoom{}).
		Where("id = ?", id).
		Update("is_available", available).Error
}
