package models

import "time"

type RoomType string

const (
	RoomStandard RoomType = "standard"
	RoomDeluxe   RoomType = "deluxe"
	RoomSuite    RoomType = "suite"
)

// HotelRoom availability is a single boolean: the room is unavailable while
// any pending or confirmed booking holds it, regardless of stay dates.
type HotelRoom struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RoomNumber    string    `gorm:"not null;uniqueIndex" json:"room_number"`
	Type          RoomType  `gorm:"type:varchar(20);not null;default:'standard'" json:"type"`
	Capacity      int       `gorm:"not null" json:"capacity"`
	PricePerNight float64   `gorm:"not null" json:"price_per_night"`
	IsAvailable   bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
