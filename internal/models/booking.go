package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// Booking owns the relationship between a member, a tee time and optionally a
// hotel room while it is live. A pending booking is a hold: it keeps its slots
// until confirmed or until ExpiresAt passes and the sweeper reclaims it.
type Booking struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Reference    string        `gorm:"not null;uniqueIndex" json:"reference"`
	UserID       string        `gorm:"not null" json:"user_id"`
	TeeTimeID    uint          `gorm:"not null" json:"tee_time_id"`
	RoomID       *uint         `json:"room_id,omitempty"`
	PhoneNumber  string        `gorm:"not null" json:"phone_number"`
	Players      int           `gorm:"not null" json:"players"`
	Status       BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CheckInDate  *time.Time    `json:"check_in_date,omitempty"`
	CheckOutDate *time.Time    `json:"check_out_date,omitempty"`
	ExpiresAt    time.Time     `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	TeeTime *TeeTime   `gorm:"foreignKey:TeeTimeID" json:"tee_time,omitempty"`
	Room    *HotelRoom `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// IsFinal reports whether the booking can no longer be cancelled.
func (b *Booking) IsFinal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}
