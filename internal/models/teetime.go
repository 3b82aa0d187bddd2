package models

import "time"

// TeeTime is one bookable starting slot on a course. AvailableSlots counts
// remaining player capacity; IsAvailable must equal AvailableSlots > 0 after
// every committed mutation.
type TeeTime struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Date           time.Time `gorm:"type:date;not null;index:idx_tee_times_date_time,priority:1" json:"date"`
	Time           string    `gorm:"type:varchar(5);not null;index:idx_tee_times_date_time,priority:2" json:"time"`
	CourseID       uint      `gorm:"not null" json:"course_id"`
	MaxPlayers     int       `gorm:"not null;default:4" json:"max_players"`
	AvailableSlots int       `gorm:"not null" json:"available_slots"`
	Price          float64   `gorm:"not null" json:"price"`
	IsAvailable    bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
