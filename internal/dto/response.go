package dto

import (
	"time"

	"github.com/fairwaybook/teetime-service/internal/models"
	"github.com/fairwaybook/teetime-service/internal/service"
)

type BookingResponse struct {
	ID           uint                 `json:"id"`
	Reference    string               `json:"reference"`
	TeeTimeID    uint                 `json:"tee_time_id"`
	UserID       string               `json:"user_id"`
	Players      int                  `json:"players"`
	Status       models.BookingStatus `json:"status"`
	RoomID       *uint                `json:"room_id,omitempty"`
	CheckInDate  *time.Time           `json:"check_in_date,omitempty"`
	CheckOutDate *time.Time           `json:"check_out_date,omitempty"`
	ExpiresAt    time.Time            `json:"expires_at"`
	CreatedAt    time.Time            `json:"created_at"`
}

type TeeTimeResponse struct {
	ID             uint      `json:"id"`
	Date           time.Time `json:"date"`
	Time           string    `json:"time"`
	CourseID       uint      `json:"course_id"`
	MaxPlayers     int       `json:"max_players"`
	AvailableSlots int       `json:"available_slots"`
	Price          float64   `json:"price"`
}

type AvailabilityResponse struct {
	Data       []TeeTimeResponse `json:"data"`
	HasMore    bool              `json:"has_more"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		Reference:    b.Reference,
		TeeTimeID:    b.TeeTimeID,
		UserID:       b.UserID,
		Players:      b.Players,
		Status:       b.Status,
		RoomID:       b.RoomID,
		CheckInDate:  b.CheckInDate,
		CheckOutDate: b.CheckOutDate,
		ExpiresAt:    b.ExpiresAt,
		CreatedAt:    b.CreatedAt,
	}
}

func ToTeeTimeResponse(tt *models.TeeTime) TeeTimeResponse {
	return TeeTimeResponse{
		ID:             tt.ID,
		Date:           tt.Date,
		Time:           tt.Time,
		CourseID:       tt.CourseID,
		MaxPlayers:     tt.MaxPlayers,
		AvailableSlots: tt.AvailableSlots,
		Price:          tt.Price,
	}
}

func ToAvailabilityResponse(page *service.AvailabilityPage) AvailabilityResponse {
	data := make([]TeeTimeResponse, len(page.TeeTimes))
	for i := range page.TeeTimes {
		data[i] = ToTeeTimeResponse(&page.TeeTimes[i])
	}
	return AvailabilityResponse{
		Data:       data,
		HasMore:    page.HasMore,
		TotalCount: page.TotalCount,
		Page:       page.Page,
	}
}
