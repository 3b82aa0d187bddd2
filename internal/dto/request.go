package dto

import "time"

type ReserveRequest struct {
	Players     int              `json:"players" validate:"required,min=1,max=4"`
	PhoneNumber string           `json:"phone_number" validate:"required"`
	Room        *RoomStayRequest `json:"room,omitempty"`
}

type RoomStayRequest struct {
	RoomID       uint      `json:"room_id" validate:"required"`
	CheckInDate  time.Time `json:"check_in_date" validate:"required"`
	CheckOutDate time.Time `json:"check_out_date" validate:"required,gtfield=CheckInDate"`
}
