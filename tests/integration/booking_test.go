//go:build integration

package integration

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fairwaybook/teetime-service/internal/auth"
	"github.com/fairwaybook/teetime-service/internal/models"
	"github.com/fairwaybook/teetime-service/internal/repository"
	"github.com/fairwaybook/teetime-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberP(id string) auth.Principal {
	return auth.Principal{ID: id, Role: auth.RoleMember}
}

func adminP(id string) auth.Principal {
	return auth.Principal{ID: id, Role: auth.RoleAdmin}
}

// createTeeTime inserts a tee time starting the given lead time from now.
func createTeeTime(t *testing.T, lead time.Duration, maxPlayers, slots int) *models.TeeTime {
	t.Helper()
	at := time.Now().Add(lead)
	tt := &models.TeeTime{
		Date:           time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.Local),
		Time:           at.Format("15:04"),
		CourseID:       1,
		MaxPlayers:     maxPlayers,
		AvailableSlots: slots,
		Price:          95,
		IsAvailable:    slots > 0,
	}
	require.NoError(t, testDB.Create(tt).Error)
	return tt
}

func createRoom(t *testing.T, number string) *models.HotelRoom {
	t.Helper()
	room := &models.HotelRoom{
		RoomNumber:    number,
		Type:          models.RoomStandard,
		Capacity:      2,
		PricePerNight: 180,
		IsAvailable:   true,
	}
	require.NoError(t, testDB.Create(room).Error)
	return room
}

func newService() service.ReservationService {
	bookings := repository.NewBookingRepository(testDB)
	teeTimes := repository.NewTeeTimeRepository(testDB)
	rooms := repository.NewHotelRoomRepository(testDB)
	return service.NewReservationService(bookings, teeTimes, rooms, service.MockCharger{}, nil, nil)
}

func slotsOf(t *testing.T, teeTimeID uint) int {
	t.Helper()
	var tt models.TeeTime
	require.NoError(t, testDB.First(&tt, teeTimeID).Error)
	return tt.AvailableSlots
}

// 8 members race for a foursome; exactly 4 single-player reservations can win.
func TestConcurrentReservations_NoOverbooking(t *testing.T) {
	cleanTables()
	tt := createTeeTime(t, 72*time.Hour, 4, 4)
	svc := newService()

	attempts := 8
	var wg sync.WaitGroup
	results := make(chan *models.Booking, attempts)
	errs := make(chan error, attempts)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(idx int) {
			defer wg.Done()
			booking, err := svc.Reserve(t.Context(), memberP(fmt.Sprintf("member-%03d", idx)), tt.ID,
				service.ReserveInput{Players: 1, PhoneNumber: "555-0101"})
			if err != nil {
				errs <- err
				return
			}
			results <- booking
		}(i)
	}
	wg.Wait()
	close(results)
	close(errs)

	succeeded := 0
	for range results {
		succeeded++
	}
	rejected := 0
	for err := range errs {
		assert.ErrorIs(t, err, service.ErrInsufficientSlots)
		rejected++
	}

	assert.Equal(t, 4, succeeded, "exactly four single-player reservations fit a foursome")
	assert.Equal(t, 4, rejected)
	assert.Equal(t, 0, slotsOf(t, tt.ID))

	var confirmed int64
	testDB.Model(&models.Booking{}).
		Where("tee_time_id = ? AND status = ?", tt.ID, models.StatusConfirmed).
		Count(&confirmed)
	assert.Equal(t, int64(4), confirmed)
}

// Reserve 3 of 4, a foursome of 2 must wait for the cancellation, then fits.
func TestReserveCancelReserve(t *testing.T) {
	cleanTables()
	tt := createTeeTime(t, 72*time.Hour, 4, 4)
	svc := newService()

	first, err := svc.Reserve(t.Context(), memberP("member-a"), tt.ID,
		service.ReserveInput{Players: 3, PhoneNumber: "555-0101"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, first.Status)
	assert.Equal(t, 1, slotsOf(t, tt.ID))

	_, err = svc.Reserve(t.Context(), memberP("member-b"), tt.ID,
		service.ReserveInput{Players: 2, PhoneNumber: "555-0102"})
	assert.ErrorIs(t, err, service.ErrInsufficientSlots)

	cancelled, err := svc.Cancel(t.Context(), memberP("member-a"), first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 4, slotsOf(t, tt.ID))

	second, err := svc.Reserve(t.Context(), memberP("member-b"), tt.ID,
		service.ReserveInput{Players: 2, PhoneNumber: "555-0102"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, second.Status)
	assert.Equal(t, 2, slotsOf(t, tt.ID))
}

// A member holds at most three active bookings; cancelling frees a slot in the cap.
func TestActiveBookingCap(t *testing.T) {
	cleanTables()
	svc := newService()

	var teeTimes []*models.TeeTime
	for i := 0; i < 4; i++ {
		teeTimes = append(teeTimes, createTeeTime(t, time.Duration(48+i*24)*time.Hour, 4, 4))
	}

	var bookings []*models.Booking
	for i := 0; i < 3; i++ {
		b, err := svc.Reserve(t.Context(), memberP("member-cap"), teeTimes[i].ID,
			service.ReserveInput{Players: 1, PhoneNumber: "555-0101"})
		require.NoError(t, err)
		bookings = append(bookings, b)
	}

	_, err := svc.Reserve(t.Context(), memberP("member-cap"), teeTimes[3].ID,
		service.ReserveInput{Players: 1, PhoneNumber: "555-0101"})
	assert.ErrorIs(t, err, service.ErrBookingCapExceeded)

	_, err = svc.Cancel(t.Context(), memberP("member-cap"), bookings[0].ID)
	require.NoError(t, err)

	_, err = svc.Reserve(t.Context(), memberP("member-cap"), teeTimes[3].ID,
		service.ReserveInput{Players: 1, PhoneNumber: "555-0101"})
	assert.NoError(t, err)
}

// Members cannot cancel within 24 hours of the tee time; admins can.
func TestCancellationWindow(t *testing.T) {
	cleanTables()
	svc := newService()

	soon := createTeeTime(t, 23*time.Hour, 4, 4)
	later := createTeeTime(t, 72*time.Hour, 4, 4)

	soonBooking, err := svc.Reserve(t.Context(), memberP("member-a"), soon.ID,
		service.ReserveInput{Players: 2, PhoneNumber: "555-0101"})
	require.NoError(t, err)

	laterBooking, err := svc.Reserve(t.Context(), memberP("member-a"), later.ID,
		service.ReserveInput{Players: 2, PhoneNumber: "555-0101"})
	require.NoError(t, err)

	_, err = svc.Cancel(t.Context(), memberP("member-a"), soonBooking.ID)
	assert.ErrorIs(t, err, service.ErrTooLateToCancel)
	assert.Equal(t, 2, slotsOf(t, soon.ID), "capacity must not change on a refused cancel")

	_, err = svc.Cancel(t.Context(), memberP("member-a"), laterBooking.ID)
	assert.NoError(t, err)

	// Admin override ignores the window
	forced, err := svc.ForceCancel(t.Context(), adminP("admin-1"), soonBooking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, forced.Status)
	assert.Equal(t, 4, slotsOf(t, soon.ID))
}

// A booking with a room releases the room when cancelled.
func TestRoomReleaseOnCancel(t *testing.T) {
	cleanTables()
	svc := newService()
	tt := createTeeTime(t, 72*time.Hour, 4, 4)
	room := createRoom(t, "201")

	checkIn := time.Now().Add(72 * time.Hour)
	booking, err := svc.Reserve(t.Context(), memberP("member-a"), tt.ID, service.ReserveInput{
		Players:     2,
		PhoneNumber: "555-0101",
		Room:        &service.RoomStay{RoomID: room.ID, CheckIn: checkIn, CheckOut: checkIn.Add(48 * time.Hour)},
	})
	require.NoError(t, err)
	require.NotNil(t, booking.RoomID)

	var held models.HotelRoom
	require.NoError(t, testDB.First(&held, room.ID).Error)
	assert.False(t, held.IsAvailable)

	// A second guest cannot take the held room
	_, err = svc.Reserve(t.Context(), memberP("member-b"), tt.ID, service.ReserveInput{
		Players:     1,
		PhoneNumber: "555-0102",
		Room:        &service.RoomStay{RoomID: room.ID, CheckIn: checkIn, CheckOut: checkIn.Add(24 * time.Hour)},
	})
	assert.ErrorIs(t, err, service.ErrRoomUnavailable)

	_, err = svc.Cancel(t.Context(), memberP("member-a"), booking.ID)
	require.NoError(t, err)

	var released models.HotelRoom
	require.NoError(t, testDB.First(&released, room.ID).Error)
	assert.True(t, released.IsAvailable)
}

// An expired pending hold is reclaimed exactly once, even across repeat sweeps.
func TestSweepExpiredHolds(t *testing.T) {
	cleanTables()
	svc := newService()

	// Tee time with two slots held by a lapsed pending booking
	tt := createTeeTime(t, 72*time.Hour, 4, 2)
	hold := &models.Booking{
		Reference:   "ref-expired",
		UserID:      "member-gone",
		TeeTimeID:   tt.ID,
		PhoneNumber: "555-0101",
		Players:     2,
		Status:      models.StatusPending,
		ExpiresAt:   time.Now().Add(-1 * time.Hour),
	}
	require.NoError(t, testDB.Create(hold).Error)

	reclaimed, err := svc.SweepExpired(t.Context(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)
	assert.Equal(t, 4, slotsOf(t, tt.ID))

	var swept models.Booking
	require.NoError(t, testDB.First(&swept, hold.ID).Error)
	assert.Equal(t, models.StatusCancelled, swept.Status)

	// Second sweep must be a no-op
	reclaimed, err = svc.SweepExpired(t.Context(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
	assert.Equal(t, 4, slotsOf(t, tt.ID))
}

// A live pending hold is left alone by the sweeper and can still be confirmed.
func TestSweepLeavesLiveHolds(t *testing.T) {
	cleanTables()
	svc := newService()

	tt := createTeeTime(t, 72*time.Hour, 4, 3)
	hold := &models.Booking{
		Reference:   "ref-live",
		UserID:      "member-a",
		TeeTimeID:   tt.ID,
		PhoneNumber: "555-0101",
		Players:     1,
		Status:      models.StatusPending,
		ExpiresAt:   time.Now().Add(12 * time.Hour),
	}
	require.NoError(t, testDB.Create(hold).Error)

	reclaimed, err := svc.SweepExpired(t.Context(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)

	confirmed, err := svc.Confirm(t.Context(), memberP("member-a"), hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
}

func TestReserveUnknownTeeTime(t *testing.T) {
	cleanTables()
	svc := newService()

	_, err := svc.Reserve(t.Context(), memberP("member-a"), 99999,
		service.ReserveInput{Players: 1, PhoneNumber: "555-0101"})
	assert.ErrorIs(t, err, service.ErrTeeTimeNotFound)
}

func TestListAvailabilityOrdering(t *testing.T) {
	cleanTables()
	svc := newService()

	at := time.Now().Add(72 * time.Hour)
	date := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.Local)
	for _, clock := range []string{"14:30", "08:00", "10:15"} {
		require.NoError(t, testDB.Create(&models.TeeTime{
			Date:           date,
			Time:           clock,
			CourseID:       1,
			MaxPlayers:     4,
			AvailableSlots: 4,
			Price:          95,
			IsAvailable:    true,
		}).Error)
	}
	// Sold-out slot must not be listed
	require.NoError(t, testDB.Create(&models.TeeTime{
		Date:        date,
		Time:        "09:00",
		CourseID:    1,
		MaxPlayers:  4,
		Price:       95,
		IsAvailable: false,
	}).Error)

	page, err := svc.ListAvailability(t.Context(), date, 1)
	require.NoError(t, err)
	require.Len(t, page.TeeTimes, 3)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.False(t, page.HasMore)
	assert.Equal(t, "08:00", page.TeeTimes[0].Time)
	assert.Equal(t, "10:15", page.TeeTimes[1].Time)
	assert.Equal(t, "14:30", page.TeeTimes[2].Time)
}
