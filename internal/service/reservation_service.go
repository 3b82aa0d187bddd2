package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fairwaybook/teetime-service/internal/auth"
	"github.com/fairwaybook/teetime-service/internal/cache"
	"github.com/fairwaybook/teetime-service/internal/metrics"
	"github.com/fairwaybook/teetime-service/internal/models"
	"github.com/fairwaybook/teetime-service/internal/policy"
	"github.com/fairwaybook/teetime-service/internal/repository"
	"github.com/fairwaybook/teetime-service/pkg/rabbitmq"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrTeeTimeNotFound     = errors.New("tee time not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrRoomNotFound        = errors.New("hotel room not found")
	ErrTeeTimeUnavailable  = errors.New("tee time is not available")
	ErrInsufficientSlots   = errors.New("not enough available slots for the requested players")
	ErrRoomUnavailable     = errors.New("hotel room is not available")
	ErrBookingCapExceeded  = errors.New("active booking limit reached")
	ErrTooLateToCancel     = errors.New("tee time starts within the cancellation window")
	ErrAlreadyFinalized    = errors.New("booking is already cancelled or completed")
	ErrNotPending          = errors.New("booking is not awaiting confirmation")
	ErrHoldExpired         = errors.New("booking hold has expired")
	ErrNotBookingOwner     = errors.New("booking belongs to another member")
	ErrMemberRoleRequired  = errors.New("member role required")
	ErrAdminRoleRequired   = errors.New("admin role required")
	ErrPaymentDeclined     = errors.New("payment was declined")
	ErrTransactionConflict = errors.New("reservation conflicted with a concurrent request, retry")
)

// PageSize bounds availability listings; thousands of slots exist per season.
const PageSize = 20

// RoomStay attaches a hotel room to a reservation for a date range.
type RoomStay struct {
	RoomID   uint
	CheckIn  time.Time
	CheckOut time.Time
}

type ReserveInput struct {
	Players     int
	PhoneNumber string
	Room        *RoomStay
}

// AvailabilityPage is one page of open tee times, ordered by date then time.
type AvailabilityPage struct {
	TeeTimes   []models.TeeTime `json:"tee_times"`
	TotalCount int64            `json:"total_count"`
	HasMore    bool             `json:"has_more"`
	Page       int              `json:"page"`
}

type ReservationService interface {
	Reserve(ctx context.Context, p auth.Principal, teeTimeID uint, in ReserveInput) (*models.Booking, error)
	Confirm(ctx context.Context, p auth.Principal, bookingID uint) (*models.Booking, error)
	ConfirmFromPayment(ctx context.Context, bookingID uint) error
	Cancel(ctx context.Context, p auth.Principal, bookingID uint) (*models.Booking, error)
	ForceCancel(ctx context.Context, p auth.Principal, bookingID uint) (*models.Booking, error)
	ListAvailability(ctx context.Context, date time.Time, page int) (*AvailabilityPage, error)
	GetBooking(ctx context.Context, p auth.Principal, bookingID uint) (*models.Booking, error)
	ListUserBookings(ctx context.Context, p auth.Principal) ([]models.Booking, error)
	SweepExpired(ctx context.Context, limit int) (int, error)
}

type reservationService struct {
	bookings repository.BookingRepository
	teeTimes repository.TeeTimeRepository
	rooms    repository.HotelRoomRepository
	charger  PaymentCharger
	pub      *rabbitmq.Publisher
	cache    *cache.AvailabilityCache
}

func NewReservationService(
	bookings repository.BookingRepository,
	teeTimes repository.TeeTimeRepository,
	rooms repository.HotelRoomRepository,
	charger PaymentCharger,
	pub *rabbitmq.Publisher,
	availCache *cache.AvailabilityCache,
) ReservationService {
	return &reservationService{
		bookings: bookings,
		teeTimes: teeTimes,
		rooms:    rooms,
		charger:  charger,
		pub:      pub,
		cache:    availCache,
	}
}

func (s *reservationService) Reserve(ctx context.Context, p auth.Principal, teeTimeID uint, in ReserveInput) (*models.Booking, error) {
	if p.Role != auth.RoleMember {
		return nil, ErrMemberRoleRequired
	}

	// Priced off a plain read; the authoritative capacity check happens on
	// the locked row inside the transaction.
	teeTime, err := s.teeTimes.FindByID(ctx, teeTimeID)
	if err != nil {
		return nil, ErrTeeTimeNotFound
	}

	charge, err := s.charger.Charge(ctx, p.ID, teeTime.Price*float64(in.Players))
	if err != nil {
		return nil, err
	}
	if !charge.Approved {
		return nil, ErrPaymentDeclined
	}
	status := models.StatusPending
	if charge.Settled {
		status = models.StatusConfirmed
	}

	var result *models.Booking
	var teeDate time.Time
	start := time.Now()

	err = s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// 1. Active-booking cap, counted on this transaction
		active, err := s.bookings.CountActiveByUser(ctx, tx, p.ID, now)
		if err != nil {
			return err
		}
		if policy.CapReached(active) {
			return ErrBookingCapExceeded
		}

		// 2. Lock the tee time row — serializes concurrent reserves
		tt, err := s.teeTimes.FindByIDForUpdate(ctx, tx, teeTimeID)
		if err != nil {
			return ErrTeeTimeNotFound
		}
		teeDate = tt.Date

		if !tt.IsAvailable {
			return ErrTeeTimeUnavailable
		}
		if tt.AvailableSlots < in.Players {
			return ErrInsufficientSlots
		}

		booking := &models.Booking{
			Reference:   uuid.NewString(),
			UserID:      p.ID,
			TeeTimeID:   tt.ID,
			PhoneNumber: in.PhoneNumber,
			Players:     in.Players,
			Status:      status,
			ExpiresAt:   now.Add(policy.HoldTTL),
		}

		// 3. Optional hotel room, locked the same way
		if in.Room != nil {
			room, err := s.rooms.FindByIDForUpdate(ctx, tx, in.Room.RoomID)
			if err != nil {
				return ErrRoomNotFound
			}
			if !room.IsAvailable {
				return ErrRoomUnavailable
			}
			checkIn, checkOut := in.Room.CheckIn, in.Room.CheckOut
			booking.RoomID = &room.ID
			booking.CheckInDate = &checkIn
			booking.CheckOutDate = &checkOut
			if err := s.rooms.SetAvailability(ctx, tx, room.ID, false); err != nil {
				return err
			}
		}

		if err := s.bookings.Create(ctx, tx, booking); err != nil {
			return err
		}
		if err := s.teeTimes.UpdateSlots(ctx, tx, tt.ID, tt.AvailableSlots-in.Players); err != nil {
			return err
		}

		result = booking
		return nil
	})

	metrics.ReserveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ReservationsTotal.WithLabelValues("rejected").Inc()
		return nil, translateDBError(err)
	}

	metrics.ReservationsTotal.WithLabelValues(string(status)).Inc()
	s.invalidateDate(ctx, teeDate)
	s.publish("booking.created", map[string]any{
		"booking_id": result.ID,
		"reference":  result.Reference,
		"user_id":    result.UserID,
		"status":     result.Status,
		"players":    result.Players,
	})
	return result, nil
}

func (s *reservationService) Confirm(ctx context.Context, p auth.Principal, bookingID uint) (*models.Booking, error) {
	if p.Role != auth.RoleMember {
		return nil, ErrMemberRoleRequired
	}

	var result *models.Booking
	err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return ErrBookingNotFound
		}
		if booking.UserID != p.ID {
			return ErrNotBookingOwner
		}
		if booking.Status != models.StatusPending {
			return ErrNotPending
		}
		if time.Now().After(booking.ExpiresAt) {
			return ErrHoldExpired
		}

		swapped, err := s.bookings.UpdateStatusFrom(ctx, tx, booking.ID, models.StatusPending, models.StatusConfirmed)
		if err != nil {
			return err
		}
		if !swapped {
			return ErrNotPending
		}

		booking.Status = models.StatusConfirmed
		result = booking
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	s.publish("booking.confirmed", map[string]any{"booking_id": result.ID, "reference": result.Reference})
	return result, nil
}

// ConfirmFromPayment settles a pending hold on behalf of the payment gateway.
// A hold that was already confirmed, cancelled, reclaimed or has lapsed past
// expires_at is left alone so redelivered and late settlements are harmless;
// lapsed holds belong to the sweeper.
func (s *reservationService) ConfirmFromPayment(ctx context.Context, bookingID uint) error {
	var swapped bool
	err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if booking.Status != models.StatusPending {
			return nil
		}
		if time.Now().After(booking.ExpiresAt) {
			log.Printf("[Payments] settlement for booking %d arrived after hold expiry, ignoring", bookingID)
			return nil
		}

		swapped, err = s.bookings.UpdateStatusFrom(ctx, tx, booking.ID, models.StatusPending, models.StatusConfirmed)
		return err
	})
	if err != nil {
		return translateDBError(err)
	}
	if swapped {
		s.publish("booking.confirmed", map[string]any{"booking_id": bookingID})
	}
	return nil
}

func (s *reservationService) Cancel(ctx context.Context, p auth.Principal, bookingID uint) (*models.Booking, error) {
	if p.Role != auth.RoleMember && p.Role != auth.RoleAdmin {
		return nil, ErrMemberRoleRequired
	}

	var result *models.Booking
	var teeDate time.Time

	err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return ErrBookingNotFound
		}
		if booking.UserID != p.ID && p.Role != auth.RoleAdmin {
			return ErrNotBookingOwner
		}
		if booking.IsFinal() {
			return ErrAlreadyFinalized
		}

		teeTime, err := s.teeTimes.FindByIDForUpdate(ctx, tx, booking.TeeTimeID)
		if err != nil {
			return err
		}
		teeDate = teeTime.Date

		if policy.WithinCancellationWindow(policy.StartTime(teeTime), time.Now()) {
			return ErrTooLateToCancel
		}

		if err := s.release(ctx, tx, booking, teeTime); err != nil {
			return err
		}

		booking.Status = models.StatusCancelled
		result = booking
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	metrics.CancellationsTotal.WithLabelValues("member").Inc()
	s.invalidateDate(ctx, teeDate)
	s.publish("booking.cancelled", map[string]any{"booking_id": result.ID, "reference": result.Reference})
	return result, nil
}

// ForceCancel skips the cancellation-window policy. It still transitions
// status and restores capacity in one transaction; admins never hard-delete a
// booking out from under the slot accounting.
func (s *reservationService) ForceCancel(ctx context.Context, p auth.Principal, bookingID uint) (*models.Booking, error) {
	if p.Role != auth.RoleAdmin {
		return nil, ErrAdminRoleRequired
	}

	var result *models.Booking
	var teeDate time.Time

	err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return ErrBookingNotFound
		}
		if booking.IsFinal() {
			return ErrAlreadyFinalized
		}

		teeTime, err := s.teeTimes.FindByIDForUpdate(ctx, tx, booking.TeeTimeID)
		if err != nil {
			return err
		}
		teeDate = teeTime.Date

		if err := s.release(ctx, tx, booking, teeTime); err != nil {
			return err
		}

		booking.Status = models.StatusCancelled
		result = booking
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	metrics.CancellationsTotal.WithLabelValues("admin").Inc()
	s.invalidateDate(ctx, teeDate)
	s.publish("booking.cancelled", map[string]any{"booking_id": result.ID, "reference": result.Reference, "forced": true})
	return result, nil
}

func (s *reservationService) ListAvailability(ctx context.Context, date time.Time, page int) (*AvailabilityPage, error) {
	if page < 1 {
		page = 1
	}

	if s.cache != nil {
		var cached AvailabilityPage
		hit, err := s.cache.GetPage(ctx, date, page, &cached)
		if err != nil {
			log.Printf("[Availability] cache read failed: %v", err)
		} else if hit {
			return &cached, nil
		}
	}

	offset := (page - 1) * PageSize
	teeTimes, total, err := s.teeTimes.FindAvailableByDate(ctx, date, offset, PageSize)
	if err != nil {
		return nil, err
	}

	result := &AvailabilityPage{
		TeeTimes:   teeTimes,
		TotalCount: total,
		HasMore:    int64(offset+len(teeTimes)) < total,
		Page:       page,
	}

	if s.cache != nil {
		if err := s.cache.SetPage(ctx, date, page, result); err != nil {
			log.Printf("[Availability] cache write failed: %v", err)
		}
	}
	return result, nil
}

func (s *reservationService) GetBooking(ctx context.Context, p auth.Principal, bookingID uint) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.UserID != p.ID && p.Role != auth.RoleAdmin {
		return nil, ErrNotBookingOwner
	}
	return booking, nil
}

func (s *reservationService) ListUserBookings(ctx context.Context, p auth.Principal) ([]models.Booking, error) {
	return s.bookings.FindByUserID(ctx, p.ID)
}

// SweepExpired reclaims slots held by pending bookings whose hold has lapsed.
// Each booking is its own transaction: one failure is logged and skipped so
// the rest of the sweep still runs.
func (s *reservationService) SweepExpired(ctx context.Context, limit int) (int, error) {
	expired, err := s.bookings.FindExpiredPending(ctx, time.Now(), limit)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, b := range expired {
		ok, err := s.expireHold(ctx, b.ID)
		if err != nil {
			metrics.SweepFailures.Inc()
			log.Printf("[Sweeper] failed to reclaim booking %d: %v", b.ID, err)
			continue
		}
		if ok {
			reclaimed++
		}
	}
	return reclaimed, nil
}

// expireHold transitions one pending booking to cancelled and restores its
// capacity. The compare-and-set guard makes a second sweep over the same
// booking a no-op.
func (s *reservationService) expireHold(ctx context.Context, bookingID uint) (bool, error) {
	var reclaimed bool
	var reference string
	var teeDate time.Time

	err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if booking.Status != models.StatusPending || time.Now().Before(booking.ExpiresAt) {
			return nil
		}

		teeTime, err := s.teeTimes.FindByIDForUpdate(ctx, tx, booking.TeeTimeID)
		if err != nil {
			return err
		}

		swapped, err := s.bookings.UpdateStatusFrom(ctx, tx, booking.ID, models.StatusPending, models.StatusCancelled)
		if err != nil {
			return err
		}
		if !swapped {
			return nil
		}

		if err := s.restoreCapacity(ctx, tx, booking, teeTime); err != nil {
			return err
		}

		reclaimed = true
		reference = booking.Reference
		teeDate = teeTime.Date
		return nil
	})
	if err != nil {
		return false, translateDBError(err)
	}

	if reclaimed {
		metrics.HoldsReclaimed.Inc()
		s.invalidateDate(ctx, teeDate)
		s.publish("booking.expired", map[string]any{"booking_id": bookingID, "reference": reference})
	}
	return reclaimed, nil
}

// release flips the booking to cancelled and hands its capacity back. Both
// writes ride the caller's transaction.
func (s *reservationService) release(ctx context.Context, tx *gorm.DB, booking *models.Booking, teeTime *models.TeeTime) error {
	if err := s.bookings.UpdateStatus(ctx, tx, booking.ID, models.StatusCancelled); err != nil {
		return err
	}
	return s.restoreCapacity(ctx, tx, booking, teeTime)
}

func (s *reservationService) restoreCapacity(ctx context.Context, tx *gorm.DB, booking *models.Booking, teeTime *models.TeeTime) error {
	if err := s.teeTimes.UpdateSlots(ctx, tx, teeTime.ID, teeTime.AvailableSlots+booking.Players); err != nil {
		return err
	}
	if booking.RoomID != nil {
		if err := s.rooms.SetAvailability(ctx, tx, *booking.RoomID, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *reservationService) invalidateDate(ctx context.Context, date time.Time) {
	if s.cache == nil || date.IsZero() {
		return
	}
	if err := s.cache.InvalidateDate(ctx, date); err != nil {
		log.Printf("[Availability] cache invalidation failed: %v", err)
	}
}

func (s *reservationService) publish(routingKey string, payload map[string]any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(routingKey, payload); err != nil {
		log.Printf("[Events] publish %s failed: %v", routingKey, err)
	}
}

// translateDBError maps Postgres serialization and deadlock failures to the
// retryable conflict error; everything else passes through.
func translateDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return ErrTransactionConflict
		}
	}
	return err
}
