package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB opens gorm over sqlmock. Expectations use sqlmock's regexp query
// matcher, so a test that expects "FOR UPDATE" fails when the generated SQL
// carries no locking clause.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return gdb, mock
}

func TestTeeTimeFindByIDForUpdate_TakesRowLock(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "tee_times" WHERE (.+) FOR UPDATE`).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "available_slots", "is_available"}).AddRow(1, 4, true))

	repo := NewTeeTimeRepository(db)
	tt, err := repo.FindByIDForUpdate(context.Background(), db, 1)

	require.NoError(t, err)
	assert.Equal(t, uint(1), tt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingFindByIDForUpdate_TakesRowLock(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "bookings" WHERE (.+) FOR UPDATE`).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status"}).AddRow(5, "member-001", "pending"))

	repo := NewBookingRepository(db)
	booking, err := repo.FindByIDForUpdate(context.Background(), db, 5)

	require.NoError(t, err)
	assert.Equal(t, uint(5), booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHotelRoomFindByIDForUpdate_TakesRowLock(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "hotel_rooms" WHERE (.+) FOR UPDATE`).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_number", "is_available"}).AddRow(7, "201", true))

	repo := NewHotelRoomRepository(db)
	room, err := repo.FindByIDForUpdate(context.Background(), db, 7)

	require.NoError(t, err)
	assert.Equal(t, uint(7), room.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
