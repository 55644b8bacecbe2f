package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shibbu04/EventBook/internal/model"
)

func newMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookingRepo(db), mock
}

const (
	lockEventQuery = "SELECT price, available_seats, date FROM events WHERE id=\\? FOR UPDATE"
	insertBooking  = "INSERT INTO bookings"
	decrementSeats = "UPDATE events SET available_seats = available_seats - \\?"
	incrementSeats = "UPDATE events SET available_seats = available_seats \\+ \\?"
	cancelBooking  = "UPDATE bookings SET status=\\?"
)

func eventRow(price int64, available int, date time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"price", "available_seats", "date"}).
		AddRow(price, available, date)
}

func TestCreateConfirmed(t *testing.T) {
	future := time.Now().UTC().Add(48 * time.Hour)

	t.Run("books seats and decrements availability atomically", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockEventQuery).WithArgs(uint64(5)).
			WillReturnRows(eventRow(50000, 10, future))
		mock.ExpectExec(insertBooking).
			WithArgs(uint64(5), uint64(9), 3, int64(150000), model.BookingStatusConfirmed, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectExec(decrementSeats).WithArgs(3, uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		b, err := repo.CreateConfirmed(context.Background(), 5, 9, 3)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), b.ID)
		assert.Equal(t, int64(150000), b.TotalAmount)
		assert.Equal(t, model.BookingStatusConfirmed, b.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient seats rolls back and reports figures", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockEventQuery).WithArgs(uint64(5)).
			WillReturnRows(eventRow(50000, 2, future))
		mock.ExpectRollback()

		_, err := repo.CreateConfirmed(context.Background(), 5, 9, 3)
		var insufficient *InsufficientSeatsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 2, insufficient.Available)
		assert.Equal(t, 3, insufficient.Requested)
		assert.Equal(t, "Only 2 seats available. You requested 3 seats.", err.Error())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero availability still yields the typed error", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockEventQuery).WithArgs(uint64(5)).
			WillReturnRows(eventRow(50000, 0, future))
		mock.ExpectRollback()

		_, err := repo.CreateConfirmed(context.Background(), 5, 9, 1)
		var insufficient *InsufficientSeatsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 0, insufficient.Available)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("event in the past is rejected", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockEventQuery).WithArgs(uint64(5)).
			WillReturnRows(eventRow(50000, 10, time.Now().UTC().Add(-time.Hour)))
		mock.ExpectRollback()

		_, err := repo.CreateConfirmed(context.Background(), 5, 9, 1)
		assert.ErrorIs(t, err, ErrEventExpired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown event maps to ErrEventNotFound", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockEventQuery).WithArgs(uint64(404)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.CreateConfirmed(context.Background(), 404, 9, 1)
		assert.ErrorIs(t, err, ErrEventNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back the seat decrement", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockEventQuery).WithArgs(uint64(5)).
			WillReturnRows(eventRow(50000, 10, future))
		mock.ExpectExec(insertBooking).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := repo.CreateConfirmed(context.Background(), 5, 9, 2)
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("seat decrement failure rolls back the booking insert", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockEventQuery).WithArgs(uint64(5)).
			WillReturnRows(eventRow(50000, 10, future))
		mock.ExpectExec(insertBooking).
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectExec(decrementSeats).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := repo.CreateConfirmed(context.Background(), 5, 9, 2)
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func cancelRow(id, eventID, userID uint64, qty int, eventDate time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "event_id", "user_id", "quantity", "total_amount", "status", "booking_date", "date",
	}).AddRow(id, eventID, userID, qty, int64(100000), model.BookingStatusConfirmed,
		time.Now().UTC().Add(-time.Hour), eventDate)
}

func TestCancel(t *testing.T) {
	const cutoff = 24 * time.Hour

	t.Run("flips status and restores seats before the cutoff", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM bookings b").
			WithArgs(uint64(42), model.BookingStatusConfirmed).
			WillReturnRows(cancelRow(42, 5, 9, 2, time.Now().UTC().Add(48*time.Hour)))
		mock.ExpectExec(cancelBooking).
			WithArgs(model.BookingStatusCancelled, uint64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(incrementSeats).WithArgs(2, uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		b, err := repo.Cancel(context.Background(), 42, 9, false, cutoff)
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusCancelled, b.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inside the cutoff window it is rejected", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM bookings b").
			WithArgs(uint64(42), model.BookingStatusConfirmed).
			WillReturnRows(cancelRow(42, 5, 9, 2, time.Now().UTC().Add(23*time.Hour)))
		mock.ExpectRollback()

		_, err := repo.Cancel(context.Background(), 42, 9, false, cutoff)
		assert.ErrorIs(t, err, ErrCancellationWindowClosed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("at slightly over the cutoff it succeeds", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM bookings b").
			WithArgs(uint64(42), model.BookingStatusConfirmed).
			WillReturnRows(cancelRow(42, 5, 9, 2, time.Now().UTC().Add(cutoff+time.Minute)))
		mock.ExpectExec(cancelBooking).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(incrementSeats).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := repo.Cancel(context.Background(), 42, 9, false, cutoff)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled or unknown booking reads as not found", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM bookings b").
			WithArgs(uint64(42), model.BookingStatusConfirmed).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.Cancel(context.Background(), 42, 9, false, cutoff)
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else's booking is forbidden", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM bookings b").
			WithArgs(uint64(42), model.BookingStatusConfirmed).
			WillReturnRows(cancelRow(42, 5, 7, 2, time.Now().UTC().Add(48*time.Hour)))
		mock.ExpectRollback()

		_, err := repo.Cancel(context.Background(), 42, 9, false, cutoff)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin may cancel any booking", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM bookings b").
			WithArgs(uint64(42), model.BookingStatusConfirmed).
			WillReturnRows(cancelRow(42, 5, 7, 2, time.Now().UTC().Add(48*time.Hour)))
		mock.ExpectExec(cancelBooking).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(incrementSeats).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := repo.Cancel(context.Background(), 42, 1, true, cutoff)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListBindsPagination(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings b")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(35))
	mock.ExpectQuery("ORDER BY b.booking_date DESC LIMIT \\? OFFSET \\?").
		WithArgs(uint64(9), 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_id", "user_id", "quantity", "total_amount", "status", "booking_date",
			"title", "date", "location", "name", "email",
		}))

	_, total, err := repo.List(context.Background(), BookingFilter{UserID: 9, Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 35, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDScopesToOwner(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("AND b.user_id=\\?").
		WithArgs(uint64(42), uint64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42, 9, false)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
