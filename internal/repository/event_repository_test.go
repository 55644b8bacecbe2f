package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shibbu04/EventBook/internal/model"
)

func newEventMock(t *testing.T) (*EventRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEventRepo(db), mock
}

func TestEventListBindsSearchAndPagination(t *testing.T) {
	repo, mock := newEventMock(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM events").
		WithArgs("%rock%", "%rock%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY date ASC LIMIT \\? OFFSET \\?").
		WithArgs("%rock%", "%rock%", 5, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "location", "date", "price",
			"total_seats", "available_seats", "img", "created_at", "updated_at",
		}).AddRow(1, "Rock Night", "", "Mumbai", time.Now().Add(time.Hour),
			int64(50000), 100, 60, "", time.Now(), time.Now()))

	events, total, err := repo.List(context.Background(), EventFilter{Search: "rock", Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "Rock Night", events[0].Title)
	assert.Equal(t, 40, events[0].BookedSeats())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCreateStartsFullyAvailable(t *testing.T) {
	repo, mock := newEventMock(t)

	mock.ExpectExec("INSERT INTO events").
		WithArgs("Rock Night", "desc", "Mumbai", sqlmock.AnyArg(), int64(50000), 100, 100, "").
		WillReturnResult(sqlmock.NewResult(7, 1))

	e, err := repo.Create(context.Background(), model.Event{
		Title: "Rock Night", Description: "desc", Location: "Mumbai",
		Date: time.Now().Add(48 * time.Hour), Price: 50000, TotalSeats: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), e.ID)
	assert.Equal(t, 100, e.AvailableSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventUpdateCapacity(t *testing.T) {
	t.Run("re-derives availability from the booked count", func(t *testing.T) {
		repo, mock := newEventMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT total_seats, available_seats FROM events WHERE id=\\? FOR UPDATE").
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"total_seats", "available_seats"}).AddRow(100, 60))
		mock.ExpectExec("UPDATE events SET").
			WithArgs("Rock Night", "", "Mumbai", sqlmock.AnyArg(), int64(50000), 80, 40, "", uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		e, err := repo.Update(context.Background(), model.Event{
			ID: 7, Title: "Rock Night", Location: "Mumbai",
			Date: time.Now().Add(48 * time.Hour), Price: 50000, TotalSeats: 80,
		})
		require.NoError(t, err)
		assert.Equal(t, 40, e.AvailableSeats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects shrinking below seats already sold", func(t *testing.T) {
		repo, mock := newEventMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"total_seats", "available_seats"}).AddRow(100, 60))
		mock.ExpectRollback()

		_, err := repo.Update(context.Background(), model.Event{ID: 7, TotalSeats: 30})
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventDelete(t *testing.T) {
	t.Run("refuses while confirmed bookings exist", func(t *testing.T) {
		repo, mock := newEventMock(t)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bookings").
			WithArgs(uint64(7), model.BookingStatusConfirmed).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		err := repo.Delete(context.Background(), 7)
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown event maps to not found", func(t *testing.T) {
		repo, mock := newEventMock(t)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bookings").
			WithArgs(uint64(7), model.BookingStatusConfirmed).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec("DELETE FROM events").
			WithArgs(uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), 7)
		assert.ErrorIs(t, err, ErrEventNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
