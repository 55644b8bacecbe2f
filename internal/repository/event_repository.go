package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shibbu04/EventBook/internal/model"
)

// EventRepo provides CRUD operations for events. Seat inventory is
// deliberately absent here: available_seats is written only by the
// booking and cancellation transactions in BookingRepo, and by admin
// capacity updates which re-derive it under the same row lock.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = "id, title, description, location, date, price, total_seats, available_seats, img, created_at, updated_at"

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.Date,
		&e.Price, &e.TotalSeats, &e.AvailableSeats, &e.ImageURL,
		&e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// EventFilter narrows List results. Search matches title and location
// with a LIKE pattern; Upcoming keeps only events that have not
// started yet.
type EventFilter struct {
	Search   string
	Upcoming bool
	Page     int
	Limit    int
}

// List returns events ordered by date plus the total row count for
// pagination. All user-supplied values, including LIMIT and OFFSET,
// are bound parameters, never interpolated into the query text.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.Search != "" {
		where += " AND (title LIKE ? OR location LIKE ?)"
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}
	if f.Upcoming {
		where += " AND date > UTC_TIMESTAMP()"
	}

	page, limit := normalizePage(f.Page, f.Limit)

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events"+where+" ORDER BY date ASC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// GetByID fetches a single event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrEventNotFound
	}
	return e, err
}

// Create inserts a new event with available_seats = total_seats and
// returns it with the generated ID.
func (r *EventRepo) Create(ctx context.Context, e model.Event) (model.Event, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO events (title, description, location, date, price, total_seats, available_seats, img) VALUES (?,?,?,?,?,?,?,?)",
		e.Title, e.Description, e.Location, e.Date, e.Price, e.TotalSeats, e.TotalSeats, e.ImageURL)
	if err != nil {
		return e, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return e, fmt.Errorf("event id: %w", err)
	}
	e.ID = uint64(id)
	e.AvailableSeats = e.TotalSeats
	return e, nil
}

// Update rewrites an event's fields. Capacity changes run inside a
// transaction that locks the row, re-derives
// available_seats = new_total - booked, and rejects any total below
// the seats already committed to confirmed bookings. Shrinking
// capacity must never break the ledger invariant.
func (r *EventRepo) Update(ctx context.Context, e model.Event) (model.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return e, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var curTotal, curAvailable int
	err = tx.QueryRowContext(ctx,
		"SELECT total_seats, available_seats FROM events WHERE id=? FOR UPDATE",
		e.ID).Scan(&curTotal, &curAvailable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, ErrEventNotFound
		}
		return e, fmt.Errorf("lock event: %w", err)
	}

	booked := curTotal - curAvailable
	if e.TotalSeats < booked {
		return e, fmt.Errorf("%w: %d seats already booked, cannot reduce capacity to %d", ErrConflict, booked, e.TotalSeats)
	}
	e.AvailableSeats = e.TotalSeats - booked

	if _, err = tx.ExecContext(ctx,
		"UPDATE events SET title=?, description=?, location=?, date=?, price=?, total_seats=?, available_seats=?, img=? WHERE id=?",
		e.Title, e.Description, e.Location, e.Date, e.Price, e.TotalSeats, e.AvailableSeats, e.ImageURL, e.ID); err != nil {
		return e, fmt.Errorf("update event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return e, fmt.Errorf("commit event update: %w", err)
	}
	committed = true
	return e, nil
}

// Delete removes an event that has no confirmed bookings. Events with
// live bookings must be cancelled booking-by-booking first; deleting
// them wholesale would orphan the ledger.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	var confirmed int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE event_id=? AND status=?",
		id, model.BookingStatusConfirmed).Scan(&confirmed)
	if err != nil {
		return fmt.Errorf("count bookings: %w", err)
	}
	if confirmed > 0 {
		return fmt.Errorf("%w: event has %d confirmed bookings", ErrConflict, confirmed)
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
