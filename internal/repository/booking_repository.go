package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shibbu04/EventBook/internal/model"
)

// BookingRepo owns the two authoritative seat-inventory transactions.
// Both run the full read-check-write sequence while holding an
// exclusive lock on the target event row (SELECT ... FOR UPDATE), so
// concurrent attempts against the same event serialize at the database
// and can never double-sell seats. No application-level mutex is
// layered on top. Any error after BeginTx rolls the whole transaction
// back; partial state (a booking row without the matching seat
// decrement, or vice versa) is never observable.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for callers that compose their own
// transactions (used by tests and the event repository).
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateConfirmed books quantity seats on an event for a user. Inside
// a single transaction it locks the event row, verifies that the event
// exists, has enough seats and has not started yet, inserts a
// confirmed booking with a price snapshot, and decrements
// available_seats. Returns ErrEventNotFound, *InsufficientSeatsError
// or ErrEventExpired on precondition failure, each after rollback.
func (r *BookingRepo) CreateConfirmed(ctx context.Context, eventID, userID uint64, quantity int) (model.Booking, error) {
	var booking model.Booking

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return booking, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the event row for the duration of the transaction. A second
	// booking for the same event blocks here until we commit or roll
	// back, then re-reads the current availability.
	var (
		price     int64
		available int
		eventDate time.Time
	)
	err = tx.QueryRowContext(ctx,
		"SELECT price, available_seats, date FROM events WHERE id=? FOR UPDATE",
		eventID).Scan(&price, &available, &eventDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking, ErrEventNotFound
		}
		return booking, fmt.Errorf("lock event: %w", err)
	}

	if available < quantity {
		return booking, &InsufficientSeatsError{Available: available, Requested: quantity}
	}

	now := time.Now().UTC()
	if !eventDate.After(now) {
		return booking, ErrEventExpired
	}

	totalAmount := price * int64(quantity)

	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (event_id, user_id, quantity, total_amount, status, booking_date) VALUES (?,?,?,?,?,?)",
		eventID, userID, quantity, totalAmount, model.BookingStatusConfirmed, now)
	if err != nil {
		return booking, fmt.Errorf("insert booking: %w", err)
	}
	bookingID, err := res.LastInsertId()
	if err != nil {
		return booking, fmt.Errorf("booking id: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE events SET available_seats = available_seats - ? WHERE id=?",
		quantity, eventID); err != nil {
		return booking, fmt.Errorf("decrement seats: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return booking, fmt.Errorf("commit booking: %w", err)
	}
	committed = true

	booking = model.Booking{
		ID:          uint64(bookingID),
		EventID:     eventID,
		UserID:      userID,
		Quantity:    quantity,
		TotalAmount: totalAmount,
		Status:      model.BookingStatusConfirmed,
		BookingDate: now,
	}
	return booking, nil
}

// Cancel flips a confirmed booking to cancelled and returns its seats
// to the event's available pool, atomically. requesterID must own the
// booking unless isAdmin is set. Cancellation is rejected when the
// event starts in strictly less than cutoff (exclusive boundary: at
// exactly the cutoff it still succeeds). A cancelled booking is never
// found again by this method, so re-cancelling yields
// ErrBookingNotFound.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID, requesterID uint64, isAdmin bool, cutoff time.Duration) (model.Booking, error) {
	var booking model.Booking

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return booking, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// FOR UPDATE locks both the booking and the joined event row, so a
	// concurrent booking on the same event serializes with us.
	var eventDate time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT b.id, b.event_id, b.user_id, b.quantity, b.total_amount, b.status, b.booking_date, e.date
		   FROM bookings b
		   JOIN events e ON e.id = b.event_id
		  WHERE b.id=? AND b.status=? FOR UPDATE`,
		bookingID, model.BookingStatusConfirmed).Scan(
		&booking.ID, &booking.EventID, &booking.UserID, &booking.Quantity,
		&booking.TotalAmount, &booking.Status, &booking.BookingDate, &eventDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking, ErrBookingNotFound
		}
		return booking, fmt.Errorf("lock booking: %w", err)
	}

	if !isAdmin && booking.UserID != requesterID {
		return booking, ErrForbidden
	}

	if time.Until(eventDate) < cutoff {
		return booking, ErrCancellationWindowClosed
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=?",
		model.BookingStatusCancelled, bookingID); err != nil {
		return booking, fmt.Errorf("cancel booking: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE events SET available_seats = available_seats + ? WHERE id=?",
		booking.Quantity, booking.EventID); err != nil {
		return booking, fmt.Errorf("restore seats: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return booking, fmt.Errorf("commit cancel: %w", err)
	}
	committed = true

	booking.Status = model.BookingStatusCancelled
	return booking, nil
}

// BookingFilter narrows List results. Zero values mean "no filter";
// UserID is mandatory for non-admin callers and enforced by the
// handler, not here.
type BookingFilter struct {
	UserID  uint64
	EventID uint64
	Status  string
	Page    int
	Limit   int
}

// List returns bookings joined with event and user columns, newest
// first, plus the total row count for pagination. LIMIT and OFFSET are
// always bound parameters.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.BookingDetail, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.UserID != 0 {
		where += " AND b.user_id=?"
		args = append(args, f.UserID)
	}
	if f.EventID != 0 {
		where += " AND b.event_id=?"
		args = append(args, f.EventID)
	}
	if f.Status != "" {
		where += " AND b.status=?"
		args = append(args, f.Status)
	}

	page, limit := normalizePage(f.Page, f.Limit)

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings b"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	query := `SELECT b.id, b.event_id, b.user_id, b.quantity, b.total_amount, b.status, b.booking_date,
			e.title, e.date, e.location, u.name, u.email
		   FROM bookings b
		   JOIN events e ON e.id = b.event_id
		   JOIN users u ON u.id = b.user_id` + where +
		" ORDER BY b.booking_date DESC LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []model.BookingDetail
	for rows.Next() {
		var d model.BookingDetail
		if err := rows.Scan(&d.ID, &d.EventID, &d.UserID, &d.Quantity, &d.TotalAmount,
			&d.Status, &d.BookingDate, &d.EventTitle, &d.EventDate, &d.EventLocation,
			&d.UserName, &d.UserEmail); err != nil {
			return nil, 0, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// GetByID returns one booking with its joined event and user columns.
// Non-admin requesters only see their own bookings; anything else
// reads as not found, matching the listing behavior.
func (r *BookingRepo) GetByID(ctx context.Context, id, requesterID uint64, isAdmin bool) (model.BookingDetail, error) {
	query := `SELECT b.id, b.event_id, b.user_id, b.quantity, b.total_amount, b.status, b.booking_date,
			e.title, e.date, e.location, u.name, u.email
		   FROM bookings b
		   JOIN events e ON e.id = b.event_id
		   JOIN users u ON u.id = b.user_id
		  WHERE b.id=?`
	args := []any{id}
	if !isAdmin {
		query += " AND b.user_id=?"
		args = append(args, requesterID)
	}

	var d model.BookingDetail
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&d.ID, &d.EventID, &d.UserID, &d.Quantity, &d.TotalAmount,
		&d.Status, &d.BookingDate, &d.EventTitle, &d.EventDate, &d.EventLocation,
		&d.UserName, &d.UserEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrBookingNotFound
	}
	return d, err
}

// normalizePage clamps pagination inputs to sane bounds so they can be
// bound directly into LIMIT/OFFSET placeholders.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
