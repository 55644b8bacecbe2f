package model

import "time"

// Event represents a bookable event as stored in the `events` table.
// TotalSeats is the capacity ceiling; AvailableSeats is the mutable
// inventory counter. The two are linked by the ledger invariant
// available_seats = total_seats - SUM(quantity of confirmed bookings),
// which must hold after every committed booking or cancellation
// transaction. AvailableSeats is only ever written inside those
// transactions while the event row is locked.
//
// Fields:
//  ID             – primary key identifier.
//  Title          – event title.
//  Description    – free-form description text.
//  Location       – venue or address.
//  Date           – when the event starts (UTC).
//  Price          – price per seat in the smallest currency unit (paise).
//  TotalSeats     – capacity ceiling, changed only by admins.
//  AvailableSeats – seats still open, 0 <= AvailableSeats <= TotalSeats.
//  ImageURL       – optional promotional image.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Event struct {
	ID             uint64    // events.id
	Title          string    // events.title
	Description    string    // events.description
	Location       string    // events.location
	Date           time.Time // events.date
	Price          int64     // events.price (paise)
	TotalSeats     int       // events.total_seats
	AvailableSeats int       // events.available_seats
	ImageURL       string    // events.img
	CreatedAt      time.Time // events.created_at
	UpdatedAt      time.Time // events.updated_at
}

// BookedSeats returns how many seats are committed to confirmed bookings.
func (e Event) BookedSeats() int { return e.TotalSeats - e.AvailableSeats }
