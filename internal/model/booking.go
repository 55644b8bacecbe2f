package model

import "time"

// Booking statuses. A booking is created confirmed and can only move
// to cancelled; it is never deleted and never re-confirmed.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents a row in the `bookings` table. TotalAmount is a
// snapshot of event.price * quantity taken at booking time and is not
// recomputed when the event price later changes.
//
// Fields:
//  ID          – primary key identifier.
//  EventID     – event the seats belong to.
//  UserID      – user who made the booking.
//  Quantity    – number of seats, 1..max-per-booking.
//  TotalAmount – price snapshot in paise.
//  Status      – "confirmed" or "cancelled".
//  BookingDate – when the booking was created.
type Booking struct {
	ID          uint64    `json:"id"`           // bookings.id
	EventID     uint64    `json:"event_id"`     // bookings.event_id
	UserID      uint64    `json:"user_id"`      // bookings.user_id
	Quantity    int       `json:"quantity"`     // bookings.quantity
	TotalAmount int64     `json:"total_amount"` // bookings.total_amount (paise)
	Status      string    `json:"status"`       // bookings.status
	BookingDate time.Time `json:"booking_date"` // bookings.booking_date
}

// BookingDetail joins a booking with the event and user columns the
// listing endpoints expose. It mirrors the JOINed result set rather
// than nesting full Event/User structs.
type BookingDetail struct {
	Booking
	EventTitle    string    `json:"event_title"`
	EventDate     time.Time `json:"event_date"`
	EventLocation string    `json:"event_location"`
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"user_email"`
}
