// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is successfully confirmed.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64 `json:"booking_id"`
	UserID           uint64 `json:"user_id"`
	UserName         string `json:"user_name"`
	UserEmail        string `json:"user_email"`
	EventID          uint64 `json:"event_id"`
	EventTitle       string `json:"event_title"`
	EventDate        string `json:"event_date"`
	Location         string `json:"location"`
	Quantity         int    `json:"quantity"`
	TotalAmountPaise int64  `json:"total_amount_paise"`
	ConfirmedAt      string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a confirmed booking is cancelled
// and its seats are returned to the event inventory.
type BookingCancelledEvent struct {
	BookingID        uint64 `json:"booking_id"`
	UserID           uint64 `json:"user_id"`
	EventID          uint64 `json:"event_id"`
	Quantity         int    `json:"quantity"`
	TotalAmountPaise int64  `json:"total_amount_paise"`
	CancelledAt      string `json:"cancelled_at"`
}
