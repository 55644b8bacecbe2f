package model

import "time"

// SeatLock is an ephemeral, advisory hold on a number of seats while a
// connected client fills in the booking form. It lives only in process
// memory, never touches events.available_seats, and never gates the
// booking transaction: the authoritative availability check happens at
// commit time regardless of lock state. A lock disappears on explicit
// release, on TTL expiry, or when its connection goes away.
//
// Fields:
//  ID           – composite identifier "<eventID>_<connectionID>".
//  EventID      – event the client intends to book.
//  ConnectionID – realtime connection that owns the lock.
//  Quantity     – seats the client intends to book.
//  CreatedAt    – when the lock was acquired (expiry = CreatedAt + TTL).
type SeatLock struct {
	ID           string
	EventID      uint64
	ConnectionID string
	Quantity     int
	CreatedAt    time.Time
}
