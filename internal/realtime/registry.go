package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/shibbu04/EventBook/internal/model"
)

// Notifier is the slice of the hub the registry needs. Declared here
// so tests can substitute a recorder.
type Notifier interface {
	Send(connID string, m Message)
	Broadcast(except string, m Message)
}

// LockRegistry holds advisory seat locks in process memory. A lock is
// keyed by "<eventID>_<connectionID>", lives at most TTL, and
// disappears on explicit release, on expiry, or when its connection
// disconnects. The registry never consults the inventory ledger: it
// cannot promise seats, only hint at contention, and the booking
// transaction re-validates availability at commit time regardless.
//
// Expiry uses one periodic sweep over all entries instead of a timer
// per lock, so lock churn never accumulates scheduled callbacks. Stop
// shuts the sweeper down deterministically, which lets tests construct
// and tear down a registry per case.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]model.SeatLock

	notifier Notifier
	ttl      time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewLockRegistry starts a registry whose sweeper runs every
// sweepEvery. Callers own its lifecycle and must call Stop.
func NewLockRegistry(n Notifier, ttl, sweepEvery time.Duration) *LockRegistry {
	r := &LockRegistry{
		locks:    make(map[string]model.SeatLock),
		notifier: n,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.sweepLoop(sweepEvery)
	return r
}

// LockID builds the composite lock identifier.
func LockID(eventID uint64, connID string) string {
	return fmt.Sprintf("%d_%s", eventID, connID)
}

// Acquire unconditionally creates or overwrites the lock for
// (eventID, connID), resetting its TTL. The owning connection receives
// seats_locked; everyone else gets a seat_availability_changed hint.
// It never blocks and never reads seat inventory.
func (r *LockRegistry) Acquire(eventID uint64, connID string, quantity int) model.SeatLock {
	lock := model.SeatLock{
		ID:           LockID(eventID, connID),
		EventID:      eventID,
		ConnectionID: connID,
		Quantity:     quantity,
		CreatedAt:    r.now(),
	}

	r.mu.Lock()
	r.locks[lock.ID] = lock
	r.mu.Unlock()

	r.notifier.Send(connID, Message{
		Event: "seats_locked",
		Data:  map[string]any{"event_id": eventID, "lock_id": lock.ID},
	})
	r.notifier.Broadcast(connID, Message{
		Event: "seat_availability_changed",
		Data:  map[string]any{"event_id": eventID},
	})
	return lock
}

// Release removes a lock immediately and tells its connection. It is
// idempotent: releasing an unknown or already-expired id does nothing.
func (r *LockRegistry) Release(lockID string) {
	r.mu.Lock()
	lock, ok := r.locks[lockID]
	if ok {
		delete(r.locks, lockID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.notifier.Send(lock.ConnectionID, Message{
		Event: "seats_unlocked",
		Data:  map[string]any{"event_id": lock.EventID},
	})
}

// OnDisconnect purges every lock the connection owns. No notification
// is sent; the connection is already gone.
func (r *LockRegistry) OnDisconnect(connID string) {
	r.mu.Lock()
	for id, lock := range r.locks {
		if lock.ConnectionID == connID {
			delete(r.locks, id)
		}
	}
	r.mu.Unlock()
}

// Len reports the number of live locks.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// Stop terminates the sweeper and waits for it to exit. The registry
// must not be used afterwards.
func (r *LockRegistry) Stop() {
	close(r.stop)
	<-r.done
}

func (r *LockRegistry) sweepLoop(every time.Duration) {
	defer close(r.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep removes every lock past its TTL (exclusive boundary: a lock
// expires once now is strictly after CreatedAt+TTL) and sends the
// owning connection an expiry notice so the client re-checks
// availability before retrying. Exported so tests can drive expiry
// without waiting on the ticker.
func (r *LockRegistry) Sweep() {
	now := r.now()

	r.mu.Lock()
	var expired []model.SeatLock
	for id, lock := range r.locks {
		if now.After(lock.CreatedAt.Add(r.ttl)) {
			delete(r.locks, id)
			expired = append(expired, lock)
		}
	}
	r.mu.Unlock()

	for _, lock := range expired {
		r.notifier.Send(lock.ConnectionID, Message{
			Event: "seats_unlocked",
			Data:  map[string]any{"event_id": lock.EventID, "expired": true},
		})
	}
}
