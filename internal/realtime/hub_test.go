package realtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSendTargetsOneConnection(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("a")
	b := h.Subscribe("b")
	assert.Equal(t, 2, h.Len())

	h.Send("a", Message{Event: "connected"})
	require.Len(t, a, 1)
	assert.Len(t, b, 0)

	m := <-a
	assert.Equal(t, "connected", m.Event)
}

func TestHubSendToUnknownConnectionIsNoop(t *testing.T) {
	h := NewHub()
	h.Send("ghost", Message{Event: "connected"})
}

func TestHubBroadcastSkipsExcept(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("a")
	b := h.Subscribe("b")
	c := h.Subscribe("c")

	h.Broadcast("b", Message{Event: "seat_availability_changed", Data: map[string]any{"event_id": uint64(5)}})
	assert.Len(t, a, 1)
	assert.Len(t, b, 0)
	assert.Len(t, c, 1)

	h.Broadcast("", Message{Event: "seat_availability_changed"})
	assert.Len(t, b, 1)
}

func TestHubFullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe("slow")

	for i := 0; i < 40; i++ {
		h.Send("slow", Message{Event: "seat_availability_changed"})
	}
	assert.Equal(t, cap(ch), len(ch))
}

func TestHubResubscribeClosesDisplacedChannel(t *testing.T) {
	h := NewHub()
	old := h.Subscribe("a")
	fresh := h.Subscribe("a")
	assert.Equal(t, 1, h.Len())

	_, open := <-old
	assert.False(t, open)

	h.Send("a", Message{Event: "connected"})
	assert.Len(t, fresh, 1)
}

// Broadcasts race against connect/disconnect churn constantly in
// production; under the race detector this must stay clean and must
// never send on a closed channel.
func TestHubSurvivesChurnDuringBroadcast(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				h.Broadcast("", Message{Event: "seat_availability_changed"})
			}
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				h.Send("conn-0", Message{Event: "seats_unlocked"})
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
				id := fmt.Sprintf("conn-%d", i%8)
				ch := h.Subscribe(id)
				go func() {
					for range ch {
					}
				}()
				h.Unsubscribe(id)
			}
		}
	}()

	time.Sleep(200 * time.Millisecond)
	close(done)
	wg.Wait()
	assert.Equal(t, 0, h.Len())
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe("a")
	h.Unsubscribe("a")
	assert.Equal(t, 0, h.Len())

	_, open := <-ch
	assert.False(t, open)

	// Unsubscribing twice must not panic.
	h.Unsubscribe("a")
}
