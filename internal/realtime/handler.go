package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler exposes the realtime channel over HTTP: an SSE stream plus
// two small POST endpoints that stand in for the lock_seats and
// release_seats messages of a bidirectional socket.
type Handler struct {
	Hub      *Hub
	Registry *LockRegistry
}

func NewHandler(hub *Hub, registry *LockRegistry) *Handler {
	if hub == nil || registry == nil {
		panic("nil dependency passed to realtime.NewHandler")
	}
	return &Handler{Hub: hub, Registry: registry}
}

const heartbeatEvery = 25 * time.Second

// Stream handles GET /v1/realtime/stream. It assigns the client a
// connection ID, delivers it as the first event, then forwards hub
// messages until the client goes away. Disconnect purges the
// connection's soft locks immediately rather than waiting out their
// TTL.
func (h *Handler) Stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	connID := uuid.NewString()
	ch := h.Hub.Subscribe(connID)
	defer func() {
		h.Hub.Unsubscribe(connID)
		h.Registry.OnDisconnect(connID)
	}()

	if err := writeEvent(res, Message{
		Event: "connected",
		Data:  map[string]any{"connection_id": connID},
	}); err != nil {
		return nil
	}

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeEvent(res, m); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(res *echo.Response, m Message) error {
	payload, err := json.Marshal(m.Data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", m.Event, payload); err != nil {
		return err
	}
	res.Flush()
	return nil
}

type lockReq struct {
	ConnectionID string `json:"connection_id"`
	EventID      uint64 `json:"event_id"`
	Quantity     int    `json:"quantity"`
}

// Lock handles POST /v1/realtime/lock. The registry is advisory, so
// there is nothing to check against inventory here and acquisition
// always succeeds.
func (h *Handler) Lock(c echo.Context) error {
	var req lockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ConnectionID == "" || req.EventID == 0 || req.Quantity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "connection_id, event_id and quantity are required"})
	}

	lock := h.Registry.Acquire(req.EventID, req.ConnectionID, req.Quantity)
	return c.JSON(http.StatusCreated, echo.Map{
		"lock_id":    lock.ID,
		"event_id":   lock.EventID,
		"expires_at": lock.CreatedAt.Add(h.Registry.ttl),
	})
}

type releaseReq struct {
	LockID string `json:"lock_id"`
}

// Release handles POST /v1/realtime/release. Releasing an unknown or
// expired lock id is a no-op and still answers 204.
func (h *Handler) Release(c echo.Context) error {
	var req releaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.LockID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lock_id is required"})
	}
	h.Registry.Release(req.LockID)
	return c.NoContent(http.StatusNoContent)
}
