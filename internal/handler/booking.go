package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shibbu04/EventBook/internal/model"
	"github.com/shibbu04/EventBook/internal/queue"
	"github.com/shibbu04/EventBook/internal/realtime"
	"github.com/shibbu04/EventBook/internal/repository"
	"github.com/shibbu04/EventBook/internal/service"
	"github.com/shibbu04/EventBook/internal/ticket"
)

// BookingStore is the slice of the booking repository the handler
// consumes. Declared here so tests can substitute a stub.
type BookingStore interface {
	CreateConfirmed(ctx context.Context, eventID, userID uint64, quantity int) (model.Booking, error)
	Cancel(ctx context.Context, bookingID, requesterID uint64, isAdmin bool, cutoff time.Duration) (model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]model.BookingDetail, int, error)
	GetByID(ctx context.Context, id, requesterID uint64, isAdmin bool) (model.BookingDetail, error)
	Analytics(ctx context.Context) (repository.Analytics, error)
}

// EventGetter fetches the event snapshot used in QR payloads and
// broker messages.
type EventGetter interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
}

// BookingHandler serves booking creation, listing and cancellation.
// Seat accounting itself happens inside the repository transactions;
// this layer validates input, maps errors to HTTP statuses and fans
// out the side effects (QR, broker message, realtime hint) that must
// never undo a committed booking.
type BookingHandler struct {
	Bookings BookingStore
	Events   EventGetter
	QR       *ticket.Generator
	Notifier realtime.Notifier

	MaxSeats int
	Cutoff   time.Duration

	// Broker publishers, replaceable in tests.
	PublishConfirmed func(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishCancelled func(ctx context.Context, ev queue.BookingCancelledEvent) error
}

func NewBookingHandler(b BookingStore, e EventGetter, qr *ticket.Generator, n realtime.Notifier, maxSeats int, cutoff time.Duration) *BookingHandler {
	if b == nil || e == nil || qr == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{
		Bookings:         b,
		Events:           e,
		QR:               qr,
		Notifier:         n,
		MaxSeats:         maxSeats,
		Cutoff:           cutoff,
		PublishConfirmed: service.PublishBookingConfirmed,
		PublishCancelled: service.PublishBookingCancelled,
	}
}

type createBookingReq struct {
	EventID  uint64 `json:"event_id"`
	Quantity int    `json:"quantity"`
}

type bookingResp struct {
	model.Booking
	QRCode    string `json:"qr_code,omitempty"`
	QRWarning string `json:"qr_warning,omitempty"`
}

// Create handles POST /v1/bookings. On success the booking is already
// committed; QR generation and the broker publish run afterwards and
// only ever degrade the response, never the booking.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	if req.Quantity < 1 || req.Quantity > h.MaxSeats {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "quantity must be between 1 and " + strconv.Itoa(h.MaxSeats),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.Bookings.CreateConfirmed(ctx, req.EventID, uid, req.Quantity)
	if err != nil {
		return bookingError(c, err)
	}

	resp := bookingResp{Booking: booking}

	event, evErr := h.Events.GetByID(ctx, booking.EventID)
	if evErr != nil {
		log.Printf("booking %d: event snapshot fetch failed: %v", booking.ID, evErr)
		resp.QRWarning = "ticket QR unavailable, contact support with your booking id"
	} else {
		qr, qrErr := h.QR.DataURL(ticket.Payload{
			BookingID:   booking.ID,
			EventID:     event.ID,
			EventTitle:  event.Title,
			UserID:      uid,
			Quantity:    booking.Quantity,
			TotalAmount: booking.TotalAmount,
			EventDate:   event.Date,
			Location:    event.Location,
			BookingDate: booking.BookingDate,
		})
		if qrErr != nil {
			log.Printf("booking %d: QR generation failed: %v", booking.ID, qrErr)
			resp.QRWarning = "ticket QR unavailable, contact support with your booking id"
		} else {
			resp.QRCode = qr
		}
	}

	go h.publishConfirmed(booking, event, evErr == nil)
	h.broadcastAvailability(booking.EventID)

	return c.JSON(http.StatusCreated, resp)
}

// List handles GET /v1/bookings. Regular users only ever see their own
// bookings; admins may filter by user_id and event_id.
func (h *BookingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	page, limit := pageParams(c)
	filter := repository.BookingFilter{
		Status: c.QueryParam("status"),
		Page:   page,
		Limit:  limit,
	}
	if isAdmin(c) {
		if v, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 64); err == nil {
			filter.UserID = v
		}
		if v, err := strconv.ParseUint(c.QueryParam("event_id"), 10, 64); err == nil {
			filter.EventID = v
		}
	} else {
		filter.UserID = uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, total, err := h.Bookings.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch bookings"})
	}
	if bookings == nil {
		bookings = []model.BookingDetail{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bookings":   bookings,
		"pagination": paginate(page, limit, total),
	})
}

// Get handles GET /v1/bookings/:id. Confirmed bookings come back with
// their QR regenerated from the stored snapshot.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Bookings.GetByID(ctx, id, uid, isAdmin(c))
	if err != nil {
		return bookingError(c, err)
	}

	out := echo.Map{"booking": d}
	if d.Status == model.BookingStatusConfirmed {
		qr, qrErr := h.QR.DataURL(ticket.Payload{
			BookingID:   d.ID,
			EventID:     d.EventID,
			EventTitle:  d.EventTitle,
			UserID:      d.UserID,
			UserName:    d.UserName,
			Quantity:    d.Quantity,
			TotalAmount: d.TotalAmount,
			EventDate:   d.EventDate,
			Location:    d.EventLocation,
			BookingDate: d.BookingDate,
		})
		if qrErr != nil {
			log.Printf("booking %d: QR generation failed: %v", d.ID, qrErr)
		} else {
			out["qr_code"] = qr
		}
	}
	return c.JSON(http.StatusOK, out)
}

// Cancel handles DELETE /v1/bookings/:id. The seats return to the
// event pool in the same transaction that flips the status.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.Bookings.Cancel(ctx, id, uid, isAdmin(c), h.Cutoff)
	if err != nil {
		return bookingError(c, err)
	}

	go h.publishCancelled(booking)
	h.broadcastAvailability(booking.EventID)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "booking cancelled",
		"booking": booking,
	})
}

// Analytics handles GET /v1/admin/analytics.
func (h *BookingHandler) Analytics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	a, err := h.Bookings.Analytics(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute analytics"})
	}
	return c.JSON(http.StatusOK, a)
}

// bookingError maps repository errors onto HTTP statuses. The
// insufficient-seats message keeps its availability figures so clients
// can offer a corrected retry.
func bookingError(c echo.Context, err error) error {
	var insufficient *repository.InsufficientSeatsError
	switch {
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":           insufficient.Error(),
			"available_seats": insufficient.Available,
			"requested":       insufficient.Requested,
		})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found or already cancelled"})
	case errors.Is(err, repository.ErrEventExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event has already started"})
	case errors.Is(err, repository.ErrCancellationWindowClosed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cancellation window has closed"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking operation failed"})
}

func (h *BookingHandler) publishConfirmed(b model.Booking, e model.Event, haveEvent bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ev := queue.BookingConfirmedEvent{
		BookingID:        b.ID,
		UserID:           b.UserID,
		EventID:          b.EventID,
		Quantity:         b.Quantity,
		TotalAmountPaise: b.TotalAmount,
		ConfirmedAt:      b.BookingDate.Format(time.RFC3339),
	}
	if haveEvent {
		ev.EventTitle = e.Title
		ev.EventDate = e.Date.Format(time.RFC3339)
		ev.Location = e.Location
	}
	_ = h.PublishConfirmed(ctx, ev)
}

func (h *BookingHandler) publishCancelled(b model.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = h.PublishCancelled(ctx, queue.BookingCancelledEvent{
		BookingID:        b.ID,
		UserID:           b.UserID,
		EventID:          b.EventID,
		Quantity:         b.Quantity,
		TotalAmountPaise: b.TotalAmount,
		CancelledAt:      time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *BookingHandler) broadcastAvailability(eventID uint64) {
	if h.Notifier == nil {
		return
	}
	h.Notifier.Broadcast("", realtime.Message{
		Event: "seat_availability_changed",
		Data:  map[string]any{"event_id": eventID},
	})
}
