package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shibbu04/EventBook/internal/model"
	"github.com/shibbu04/EventBook/internal/repository"
	"github.com/shibbu04/EventBook/internal/utils"
)

// EventHandler serves the public event catalogue and the admin CRUD
// surface. Seat inventory is read-only here; it changes only through
// the booking transactions and through capacity updates, which the
// repository guards against shrinking below the booked count.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(events *repository.EventRepo) *EventHandler {
	if events == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{Events: events}
}

type eventResp struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	Price          int64     `json:"price"`
	PriceFormatted string    `json:"price_formatted"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	ImageURL       string    `json:"img,omitempty"`
}

func toEventResp(e model.Event) eventResp {
	return eventResp{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		Date:           e.Date,
		Price:          e.Price,
		PriceFormatted: utils.FormatINR(e.Price),
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		ImageURL:       e.ImageURL,
	}
}

// List handles GET /v1/events with ?search=, ?upcoming=, ?page= and
// ?limit= parameters.
func (h *EventHandler) List(c echo.Context) error {
	page, limit := pageParams(c)
	filter := repository.EventFilter{
		Search:   c.QueryParam("search"),
		Upcoming: c.QueryParam("upcoming") == "true",
		Page:     page,
		Limit:    limit,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, total, err := h.Events.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch events"})
	}

	out := make([]eventResp, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"events":     out,
		"pagination": paginate(page, limit, total),
	})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	return c.JSON(http.StatusOK, toEventResp(e))
}

type eventReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	Price       int64     `json:"price"`
	TotalSeats  int       `json:"total_seats"`
	ImageURL    string    `json:"img"`
}

func (r eventReq) validate() string {
	switch {
	case r.Title == "":
		return "title is required"
	case r.Location == "":
		return "location is required"
	case r.Date.IsZero():
		return "date is required"
	case r.Price < 0:
		return "price cannot be negative"
	case r.TotalSeats < 1:
		return "total_seats must be positive"
	}
	return ""
}

// Create handles POST /v1/admin/events. New events start with every
// seat available.
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.Create(ctx, model.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date.UTC(),
		Price:       req.Price,
		TotalSeats:  req.TotalSeats,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toEventResp(e))
}

// Update handles PUT /v1/admin/events/:id. A capacity change re-derives
// available seats from the booked count; reducing capacity below the
// seats already sold is rejected with 409.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.Update(ctx, model.Event{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date.UTC(),
		Price:       req.Price,
		TotalSeats:  req.TotalSeats,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	return c.JSON(http.StatusOK, toEventResp(e))
}

// Delete handles DELETE /v1/admin/events/:id. Events with confirmed
// bookings cannot be deleted.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
