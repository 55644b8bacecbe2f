package repository

import (
	"context"
	"fmt"

	"github.com/shibbu04/EventBook/internal/model"
)

// AnalyticsStats aggregates the confirmed-booking totals shown on the
// admin dashboard.
type AnalyticsStats struct {
	TotalBookings   int   `json:"total_bookings"`
	TotalTickets    int   `json:"total_tickets_sold"`
	TotalRevenue    int64 `json:"total_revenue"`
	EventsWithSales int   `json:"events_with_bookings"`
}

// MonthlyRevenue is one month's confirmed revenue.
type MonthlyRevenue struct {
	Month    string `json:"month"` // "2006-01"
	Revenue  int64  `json:"revenue"`
	Bookings int    `json:"bookings"`
}

// TopEvent ranks an event by confirmed revenue.
type TopEvent struct {
	EventID     uint64 `json:"event_id"`
	Title       string `json:"title"`
	Revenue     int64  `json:"revenue"`
	TicketsSold int    `json:"tickets_sold"`
}

// Analytics bundles the admin dashboard figures.
type Analytics struct {
	Stats          AnalyticsStats        `json:"stats"`
	MonthlyRevenue []MonthlyRevenue      `json:"monthly_revenue"`
	TopEvents      []TopEvent            `json:"top_events"`
	Recent         []model.BookingDetail `json:"recent_bookings"`
}

// Analytics computes booking statistics over confirmed bookings only;
// cancelled rows never count toward revenue. Read-only, no locks.
func (r *BookingRepo) Analytics(ctx context.Context) (Analytics, error) {
	var a Analytics

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(quantity),0), COALESCE(SUM(total_amount),0), COUNT(DISTINCT event_id)
		  FROM bookings WHERE status=?`, model.BookingStatusConfirmed).
		Scan(&a.Stats.TotalBookings, &a.Stats.TotalTickets, &a.Stats.TotalRevenue, &a.Stats.EventsWithSales)
	if err != nil {
		return a, fmt.Errorf("analytics stats: %w", err)
	}

	if a.MonthlyRevenue, err = r.monthlyRevenue(ctx); err != nil {
		return a, err
	}
	if a.TopEvents, err = r.topEvents(ctx); err != nil {
		return a, err
	}
	if a.Recent, _, err = r.List(ctx, BookingFilter{Status: model.BookingStatusConfirmed, Limit: 20}); err != nil {
		return a, err
	}
	return a, nil
}

func (r *BookingRepo) monthlyRevenue(ctx context.Context) ([]MonthlyRevenue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(booking_date, '%Y-%m') AS month, SUM(total_amount), COUNT(*)
		  FROM bookings
		 WHERE status=? AND booking_date >= DATE_SUB(UTC_TIMESTAMP(), INTERVAL 12 MONTH)
		 GROUP BY month ORDER BY month ASC`, model.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("monthly revenue: %w", err)
	}
	defer rows.Close()

	var out []MonthlyRevenue
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Revenue, &m.Bookings); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *BookingRepo) topEvents(ctx context.Context) ([]TopEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.title, COALESCE(SUM(b.total_amount),0), COALESCE(SUM(b.quantity),0)
		  FROM events e
		  LEFT JOIN bookings b ON b.event_id = e.id AND b.status=?
		 GROUP BY e.id, e.title
		 ORDER BY 3 DESC
		 LIMIT 10`, model.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("top events: %w", err)
	}
	defer rows.Close()

	var out []TopEvent
	for rows.Next() {
		var t TopEvent
		if err := rows.Scan(&t.EventID, &t.Title, &t.Revenue, &t.TicketsSold); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
