// Package dashboard serves the read-side metrics behind the customer
// dashboard, computed from the analytics event tables.
package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Card types the dashboard can render.
const (
	CardBoxesPurchasedCumulative30d      = "boxes_purchased_cumulative_30d"
	CardBoxesProvisionedCumulative30d    = "boxes_provisioned_cumulative_30d"
	CardBoxesProvisionedPctCumulative30d = "boxes_provisioned_pct_cumulative_30d"
	CardCallsBreakdown7d                 = "calls_breakdown_7d"
	CardRatingsAverage7dWindow30d        = "ratings_average_7d_window_30d"
	CardUsersActive7dWindow30d           = "users_active_7d_window_30d"
	CardUsersRegisteredCumulative30d     = "users_registered_cumulative_30d"
	CardCallsCount7dWindow30d            = "calls_count_7d_window_30d"
	CardDialinCount7dWindow30d           = "dialin_count_7d_window_30d"
	CardSupportTickets7dWindow30d        = "support_tickets_7d_window_30d"
	CardCommentsRecent7d                 = "comments_recent_7d"
)

// ErrUnknownCard means the requested card type does not exist.
var ErrUnknownCard = errors.New("dashboard: unknown card type")

// Overview summarizes a customer's account.
type Overview struct {
	Customer  string `json:"customer"`
	Purchased int    `json:"purchased"`
	ACV       int    `json:"acv"`
}

// Point is one dated sample in a card's history. Value is nil for days with
// no data.
type Point struct {
	Date  time.Time `json:"date"`
	Value *float64  `json:"value"`
}

// Series is a card with a 30-day history; Value is the most recent sample.
type Series struct {
	Value   *float64 `json:"value"`
	History []Point  `json:"history"`
}

// BreakdownRow is one bucket of a grouped count.
type BreakdownRow struct {
	Label string `json:"label"`
	Calls int    `json:"calls"`
}

// CallsBreakdown groups the last week's calls three ways.
type CallsBreakdown struct {
	ByType         []BreakdownRow `json:"by_type"`
	ByParticipants []BreakdownRow `json:"by_participants"`
	ByOS           []BreakdownRow `json:"by_os"`
}

// RatingsValue is the latest window's average and sample count.
type RatingsValue struct {
	Avg *float64 `json:"avg"`
	Num int      `json:"num"`
}

// Ratings is the sliding-window rating card.
type Ratings struct {
	Value   RatingsValue `json:"value"`
	History []Point      `json:"history"`
}

// Comment is one recent user comment.
type Comment struct {
	Comment   string    `json:"comment"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// Service answers dashboard queries from the analytics tables.
type Service struct {
	db *sql.DB
}

// NewService returns a dashboard service over db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Overview returns the customer's total purchased boxes and annual contract
// value at list price.
func (s *Service) Overview(ctx context.Context, customer string) (Overview, error) {
	const query = `SELECT COALESCE(SUM(purchased), 0)
FROM company_events
WHERE company = $1 AND type = 'purchased' AND purchased IS NOT NULL`

	var purchased int
	if err := s.db.QueryRowContext(ctx, query, customer).Scan(&purchased); err != nil {
		return Overview{}, err
	}
	return Overview{Customer: customer, Purchased: purchased, ACV: purchased * 2499}, nil
}

// Card routes a card type to its query.
func (s *Service) Card(ctx context.Context, card, customer string) (any, error) {
	switch card {
	case CardBoxesPurchasedCumulative30d:
		return s.boxesCumulative(ctx, customer, "purchased")
	case CardBoxesProvisionedCumulative30d:
		return s.boxesCumulative(ctx, customer, "provisioned")
	case CardBoxesProvisionedPctCumulative30d:
		return s.provisionedPct(ctx, customer)
	case CardCallsBreakdown7d:
		return s.callsBreakdown(ctx, customer)
	case CardRatingsAverage7dWindow30d:
		return s.ratingsAverage(ctx, customer)
	case CardUsersActive7dWindow30d:
		return s.usersActive(ctx, customer)
	case CardUsersRegisteredCumulative30d:
		return s.usersRegisteredCumulative(ctx, customer)
	case CardCallsCount7dWindow30d:
		return s.eventCountWindow(ctx, customer, "call")
	case CardDialinCount7dWindow30d:
		return s.eventCountWindow(ctx, customer, "dialin")
	case CardSupportTickets7dWindow30d:
		return s.eventCountWindow(ctx, customer, "support_ticket")
	case CardCommentsRecent7d:
		return s.recentComments(ctx, customer)
	default:
		return nil, ErrUnknownCard
	}
}

// dayGrid is the shared 30-day date spine for history cards.
const dayGrid = `WITH all_days AS (
	SELECT generate_series((now() - interval '29 days')::date, now()::date, interval '1 day')::date AS day
)`

func (s *Service) boxesCumulative(ctx context.Context, customer, kind string) (Series, error) {
	var query string
	if kind == "purchased" {
		query = dayGrid + `
SELECT day, (
	SELECT COALESCE(SUM(purchased), 0) FROM company_events
	WHERE company = $1 AND type = 'purchased' AND purchased IS NOT NULL AND ts::date <= day
) AS total
FROM all_days ORDER BY day`
	} else {
		query = dayGrid + `
SELECT day, (
	SELECT COALESCE(SUM(provisioned), 0) FROM company_events
	WHERE company = $1 AND type = 'provisioned' AND provisioned IS NOT NULL AND ts::date <= day
) AS total
FROM all_days ORDER BY day`
	}
	return s.series(ctx, query, customer)
}

// provisionedPct is the share of boxes purchased so far that have been
// provisioned, per day. Days before the first purchase carry no value.
func (s *Service) provisionedPct(ctx context.Context, customer string) (Series, error) {
	query := dayGrid + `
SELECT day,
	CASE WHEN (
		SELECT COALESCE(SUM(purchased), 0) FROM company_events
		WHERE company = $1 AND type = 'purchased' AND purchased IS NOT NULL AND ts::date <= day
	) > 0 THEN ROUND((
		SELECT COALESCE(SUM(provisioned), 0) FROM company_events
		WHERE company = $1 AND type = 'provisioned' AND provisioned IS NOT NULL AND ts::date <= day
	)::numeric / (
		SELECT COALESCE(SUM(purchased), 0) FROM company_events
		WHERE company = $1 AND type = 'purchased' AND purchased IS NOT NULL AND ts::date <= day
	) * 100, 2)
	ELSE NULL END AS pct
FROM all_days ORDER BY day`
	return s.series(ctx, query, customer)
}

func (s *Service) usersRegisteredCumulative(ctx context.Context, customer string) (Series, error) {
	query := dayGrid + `
SELECT day, (
	SELECT COUNT(*) FROM user_events
	WHERE company = $1 AND type = 'register' AND ts::date <= day
) AS total
FROM all_days ORDER BY day`
	return s.series(ctx, query, customer)
}

// eventCountWindow counts user events of one type over a trailing 7-day
// window for each day of the grid. eventType is one of the Card constants'
// fixed types, never caller input.
func (s *Service) eventCountWindow(ctx context.Context, customer, eventType string) (Series, error) {
	query := dayGrid + fmt.Sprintf(`
SELECT day, (
	SELECT COUNT(*) FROM user_events
	WHERE company = $1 AND type = '%s'
		AND ts::date >= day - 6 AND ts::date <= day
) AS total
FROM all_days ORDER BY day`, eventType)
	return s.series(ctx, query, customer)
}

func (s *Service) usersActive(ctx context.Context, customer string) (Series, error) {
	query := dayGrid + `
SELECT day, (
	SELECT COUNT(DISTINCT "user") FROM user_events
	WHERE company = $1 AND type IN ('call', 'dialin')
		AND ts::date >= day - 6 AND ts::date <= day
) AS active
FROM all_days ORDER BY day`
	return s.series(ctx, query, customer)
}

// series runs a day-grid query returning (day, numeric) rows.
func (s *Service) series(ctx context.Context, query, customer string) (Series, error) {
	rows, err := s.db.QueryContext(ctx, query, customer)
	if err != nil {
		return Series{}, err
	}
	defer rows.Close()

	var out Series
	for rows.Next() {
		var day time.Time
		var value sql.NullFloat64
		if err := rows.Scan(&day, &value); err != nil {
			return Series{}, err
		}
		p := Point{Date: day}
		if value.Valid {
			v := value.Float64
			p.Value = &v
			out.Value = &v
		}
		out.History = append(out.History, p)
	}
	return out, rows.Err()
}

func (s *Service) callsBreakdown(ctx context.Context, customer string) (CallsBreakdown, error) {
	byType, err := s.breakdown(ctx, `SELECT call_type, COUNT(*) `+
		`FROM user_events WHERE company = $1 AND type = 'call' AND call_type IS NOT NULL AND ts >= now() - interval '7 days' `+
		`GROUP BY call_type ORDER BY COUNT(*) DESC`, customer)
	if err != nil {
		return CallsBreakdown{}, err
	}
	byUsers, err := s.breakdown(ctx, `SELECT call_num_users::text, COUNT(*) `+
		`FROM user_events WHERE company = $1 AND type = 'call' AND call_num_users IS NOT NULL AND ts >= now() - interval '7 days' `+
		`GROUP BY call_num_users ORDER BY call_num_users`, customer)
	if err != nil {
		return CallsBreakdown{}, err
	}
	byOS, err := s.breakdown(ctx, `SELECT call_os, COUNT(*) `+
		`FROM user_events WHERE company = $1 AND type = 'call' AND call_os IS NOT NULL AND ts >= now() - interval '7 days' `+
		`GROUP BY call_os ORDER BY COUNT(*) DESC`, customer)
	if err != nil {
		return CallsBreakdown{}, err
	}
	return CallsBreakdown{ByType: byType, ByParticipants: byUsers, ByOS: byOS}, nil
}

func (s *Service) breakdown(ctx context.Context, query, customer string) ([]BreakdownRow, error) {
	rows, err := s.db.QueryContext(ctx, query, customer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BreakdownRow
	for rows.Next() {
		var r BreakdownRow
		if err := rows.Scan(&r.Label, &r.Calls); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) ratingsAverage(ctx context.Context, customer string) (Ratings, error) {
	query := dayGrid + `
SELECT day,
	(SELECT AVG(rating) FROM user_events
	 WHERE company = $1 AND type = 'rating' AND rating IS NOT NULL
		AND ts::date >= day - 6 AND ts::date <= day) AS avg_rating,
	(SELECT COUNT(rating) FROM user_events
	 WHERE company = $1 AND type = 'rating' AND rating IS NOT NULL
		AND ts::date >= day - 6 AND ts::date <= day) AS num_rating
FROM all_days ORDER BY day`

	rows, err := s.db.QueryContext(ctx, query, customer)
	if err != nil {
		return Ratings{}, err
	}
	defer rows.Close()

	var out Ratings
	for rows.Next() {
		var day time.Time
		var avg sql.NullFloat64
		var num int
		if err := rows.Scan(&day, &avg, &num); err != nil {
			return Ratings{}, err
		}
		p := Point{Date: day}
		if avg.Valid {
			v := avg.Float64
			p.Value = &v
			out.Value = RatingsValue{Avg: &v, Num: num}
		}
		out.History = append(out.History, p)
	}
	return out, rows.Err()
}

func (s *Service) recentComments(ctx context.Context, customer string) ([]Comment, error) {
	const query = `SELECT comment, "user", ts
FROM user_events
WHERE company = $1 AND type = 'comment' AND comment IS NOT NULL
	AND ts >= now() - interval '7 days'
ORDER BY ts DESC
LIMIT 50`

	rows, err := s.db.QueryContext(ctx, query, customer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.Comment, &c.User, &c.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
