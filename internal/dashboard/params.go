package dashboard

import (
	"fmt"
	"strings"
	"time"

	"restoran-analytics/internal/analytics"
	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxTopN = 50

// ReportQuery is the wire form of report parameters, read from the query
// string (GET) or a JSON body (PUT /live).
type ReportQuery struct {
	Granularity string `query:"granularity" json:"granularity"`
	Month       string `query:"month" json:"month"`
	Preset      string `query:"preset" json:"preset"`
	From        string `query:"from" json:"from"` // YYYY-MM-DD
	To          string `query:"to" json:"to"`
	Types       string `query:"types" json:"types"`     // csv of order types
	Payment     string `query:"payment" json:"payment"` // csv of paid, unpaid
	Waiter      string `query:"waiter" json:"waiter"`
	Category    string `query:"category" json:"category"`
	Top         int    `query:"top" json:"top"`
}

// Params validates q and converts it to engine parameters. Dates are read
// in loc.
func (q ReportQuery) Params(loc *time.Location, defaultTopN int) (analytics.Params, error) {
	if loc == nil {
		loc = time.Local
	}
	var p analytics.Params

	p.Range.Granularity = analytics.Granularity(strings.ToLower(strings.TrimSpace(q.Granularity)))
	p.Range.Month = strings.TrimSpace(q.Month)
	p.Range.Preset = analytics.Preset(strings.TrimSpace(q.Preset))

	var err error
	if p.Range.From, err = parseDay(q.From, loc); err != nil {
		return p, fmt.Errorf("from: %w", err)
	}
	if p.Range.To, err = parseDay(q.To, loc); err != nil {
		return p, fmt.Errorf("to: %w", err)
	}

	for _, v := range splitCSV(q.Types) {
		t := analytics.OrderType(v)
		if !t.Valid() {
			return p, fmt.Errorf("unknown order type %q", v)
		}
		p.Filters.OrderTypes = append(p.Filters.OrderTypes, t)
	}
	for _, v := range splitCSV(q.Payment) {
		s := analytics.PaymentState(v)
		if !s.Valid() {
			return p, fmt.Errorf("unknown payment state %q", v)
		}
		p.Filters.Payment = append(p.Filters.Payment, s)
	}
	p.Filters.WaiterID = strings.TrimSpace(q.Waiter)
	p.Filters.Category = strings.TrimSpace(q.Category)

	switch {
	case q.Top < 0 || q.Top > maxTopN:
		return p, fmt.Errorf("top must be between 1 and %d", maxTopN)
	case q.Top == 0:
		p.TopN = defaultTopN
	default:
		p.TopN = q.Top
	}
	return p, nil
}

func parseDay(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v)
	}
	return t, nil
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" && part != analytics.FilterAll {
			out = append(out, part)
		}
	}
	return out
}

// scopeToCaller pins waiters to their own orders.
func scopeToCaller(c *fiber.Ctx, p *analytics.Params) {
	if role, _ := c.Locals(auth.CtxUserRoleKey).(models.UserRole); role == models.RoleWaiter {
		p.Filters.WaiterID = models.ToKey(auth.UserID(c))
	}
}
