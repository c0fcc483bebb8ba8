package analytics

import (
	"errors"
	"fmt"
	"time"
)

type Granularity string

const (
	GranularityToday  Granularity = "today"
	GranularityWeek   Granularity = "week"
	GranularityMonth  Granularity = "month"
	GranularityYear   Granularity = "year"
	GranularityCustom Granularity = "custom"
)

// Preset selects a predefined custom range.
type Preset string

const (
	PresetLast7Days  Preset = "last7days"
	PresetLast30Days Preset = "last30days"
	PresetLast90Days Preset = "last90days"
	PresetSpecific   Preset = "specific"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"

	// timeUnit is the resolution of window bounds: a window ends at 23:59:59.999.
	timeUnit = time.Millisecond
)

var (
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidMonth       = errors.New("invalid month, expected YYYY-MM")
	ErrInvalidPreset      = errors.New("invalid custom range preset")
	ErrMissingCustomRange = errors.New("custom range requires a from date")
)

// RangeParams carries the granularity selector and its sub-parameters.
type RangeParams struct {
	Granularity Granularity `json:"granularity"`
	Month       string      `json:"month,omitempty"`  // YYYY-MM, month granularity only
	Preset      Preset      `json:"preset,omitempty"` // custom granularity only
	From        time.Time   `json:"from,omitempty"`
	To          time.Time   `json:"to,omitempty"`
}

// TimeWindow is an inclusive [Start, End] interval at millisecond resolution.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains treats the window as [Start, End+1ms) so instants with
// sub-millisecond precision after End still belong to it.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End.Add(timeUnit))
}

// Length is the window duration counting both bounds.
func (w TimeWindow) Length() time.Duration {
	return w.End.Sub(w.Start) + timeUnit
}

// DateRange is the resolved analysis window and the equal-length window
// right before it.
type DateRange struct {
	Granularity Granularity `json:"granularity"`
	Current     TimeWindow  `json:"current"`
	Previous    TimeWindow  `json:"previous"`
}

// Location is the implicit zone all buckets are computed in.
func (r DateRange) Location() *time.Location {
	return r.Current.Start.Location()
}

// ResolveRange computes the current and previous windows for now. Windows
// are aligned to whole days (whole hours for today) so the bucket series of
// the granularity partitions the current window exactly.
func ResolveRange(now time.Time, p RangeParams) (DateRange, error) {
	g := p.Granularity
	if g == "" {
		g = GranularityToday
	}

	var cur TimeWindow
	switch g {
	case GranularityToday:
		cur = TimeWindow{Start: startOfDay(now), End: endOfDay(now)}
	case GranularityWeek:
		// seven calendar days ending today
		cur = TimeWindow{Start: startOfDay(now.AddDate(0, 0, -6)), End: endOfDay(now)}
	case GranularityMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		if p.Month != "" {
			m, err := time.ParseInLocation(monthLayout, p.Month, now.Location())
			if err != nil {
				return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidMonth, p.Month)
			}
			first = m
		}
		cur = TimeWindow{Start: first, End: first.AddDate(0, 1, 0).Add(-timeUnit)}
	case GranularityYear:
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		cur = TimeWindow{Start: first, End: first.AddDate(1, 0, 0).Add(-timeUnit)}
	case GranularityCustom:
		w, err := resolveCustom(now, p)
		if err != nil {
			return DateRange{}, err
		}
		cur = w
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidGranularity, p.Granularity)
	}

	return DateRange{
		Granularity: g,
		Current:     cur,
		Previous:    previousWindow(cur),
	}, nil
}

func resolveCustom(now time.Time, p RangeParams) (TimeWindow, error) {
	lastDays := func(n int) TimeWindow {
		return TimeWindow{Start: startOfDay(now.AddDate(0, 0, -(n - 1))), End: endOfDay(now)}
	}

	switch p.Preset {
	case PresetLast7Days:
		return lastDays(7), nil
	case PresetLast30Days:
		return lastDays(30), nil
	case PresetLast90Days:
		return lastDays(90), nil
	case PresetSpecific, "":
		if p.From.IsZero() {
			if p.Preset == "" {
				return lastDays(7), nil
			}
			return TimeWindow{}, ErrMissingCustomRange
		}
		from, to := p.From.In(now.Location()), p.To.In(now.Location())
		if p.To.IsZero() {
			to = from
		}
		if to.Before(from) {
			from, to = to, from
		}
		return TimeWindow{Start: startOfDay(from), End: endOfDay(to)}, nil
	default:
		return TimeWindow{}, fmt.Errorf("%w: %q", ErrInvalidPreset, p.Preset)
	}
}

// previousWindow returns the window of identical length ending one time unit
// before cur starts.
func previousWindow(cur TimeWindow) TimeWindow {
	length := cur.Length()
	prevEnd := cur.Start.Add(-timeUnit)
	return TimeWindow{
		Start: prevEnd.Add(-length + timeUnit),
		End:   prevEnd,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-timeUnit)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
