package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTopN is the size of ranked lists when none is requested.
const DefaultTopN = 5

// Report is everything rendering and export need for one computation.
type Report struct {
	Granularity    Granularity  `json:"granularity"`
	Period         TimeWindow   `json:"period"`
	PreviousPeriod TimeWindow   `json:"previousPeriod"`
	Filters        Filters      `json:"filters"`
	Headline       Headline     `json:"headline"`
	Previous       PeriodTotals `json:"previous"`
	Comparison     Comparison   `json:"comparison"`

	Series  []SeriesPoint   `json:"series"`
	Hourly  []SeriesPoint   `json:"hourly"`
	Monthly []SeriesPoint   `json:"monthly"`
	ByType  []TypeBreakdown `json:"byType"`

	TopItems          []RankedEntry `json:"topItems"`
	TopCategories     []RankedEntry `json:"topCategories"`
	WaiterLeaderboard []RankedEntry `json:"waiterLeaderboard"`
	WaiterTable       []RankedEntry `json:"waiterTable"`

	OrdersByWeekday []HistogramEntry `json:"ordersByWeekday"`
	OrdersByStatus  []HistogramEntry `json:"ordersByStatus"`
	OrdersByType    []HistogramEntry `json:"ordersByType"`

	GeneratedAt time.Time `json:"generatedAt"`
}

type Headline struct {
	Orders               int             `json:"orders"`
	PaidOrders           int             `json:"paidOrders"`
	Revenue              decimal.Decimal `json:"revenue"`
	PaidRevenue          decimal.Decimal `json:"paidRevenue"`
	UnpaidRevenue        decimal.Decimal `json:"unpaidRevenue"`
	AverageOrderValue    decimal.Decimal `json:"averageOrderValue"`
	Items                int             `json:"items"`
	AverageItemsPerOrder decimal.Decimal `json:"averageItemsPerOrder"`
}

// SeriesPoint is one time bucket.
type SeriesPoint struct {
	Label             string                        `json:"label"`
	Orders            int                           `json:"orders"`
	Revenue           decimal.Decimal               `json:"revenue"`
	PaidRevenue       decimal.Decimal               `json:"paidRevenue"`
	UnpaidRevenue     decimal.Decimal               `json:"unpaidRevenue"`
	TypeRevenue       map[OrderType]decimal.Decimal `json:"typeRevenue"`
	AverageOrderValue decimal.Decimal               `json:"averageOrderValue"`
}

type RankedEntry struct {
	Key               string          `json:"key"`
	Name              string          `json:"name"`
	Count             int             `json:"count"`
	Revenue           decimal.Decimal `json:"revenue"`
	PercentageOfTotal float64         `json:"percentageOfTotal"`
	IsCustomer        bool            `json:"isCustomer,omitempty"`
}

type HistogramEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type TypeBreakdown struct {
	Type              OrderType       `json:"type"`
	Orders            int             `json:"orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	PercentageOfTotal float64         `json:"percentageOfTotal"`
}

// Bucket is one slot of the range-driven time series.
type Bucket struct {
	Label string
	Start time.Time
}

// Buckets enumerates the series slots of r. The slots depend only on the
// range, never on which buckets received orders.
func Buckets(r DateRange) []Bucket {
	start := r.Current.Start
	loc := r.Location()

	switch r.Granularity {
	case GranularityToday:
		out := make([]Bucket, 0, 24)
		day := startOfDay(start)
		for h := 0; h < 24; h++ {
			out = append(out, Bucket{Label: hourLabel(h), Start: day.Add(time.Duration(h) * time.Hour)})
		}
		return out
	case GranularityYear:
		out := make([]Bucket, 0, 12)
		for m := time.January; m <= time.December; m++ {
			t := time.Date(start.Year(), m, 1, 0, 0, 0, 0, loc)
			out = append(out, Bucket{Label: t.Format(monthLayout), Start: t})
		}
		return out
	default:
		var out []Bucket
		for d := startOfDay(start); !d.After(r.Current.End); d = d.AddDate(0, 0, 1) {
			out = append(out, Bucket{Label: d.Format(dayLayout), Start: d})
		}
		return out
	}
}

// Assemble turns the accumulators into the report. topN <= 0 uses DefaultTopN.
func Assemble(agg *Aggregate, topN int, generatedAt time.Time) *Report {
	if topN <= 0 {
		topN = DefaultTopN
	}
	current := agg.Current()
	totalRevenue := agg.Totals.Revenue

	rep := &Report{
		Granularity:    agg.Range.Granularity,
		Period:         agg.Range.Current,
		PreviousPeriod: agg.Range.Previous,
		Filters:        agg.Filters,
		Headline: Headline{
			Orders:               current.Orders,
			PaidOrders:           current.PaidOrders,
			Revenue:              totalRevenue,
			PaidRevenue:          agg.Totals.PaidRevenue,
			UnpaidRevenue:        agg.Totals.UnpaidRevenue,
			AverageOrderValue:    AverageOrderValue(totalRevenue, current.Orders),
			Items:                agg.Units,
			AverageItemsPerOrder: perOrder(decimal.NewFromInt(int64(agg.Units)), current.Orders),
		},
		Previous:    agg.Previous,
		Comparison:  Compare(current, agg.Previous),
		GeneratedAt: generatedAt,
	}

	buckets := Buckets(agg.Range)
	rep.Series = make([]SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		rep.Series = append(rep.Series, seriesPoint(b.Label, agg.ByBucket[b.Label]))
	}

	rep.Hourly = make([]SeriesPoint, 0, 24)
	for h := 0; h < 24; h++ {
		l := hourLabel(h)
		rep.Hourly = append(rep.Hourly, seriesPoint(l, agg.ByHour[l]))
	}

	months := make([]string, 0, len(agg.ByMonth))
	for k := range agg.ByMonth {
		months = append(months, k)
	}
	sort.Strings(months)
	rep.Monthly = make([]SeriesPoint, 0, len(months))
	for _, m := range months {
		rep.Monthly = append(rep.Monthly, seriesPoint(m, agg.ByMonth[m]))
	}

	for _, t := range OrderTypes {
		tally := agg.ByType[string(t)]
		tb := TypeBreakdown{Type: t, Revenue: decimal.Zero}
		if tally != nil {
			tb.Orders = tally.Count
			tb.Revenue = tally.Revenue
		}
		tb.PercentageOfTotal = Percentage(tb.Revenue, totalRevenue)
		rep.ByType = append(rep.ByType, tb)
		rep.OrdersByType = append(rep.OrdersByType, HistogramEntry{Key: string(t), Count: tb.Orders})
	}

	rep.TopItems = firstN(rank(agg.ByItem, nil, totalRevenue), topN)
	rep.TopCategories = firstN(rank(agg.ByCategory, nil, totalRevenue), topN)

	rep.WaiterTable = rank(agg.ByWaiter, agg.Attributions, totalRevenue)
	rep.WaiterLeaderboard = make([]RankedEntry, 0, len(rep.WaiterTable))
	for _, e := range rep.WaiterTable {
		if !e.IsCustomer {
			rep.WaiterLeaderboard = append(rep.WaiterLeaderboard, e)
		}
	}

	for d := time.Sunday; d <= time.Saturday; d++ {
		rep.OrdersByWeekday = append(rep.OrdersByWeekday, HistogramEntry{Key: d.String(), Count: count(agg.ByWeekday, d.String())})
	}
	for _, s := range OrderStatuses {
		rep.OrdersByStatus = append(rep.OrdersByStatus, HistogramEntry{Key: string(s), Count: count(agg.ByStatus, string(s))})
	}
	return rep
}

func seriesPoint(label string, t *Tally) SeriesPoint {
	p := SeriesPoint{
		Label:         label,
		Revenue:       decimal.Zero,
		PaidRevenue:   decimal.Zero,
		UnpaidRevenue: decimal.Zero,
		TypeRevenue:   t.typeRevenue(),
	}
	if t != nil {
		p.Orders = t.Count
		p.Revenue = t.Revenue
		p.PaidRevenue = t.PaidRevenue
		p.UnpaidRevenue = t.UnpaidRevenue
	}
	p.AverageOrderValue = AverageOrderValue(p.Revenue, p.Orders)
	return p
}

func count(a Accumulator, key string) int {
	if t, ok := a[key]; ok {
		return t.Count
	}
	return 0
}

// rank sorts an accumulator by revenue, then count, descending. Names come
// from attributions when given, otherwise the key is the name.
func rank(a Accumulator, attributions map[string]Attribution, total decimal.Decimal) []RankedEntry {
	out := make([]RankedEntry, 0, len(a))
	for key, t := range a {
		e := RankedEntry{
			Key:               key,
			Name:              key,
			Count:             t.Count,
			Revenue:           t.Revenue,
			PercentageOfTotal: Percentage(t.Revenue, total),
		}
		if who, ok := attributions[key]; ok {
			e.Name = who.Name
			e.IsCustomer = who.IsCustomer
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func firstN(entries []RankedEntry, n int) []RankedEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

func (r *Report) String() string {
	return fmt.Sprintf("%s report %s..%s: %d orders, revenue %s",
		r.Granularity, r.Period.Start.Format(time.RFC3339), r.Period.End.Format(time.RFC3339),
		r.Headline.Orders, r.Headline.Revenue.StringFixed(2))
}
