package analytics

import (
	"github.com/shopspring/decimal"
)

// Tally is the numeric tuple kept per dimension key.
type Tally struct {
	Count         int
	Revenue       decimal.Decimal
	PaidRevenue   decimal.Decimal
	UnpaidRevenue decimal.Decimal
	TypeRevenue   map[OrderType]decimal.Decimal
}

func newTally() *Tally {
	return &Tally{TypeRevenue: make(map[OrderType]decimal.Decimal, len(OrderTypes))}
}

func (t *Tally) addOrder(o Order, revenue decimal.Decimal) {
	t.Count++
	t.Revenue = t.Revenue.Add(revenue)
	if o.IsPaid() {
		t.PaidRevenue = t.PaidRevenue.Add(revenue)
	} else {
		t.UnpaidRevenue = t.UnpaidRevenue.Add(revenue)
	}
	t.TypeRevenue[o.Type] = t.TypeRevenue[o.Type].Add(revenue)
}

func (t *Tally) addUnits(n int, revenue decimal.Decimal) {
	t.Count += n
	t.Revenue = t.Revenue.Add(revenue)
}

// typeRevenue returns the per-type revenue with every type present.
func (t *Tally) typeRevenue() map[OrderType]decimal.Decimal {
	out := make(map[OrderType]decimal.Decimal, len(OrderTypes))
	for _, ot := range OrderTypes {
		out[ot] = decimal.Zero
		if t != nil {
			out[ot] = t.TypeRevenue[ot]
		}
	}
	return out
}

// Accumulator maps a dimension key to its running tally.
type Accumulator map[string]*Tally

func (a Accumulator) at(key string) *Tally {
	t, ok := a[key]
	if !ok {
		t = newTally()
		a[key] = t
	}
	return t
}

// PeriodTotals are the headline counters compared between periods.
type PeriodTotals struct {
	Orders     int             `json:"orders"`
	Revenue    decimal.Decimal `json:"revenue"`
	PaidOrders int             `json:"paidOrders"`
}

// Attribution identifies who an order is credited to in the waiter table.
type Attribution struct {
	Key        string
	Name       string
	IsCustomer bool
}

const customerKeyPrefix = "customer:"

// Aggregate holds every accumulator of one computation. A fresh Aggregate is
// allocated per computation and never shared.
type Aggregate struct {
	Range   DateRange
	Filters Filters

	Totals   Tally
	Units    int
	Previous PeriodTotals

	ByType     Accumulator
	ByStatus   Accumulator
	ByItem     Accumulator
	ByCategory Accumulator
	ByHour     Accumulator
	ByWeekday  Accumulator
	ByMonth    Accumulator
	ByBucket   Accumulator
	ByWaiter   Accumulator

	Attributions map[string]Attribution
}

func newAggregate(r DateRange, f Filters) *Aggregate {
	return &Aggregate{
		Range:        r,
		Filters:      f,
		Totals:       *newTally(),
		ByType:       make(Accumulator),
		ByStatus:     make(Accumulator),
		ByItem:       make(Accumulator),
		ByCategory:   make(Accumulator),
		ByHour:       make(Accumulator),
		ByWeekday:    make(Accumulator),
		ByMonth:      make(Accumulator),
		ByBucket:     make(Accumulator),
		ByWaiter:     make(Accumulator),
		Attributions: make(map[string]Attribution),
	}
}

// Current returns the facet-filtered headline counters.
func (a *Aggregate) Current() PeriodTotals {
	paid := 0
	if t, ok := a.ByStatus[string(StatusPaid)]; ok {
		paid = t.Count
	}
	return PeriodTotals{Orders: a.Totals.Count, Revenue: a.Totals.Revenue, PaidOrders: paid}
}
