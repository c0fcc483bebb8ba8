package analytics

import (
	"fmt"
	"strings"
	"time"
)

// FilterAll is the selector value meaning "no constraint".
const FilterAll = "all"

// Filters are the facet constraints of the current-period breakdown. Empty
// sets and empty or "all" selectors do not constrain.
type Filters struct {
	OrderTypes []OrderType    `json:"orderTypes,omitempty"`
	Payment    []PaymentState `json:"payment,omitempty"`
	WaiterID   string         `json:"waiterId,omitempty"`
	Category   string         `json:"category,omitempty"`
}

func (f Filters) waiterSelected() bool {
	return f.WaiterID != "" && f.WaiterID != FilterAll
}

func (f Filters) categorySelected() bool {
	return f.Category != "" && f.Category != FilterAll
}

// matches reports whether o passes every facet. categories are the resolved
// category names of o's line items.
func (f Filters) matches(o Order, categories []string) bool {
	if len(f.OrderTypes) > 0 && !contains(f.OrderTypes, o.Type) {
		return false
	}
	if len(f.Payment) > 0 && !contains(f.Payment, o.PaymentState()) {
		return false
	}
	if f.waiterSelected() && o.WaiterID != f.WaiterID {
		return false
	}
	if f.categorySelected() {
		for _, c := range categories {
			if c == f.Category {
				return true
			}
		}
		return false
	}
	return true
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Fold makes a single pass over orders. Orders in the previous window only
// feed the unfiltered comparison counters; orders in the current window that
// pass the facet filters feed every breakdown accumulator.
func Fold(orders []Order, r DateRange, f Filters, categories *CategoryResolver, waiterNames map[string]string) *Aggregate {
	agg := newAggregate(r, f)
	loc := r.Location()

	for _, o := range orders {
		eff := o.EffectiveDate()
		revenue := o.Revenue()

		if r.Previous.Contains(eff) {
			agg.Previous.Orders++
			agg.Previous.Revenue = agg.Previous.Revenue.Add(revenue)
			if o.IsPaid() {
				agg.Previous.PaidOrders++
			}
			continue
		}
		if !r.Current.Contains(eff) {
			continue
		}

		itemCategories := make([]string, len(o.Items))
		for i, it := range o.Items {
			itemCategories[i] = categories.Name(it)
		}
		if !f.matches(o, itemCategories) {
			continue
		}

		local := eff.In(loc)
		agg.Totals.addOrder(o, revenue)
		agg.ByType.at(string(o.Type)).addOrder(o, revenue)
		agg.ByStatus.at(string(o.Status)).addOrder(o, revenue)
		agg.ByHour.at(hourLabel(local.Hour())).addOrder(o, revenue)
		agg.ByWeekday.at(local.Weekday().String()).addOrder(o, revenue)
		agg.ByMonth.at(local.Format(monthLayout)).addOrder(o, revenue)
		agg.ByBucket.at(BucketLabel(r.Granularity, local)).addOrder(o, revenue)

		for i, it := range o.Items {
			agg.Units += it.Quantity
			itemRevenue := it.Revenue()
			agg.ByItem.at(it.Name).addUnits(it.Quantity, itemRevenue)
			agg.ByCategory.at(itemCategories[i]).addUnits(it.Quantity, itemRevenue)
		}

		if who, ok := attribute(o, waiterNames); ok {
			agg.Attributions[who.Key] = who
			agg.ByWaiter.at(who.Key).addOrder(o, revenue)
		}
	}
	return agg
}

// attribute credits an order to its waiter, or to a pseudo entry for the
// customer when no waiter is assigned.
func attribute(o Order, waiterNames map[string]string) (Attribution, bool) {
	if o.WaiterID != "" {
		name := waiterNames[o.WaiterID]
		if name == "" {
			name = o.WaiterID
		}
		return Attribution{Key: o.WaiterID, Name: name}, true
	}
	if o.CustomerName != "" {
		return Attribution{
			Key:        customerKeyPrefix + strings.ToLower(o.CustomerName),
			Name:       o.CustomerName,
			IsCustomer: true,
		}, true
	}
	return Attribution{}, false
}

func hourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// BucketLabel is the time series key of t for granularity g: "HH:00" for
// today, the month for year and the calendar day otherwise.
func BucketLabel(g Granularity, t time.Time) string {
	switch g {
	case GranularityToday:
		return hourLabel(t.Hour())
	case GranularityYear:
		return t.Format(monthLayout)
	default:
		return t.Format(dayLayout)
	}
}
