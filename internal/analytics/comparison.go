package analytics

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Comparison holds period-over-period changes in percent.
type Comparison struct {
	Orders            float64 `json:"ordersChange"`
	Revenue           float64 `json:"revenueChange"`
	AverageOrderValue float64 `json:"averageOrderValueChange"`
	PaidOrders        float64 `json:"paidOrdersChange"`
}

// ChangePct is (current - previous) / previous × 100, rounded to two places.
// A non-positive previous value yields 0.
func ChangePct(current, previous decimal.Decimal) float64 {
	if !previous.IsPositive() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2).InexactFloat64()
}

func changePctInt(current, previous int) float64 {
	return ChangePct(decimal.NewFromInt(int64(current)), decimal.NewFromInt(int64(previous)))
}

// AverageOrderValue is revenue / orders, or 0 without orders.
func AverageOrderValue(revenue decimal.Decimal, orders int) decimal.Decimal {
	return perOrder(revenue, orders)
}

func perOrder(v decimal.Decimal, orders int) decimal.Decimal {
	if orders <= 0 {
		return decimal.Zero
	}
	return v.Div(decimal.NewFromInt(int64(orders))).Round(2)
}

// Percentage is part / total × 100, or 0 for an empty total.
func Percentage(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).Mul(hundred).Round(2).InexactFloat64()
}

func Compare(current, previous PeriodTotals) Comparison {
	return Comparison{
		Orders:  changePctInt(current.Orders, previous.Orders),
		Revenue: ChangePct(current.Revenue, previous.Revenue),
		AverageOrderValue: ChangePct(
			AverageOrderValue(current.Revenue, current.Orders),
			AverageOrderValue(previous.Revenue, previous.Orders),
		),
		PaidOrders: changePctInt(current.PaidOrders, previous.PaidOrders),
	}
}
