package analytics

import (
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// rawOrder mirrors the stored order document. Every field is optional.
type rawOrder struct {
	ID            string       `mapstructure:"id"`
	OrderType     string       `mapstructure:"orderType"`
	Status        string       `mapstructure:"status"`
	CreatedAt     RawTimestamp `mapstructure:"createdAt"`
	PaidAt        RawTimestamp `mapstructure:"paidAt"`
	Items         []rawItem    `mapstructure:"items"`
	Total         float64      `mapstructure:"total"`
	Subtotal      float64      `mapstructure:"subtotal"`
	DeliveryFee   float64      `mapstructure:"deliveryFee"`
	ContainerCost float64      `mapstructure:"containerCost"`
	WaiterID      string       `mapstructure:"waiterId"`
	CustomerName  string       `mapstructure:"customerName"`
}

type rawItem struct {
	Name       string  `mapstructure:"name"`
	Price      float64 `mapstructure:"price"`
	Quantity   float64 `mapstructure:"quantity"`
	CategoryID string  `mapstructure:"categoryId"`
}

var rawTimestampType = reflect.TypeOf(RawTimestamp{})

var rawTimestampHook mapstructure.DecodeHookFuncType = func(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != rawTimestampType {
		return data, nil
	}
	return NewRawTimestamp(data), nil
}

// Normalizer turns stored order records into canonical Orders.
type Normalizer struct {
	Now func() time.Time
	Log logrus.FieldLogger
}

// Normalize is total: malformed fields fall back to defaults (zero money,
// empty items, now for unreadable timestamps) and are only logged.
func (n Normalizer) Normalize(rec map[string]any) Order {
	now := time.Now()
	if n.Now != nil {
		now = n.Now()
	}

	var raw rawOrder
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       rawTimestampHook,
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err == nil {
		err = dec.Decode(rec)
	}
	if err != nil && n.Log != nil {
		n.Log.WithError(err).WithField("order_id", rec["id"]).Debug("order record partially decoded")
	}

	o := Order{
		ID:            strings.TrimSpace(raw.ID),
		Type:          normalizeType(raw.OrderType),
		Status:        normalizeStatus(raw.Status),
		Total:         money(raw.Total),
		Subtotal:      money(raw.Subtotal),
		DeliveryFee:   money(raw.DeliveryFee),
		ContainerCost: money(raw.ContainerCost),
		WaiterID:      strings.TrimSpace(raw.WaiterID),
		CustomerName:  strings.TrimSpace(raw.CustomerName),
		Items:         make([]OrderItem, 0, len(raw.Items)),
	}

	if !raw.CreatedAt.Present() && n.Log != nil {
		n.Log.WithField("order_id", o.ID).Debug("order without createdAt, using now")
	}
	o.CreatedAt = raw.CreatedAt.Resolve(now)
	if raw.PaidAt.Present() {
		paid := raw.PaidAt.Resolve(now)
		o.PaidAt = &paid
	}

	for _, it := range raw.Items {
		qty := int(it.Quantity)
		if qty < 0 {
			qty = 0
		}
		item := OrderItem{
			Name:       strings.TrimSpace(it.Name),
			Price:      money(it.Price),
			Quantity:   qty,
			CategoryID: strings.TrimSpace(it.CategoryID),
		}
		// unnamed lines worth nothing are decoding leftovers, not sales
		if item.Name == "" && item.Price.Mul(decimal.NewFromInt(int64(qty))).IsZero() {
			continue
		}
		o.Items = append(o.Items, item)
	}
	return o
}

func money(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// normalizeType maps unknown or missing types to table so every order lands
// in exactly one type bucket.
func normalizeType(s string) OrderType {
	t := OrderType(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t
	}
	return OrderTypeTable
}

func normalizeStatus(s string) OrderStatus {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st
	}
	return StatusPending
}
