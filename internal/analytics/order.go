package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeTable    OrderType = "table"
	OrderTypeSaboy    OrderType = "saboy" // takeaway
	OrderTypeDelivery OrderType = "delivery"
)

// OrderTypes lists every order type in display order.
var OrderTypes = []OrderType{OrderTypeTable, OrderTypeSaboy, OrderTypeDelivery}

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeTable, OrderTypeSaboy, OrderTypeDelivery:
		return true
	}
	return false
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusDelivered OrderStatus = "delivered"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusPreparing, StatusReady, StatusCompleted,
	StatusDelivered, StatusPaid, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type PaymentState string

const (
	PaymentPaid   PaymentState = "paid"
	PaymentUnpaid PaymentState = "unpaid"
)

func (p PaymentState) Valid() bool {
	return p == PaymentPaid || p == PaymentUnpaid
}

// Order is the canonical, normalized order record the engine folds over.
type Order struct {
	ID            string
	Type          OrderType
	Status        OrderStatus
	CreatedAt     time.Time
	PaidAt        *time.Time
	Items         []OrderItem
	Total         decimal.Decimal
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	ContainerCost decimal.Decimal
	WaiterID      string
	CustomerName  string
}

type OrderItem struct {
	Name       string
	Price      decimal.Decimal
	Quantity   int
	CategoryID string
}

// Revenue is price × quantity.
func (i OrderItem) Revenue() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// EffectiveDate places the order in time: paidAt for paid orders that carry
// one, createdAt otherwise.
func (o Order) EffectiveDate() time.Time {
	if o.Status == StatusPaid && o.PaidAt != nil {
		return *o.PaidAt
	}
	return o.CreatedAt
}

func (o Order) IsPaid() bool {
	return o.Status == StatusPaid
}

func (o Order) PaymentState() PaymentState {
	if o.IsPaid() {
		return PaymentPaid
	}
	return PaymentUnpaid
}

// ItemsTotal sums price × quantity over all line items.
func (o Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Revenue())
	}
	return sum
}

// ItemCount sums line item quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Revenue is the amount the order contributes to every revenue figure.
// A stored total already includes delivery and container fees, so fees are
// only added when the amount has to be rebuilt from subtotal or items.
func (o Order) Revenue() decimal.Decimal {
	if o.Total.IsPositive() {
		return o.Total
	}
	fees := o.DeliveryFee.Add(o.ContainerCost)
	if o.Subtotal.IsPositive() {
		return o.Subtotal.Add(fees)
	}
	return o.ItemsTotal().Add(fees)
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MenuCatalogEntry is only used to resolve categories of historical line items.
type MenuCatalogEntry struct {
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
}

type Waiter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}
