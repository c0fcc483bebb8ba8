package orderstore

import (
	"context"
	"errors"
	"time"

	"restoran-analytics/internal/analytics"
)

// ErrSourceUnavailable wraps every failure to read from a backing store.
var ErrSourceUnavailable = errors.New("order source unavailable")

// Query narrows what a source returns. It is a coarse pre-filter only: the
// engine applies the exact windows itself.
type Query struct {
	Since time.Time // zero means no lower bound
	Limit int       // 0 means unlimited
}

// OrderSource returns raw order records with their original field shapes.
type OrderSource interface {
	Orders(ctx context.Context, q Query) ([]map[string]any, error)
}

// Directory provides the reference data a snapshot needs.
type Directory interface {
	Catalog(ctx context.Context) ([]analytics.MenuCatalogEntry, error)
	Categories(ctx context.Context) ([]analytics.Category, error)
	Waiters(ctx context.Context) ([]analytics.Waiter, error)
}
