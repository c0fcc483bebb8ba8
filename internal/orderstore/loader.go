package orderstore

import (
	"context"
	"fmt"
	"time"

	"restoran-analytics/internal/analytics"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Loader assembles analytics snapshots from an order source and a directory.
type Loader struct {
	Orders       OrderSource
	Directory    Directory
	LookbackDays int
	Limit        int
	Now          func() time.Time
	Log          logrus.FieldLogger
}

func (l *Loader) query() Query {
	q := Query{Limit: l.Limit}
	if l.LookbackDays > 0 {
		now := time.Now()
		if l.Now != nil {
			now = l.Now()
		}
		q.Since = now.AddDate(0, 0, -l.LookbackDays)
	}
	return q
}

// Snapshot fetches orders and reference data concurrently. Any failure
// aborts the whole snapshot and is reported as ErrSourceUnavailable.
func (l *Loader) Snapshot(ctx context.Context) (analytics.Snapshot, error) {
	var s analytics.Snapshot
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := l.Orders.Orders(ctx, l.query())
		if err != nil {
			return fmt.Errorf("orders: %w", err)
		}
		s.Orders = orders
		return nil
	})
	g.Go(func() error {
		catalog, err := l.Directory.Catalog(ctx)
		if err != nil {
			return fmt.Errorf("menu catalog: %w", err)
		}
		s.Catalog = catalog
		return nil
	})
	g.Go(func() error {
		categories, err := l.Directory.Categories(ctx)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		s.Categories = categories
		return nil
	})
	g.Go(func() error {
		waiters, err := l.Directory.Waiters(ctx)
		if err != nil {
			return fmt.Errorf("waiters: %w", err)
		}
		s.Waiters = waiters
		return nil
	})

	if err := g.Wait(); err != nil {
		return analytics.Snapshot{}, unavailable(err)
	}

	if l.Log != nil {
		l.Log.WithFields(logrus.Fields{
			"orders":     len(s.Orders),
			"catalog":    len(s.Catalog),
			"categories": len(s.Categories),
			"waiters":    len(s.Waiters),
			"took":       time.Since(start).String(),
		}).Debug("snapshot loaded")
	}
	return s, nil
}

// Fetcher adapts the loader to the analytics supervisor.
func (l *Loader) Fetcher() analytics.Fetcher {
	return l.Snapshot
}

func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
}
