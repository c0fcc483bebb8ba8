package analytics

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Snapshot is the pre-fetched input of one computation.
type Snapshot struct {
	Orders     []map[string]any   `json:"orders"`
	Catalog    []MenuCatalogEntry `json:"catalog"`
	Categories []Category         `json:"categories"`
	Waiters    []Waiter           `json:"waiters"`
}

// Params are the user-selected report parameters.
type Params struct {
	Range   RangeParams `json:"range"`
	Filters Filters     `json:"filters"`
	TopN    int         `json:"topN,omitempty"`
}

// Engine computes reports. It keeps no state between computations.
type Engine struct {
	now func() time.Time
	log logrus.FieldLogger
}

type Option func(*Engine)

// WithClock overrides the engine's notion of now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(log logrus.FieldLogger, opts ...Option) *Engine {
	e := &Engine{now: time.Now, log: log}
	if e.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		e.log = l
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Now() time.Time {
	return e.now()
}

// Compute resolves the range, normalizes the snapshot and folds it into a
// report. Only invalid range parameters produce an error.
func (e *Engine) Compute(p Params, s Snapshot) (*Report, error) {
	start := time.Now()
	now := e.now()
	r, err := ResolveRange(now, p.Range)
	if err != nil {
		return nil, err
	}

	norm := Normalizer{Now: func() time.Time { return now }, Log: e.log}
	orders := make([]Order, 0, len(s.Orders))
	for _, rec := range s.Orders {
		orders = append(orders, norm.Normalize(rec))
	}

	waiterNames := make(map[string]string, len(s.Waiters))
	for _, w := range s.Waiters {
		waiterNames[w.ID] = w.Name
	}

	agg := Fold(orders, r, p.Filters, NewCategoryResolver(s.Catalog, s.Categories), waiterNames)
	rep := Assemble(agg, p.TopN, now)

	e.log.WithFields(logrus.Fields{
		"granularity": r.Granularity,
		"orders_in":   len(s.Orders),
		"orders":      rep.Headline.Orders,
		"took":        time.Since(start).String(),
	}).Debug("report computed")
	return rep, nil
}
