package dashboard

import (
	"context"
	"sync"

	"restoran-analytics/internal/analytics"
	"restoran-analytics/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Boards holds one live board per user. Each board is a supervisor, so a
// user changing parameters quickly only ever sees the last selection.
type Boards struct {
	engine *analytics.Engine
	fetch  analytics.Fetcher
	log    logrus.FieldLogger

	mu     sync.Mutex
	boards map[uint]*analytics.Supervisor
}

func NewBoards(engine *analytics.Engine, fetch analytics.Fetcher, log logrus.FieldLogger) *Boards {
	return &Boards{
		engine: engine,
		fetch:  fetch,
		log:    log,
		boards: make(map[uint]*analytics.Supervisor),
	}
}

// Get returns the board of userID, creating it on first use.
func (b *Boards) Get(userID uint) *analytics.Supervisor {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.boards[userID]
	if !ok {
		var log logrus.FieldLogger
		if b.log != nil {
			log = b.log.WithField("user_id", userID)
		}
		s = analytics.NewSupervisor(b.engine, b.fetch, log)
		s.OnDiscard = func(uint64) {
			metrics.ReportComputations.WithLabelValues("superseded").Inc()
		}
		b.boards[userID] = s
	}
	return s
}

// RefreshAll resubmits every board that has parameters and returns how many
// were refreshed.
func (b *Boards) RefreshAll(ctx context.Context) int {
	b.mu.Lock()
	all := make([]*analytics.Supervisor, 0, len(b.boards))
	for _, s := range b.boards {
		all = append(all, s)
	}
	b.mu.Unlock()

	n := 0
	for _, s := range all {
		if _, ok := s.Refresh(ctx); ok {
			n++
		}
	}
	return n
}

func (b *Boards) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.boards {
		s.Stop()
	}
}
