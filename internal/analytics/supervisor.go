package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Fetcher loads a snapshot from the data store. It is the only place a
// computation can block or fail.
type Fetcher func(ctx context.Context) (Snapshot, error)

// Result is the outcome of one generation.
type Result struct {
	Generation  uint64    `json:"generation"`
	RequestID   string    `json:"requestId,omitempty"`
	Params      Params    `json:"params"`
	Report      *Report   `json:"report,omitempty"`
	Err         error     `json:"-"`
	CompletedAt time.Time `json:"completedAt"`
}

// Supervisor runs computations for one consumer with last-request-wins
// ordering: every submission gets a higher generation, older runs are
// cancelled, and a finished run is only applied if its generation is still
// the latest submitted.
type Supervisor struct {
	engine *Engine
	fetch  Fetcher
	log    logrus.FieldLogger

	// OnDiscard, when set, is called for every superseded run.
	OnDiscard func(generation uint64)

	mu        sync.Mutex
	gen       uint64
	params    Params
	hasParams bool
	cancel    context.CancelFunc
	result    Result
	applied   chan struct{}
}

func NewSupervisor(engine *Engine, fetch Fetcher, log logrus.FieldLogger) *Supervisor {
	if log == nil {
		log = engine.log
	}
	return &Supervisor{
		engine:  engine,
		fetch:   fetch,
		log:     log,
		applied: make(chan struct{}),
	}
}

// Submit starts a computation for p and returns its generation. The run is
// detached from ctx cancellation but keeps its values.
func (s *Supervisor) Submit(ctx context.Context, p Params) uint64 {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.params = p
	s.hasParams = true
	s.mu.Unlock()

	go s.run(runCtx, cancel, gen, p)
	return gen
}

// Refresh resubmits the latest parameters, e.g. after new data arrived.
// It reports false when nothing was ever submitted.
func (s *Supervisor) Refresh(ctx context.Context) (uint64, bool) {
	s.mu.Lock()
	p, ok := s.params, s.hasParams
	s.mu.Unlock()
	if !ok {
		return 0, false
	}
	return s.Submit(ctx, p), true
}

// Latest returns the most recently applied result.
func (s *Supervisor) Latest() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Generation returns the latest submitted generation.
func (s *Supervisor) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Wait blocks until a result of generation gen or newer is applied.
func (s *Supervisor) Wait(ctx context.Context, gen uint64) (Result, error) {
	for {
		s.mu.Lock()
		r, ch := s.result, s.applied
		s.mu.Unlock()
		if r.Generation >= gen {
			return r, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return r, ctx.Err()
		}
	}
}

// Stop cancels the running computation, if any.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Supervisor) run(ctx context.Context, cancel context.CancelFunc, gen uint64, p Params) {
	defer cancel()
	reqID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"generation": gen, "request_id": reqID})

	snap, err := s.fetch(ctx)
	if ctx.Err() != nil {
		log.Debug("computation superseded during fetch")
		s.discard(gen)
		return
	}

	res := Result{Generation: gen, RequestID: reqID, Params: p}
	if err != nil {
		log.WithError(err).Warn("snapshot fetch failed")
		res.Err = err
	} else {
		res.Report, res.Err = s.engine.Compute(p, snap)
	}
	res.CompletedAt = time.Now()

	if !s.apply(res) {
		log.Debug("computation superseded, result dropped")
		s.discard(gen)
	}
}

// apply installs r if it belongs to the latest generation.
func (s *Supervisor) apply(r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Generation != s.gen {
		return false
	}
	s.result = r
	close(s.applied)
	s.applied = make(chan struct{})
	return true
}

func (s *Supervisor) discard(gen uint64) {
	if s.OnDiscard != nil {
		s.OnDiscard(gen)
	}
}
