package table

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/wbruntra/texas-holdem/internal/engine"
)

var (
	// ErrDeadline means the request's deadline expired before the
	// serializer started applying it.
	ErrDeadline = errors.New("request deadline expired")

	// ErrPersistence wraps a storage failure after the retry was spent.
	// The in-memory update has been discarded; the caller may retry.
	ErrPersistence = errors.New("persistence failure")

	// ErrTablePoisoned means a fatal invariant violation was detected
	// earlier; the table refuses all further mutations.
	ErrTablePoisoned = errors.New("table poisoned")

	// ErrClosed means the serializer has shut down.
	ErrClosed = errors.New("table closed")
)

// Persister is what the serializer needs from storage.
type Persister interface {
	AppendEvents(tableID string, handNumber int, events []engine.Event) error
	SaveSnapshot(t *engine.Table, revision uint64) error
}

// Op mutates the table under the serializer's exclusive ownership.
type Op func(*engine.Table) error

type request struct {
	op       Op
	deadline time.Time
	mutate   bool
	reply    chan error
}

// Serializer is the single writer for one table. Requests are applied one
// at a time: validate, mutate, persist new events and the snapshot, bump
// the revision and publish to the hub. Readers only ever see persisted
// revisions.
type Serializer struct {
	tbl     *engine.Table
	store   Persister
	hub     *Hub
	logger  *log.Logger
	clock   quartz.Clock
	metrics *Metrics

	requests chan request
	closed   chan struct{}
	done     chan struct{}

	revision    uint64
	poisoned    error
	handNumber  int
	eventCursor int
}

// NewSerializer starts the writer goroutine for tbl. The caller hands over
// ownership of tbl; all further access goes through the serializer.
func NewSerializer(tbl *engine.Table, store Persister, hub *Hub, logger *log.Logger, clock quartz.Clock, metrics *Metrics, revision uint64) *Serializer {
	s := &Serializer{
		tbl:      tbl,
		store:    store,
		hub:      hub,
		logger:   logger.WithPrefix("table").With("table", tbl.ID),
		clock:    clock,
		metrics:  metrics,
		requests: make(chan request, 64),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
		revision: revision,
	}
	if tbl.Hand != nil {
		s.handNumber = tbl.Hand.HandNumber
		s.eventCursor = len(tbl.Hand.Events)
	}
	// Seed the hub so subscribers arriving before the first mutation
	// still receive the current state.
	if hub != nil {
		hub.Publish(tbl.Clone(), revision)
	}
	go s.run()
	return s
}

// Close stops the writer after draining queued requests.
func (s *Serializer) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	<-s.done
}

// Do applies op on the serializer goroutine and waits for the result. A
// zero deadline means no deadline.
func (s *Serializer) Do(op Op, deadline time.Time) error {
	return s.submit(request{op: op, deadline: deadline, mutate: true, reply: make(chan error, 1)})
}

// Read runs fn on the serializer goroutine with the current table state
// and revision. fn must not mutate and must not retain the table.
func (s *Serializer) Read(fn func(*engine.Table, uint64)) error {
	return s.submit(request{
		op: func(t *engine.Table) error {
			fn(t, s.revision)
			return nil
		},
		reply: make(chan error, 1),
	})
}

// Snapshot returns an independent copy of the table and its revision.
func (s *Serializer) Snapshot() (*engine.Table, uint64, error) {
	var clone *engine.Table
	var rev uint64
	err := s.Read(func(t *engine.Table, r uint64) {
		clone = t.Clone()
		rev = r
	})
	return clone, rev, err
}

func (s *Serializer) submit(req request) error {
	select {
	case s.requests <- req:
	case <-s.closed:
		return ErrClosed
	}
	return <-req.reply
}

func (s *Serializer) run() {
	defer close(s.done)
	for {
		select {
		case req := <-s.requests:
			req.reply <- s.handle(req)
		case <-s.closed:
			// Drain what was queued before the close.
			for {
				select {
				case req := <-s.requests:
					req.reply <- s.handle(req)
				default:
					return
				}
			}
		}
	}
}

func (s *Serializer) handle(req request) error {
	if s.poisoned != nil && req.mutate {
		s.countError("poisoned")
		return fmt.Errorf("%w: %s", ErrTablePoisoned, s.poisoned)
	}
	if !req.deadline.IsZero() && s.clock.Now().After(req.deadline) {
		s.countError("deadline")
		return ErrDeadline
	}

	if !req.mutate {
		return req.op(s.tbl)
	}

	backup := s.tbl.Clone()
	prevHand, prevCursor := s.handNumber, s.eventCursor
	if err := req.op(s.tbl); err != nil {
		s.tbl = backup
		if engine.IsFatal(err) {
			s.poisoned = err
			s.logger.Error("fatal invariant violation, table poisoned", "err", err)
			s.countError("fatal")
			return err
		}
		s.countError("rejected")
		return err
	}

	if err := s.persist(); err != nil {
		s.tbl = backup
		s.handNumber, s.eventCursor = prevHand, prevCursor
		s.countError("persistence")
		s.logger.Error("persist failed, update discarded", "err", err)
		return fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	s.revision++
	if s.metrics != nil {
		s.metrics.RequestsApplied.WithLabelValues(s.tbl.ID).Inc()
		s.metrics.Revisions.WithLabelValues(s.tbl.ID).Inc()
	}
	if s.hub != nil {
		s.hub.Publish(s.tbl.Clone(), s.revision)
	}
	return nil
}

// persist writes the hand's new events and the snapshot, retrying a
// transient failure once.
func (s *Serializer) persist() error {
	var newEvents []engine.Event
	if h := s.tbl.Hand; h != nil {
		if h.HandNumber != s.handNumber {
			s.handNumber = h.HandNumber
			s.eventCursor = 0
		}
		newEvents = h.Events[s.eventCursor:]
	}

	// AppendEvents is idempotent per (hand, seq), so replaying the whole
	// write after a partial failure is safe.
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = s.persistOnce(newEvents); err == nil {
			s.eventCursor += len(newEvents)
			return nil
		}
		s.logger.Warn("persist attempt failed", "attempt", attempt+1, "err", err)
	}
	return err
}

func (s *Serializer) persistOnce(newEvents []engine.Event) error {
	if len(newEvents) > 0 {
		if err := s.store.AppendEvents(s.tbl.ID, s.handNumber, newEvents); err != nil {
			return err
		}
	}
	return s.store.SaveSnapshot(s.tbl, s.revision+1)
}

func (s *Serializer) countError(kind string) {
	if s.metrics != nil {
		s.metrics.RequestErrors.WithLabelValues(s.tbl.ID, kind).Inc()
	}
}
