package table

import (
	"sync"

	"github.com/wbruntra/texas-holdem/internal/engine"
	"github.com/wbruntra/texas-holdem/internal/view"
)

// Stream selects which projection a subscriber receives.
type Stream string

const (
	// StreamTable is the public observer projection.
	StreamTable Stream = "table"
	// StreamPlayer is the table projection plus the viewer's own cards.
	StreamPlayer Stream = "player"
)

// Subscription is one client's feed of snapshots. C delivers at most one
// pending view; when the consumer lags, intermediate revisions are
// replaced by newer ones so the latest revision is always delivered.
type Subscription struct {
	C chan view.TableView

	hub    *Hub
	stream Stream
	viewer string
}

// Cancel detaches the subscription. C is closed; pending sends are
// discarded.
func (s *Subscription) Cancel() {
	s.hub.cancel(s)
}

// Hub fans table snapshots out to subscribers. The serializer publishes
// each revision once; the hub projects per (stream, viewer) group and
// delivers best-effort with a latest-wins mailbox per subscriber.
type Hub struct {
	tableID string
	metrics *Metrics

	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	snapshot *engine.Table
	revision uint64
}

// NewHub creates an empty hub for one table.
func NewHub(tableID string, metrics *Metrics) *Hub {
	return &Hub{
		tableID: tableID,
		metrics: metrics,
		subs:    make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a viewer. The current snapshot, if any, is
// delivered immediately. viewerID is the seat id for player streams and
// ignored for table streams.
func (h *Hub) Subscribe(stream Stream, viewerID string) *Subscription {
	sub := &Subscription{
		C:      make(chan view.TableView, 1),
		hub:    h,
		stream: stream,
		viewer: viewerID,
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	if h.snapshot != nil {
		sub.C <- h.project(h.snapshot, h.revision, sub)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Subscribers.WithLabelValues(h.tableID).Set(float64(n))
	}
	return sub
}

func (h *Hub) cancel(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
		close(sub.C)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Subscribers.WithLabelValues(h.tableID).Set(float64(n))
	}
}

// Publish fans out a new revision. The caller hands over tbl; it must be
// a private copy. Projections are computed once per distinct group.
func (h *Hub) Publish(tbl *engine.Table, revision uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.snapshot = tbl
	h.revision = revision

	projections := map[string]view.TableView{}
	for sub := range h.subs {
		key := string(sub.stream) + "/" + sub.viewer
		tv, ok := projections[key]
		if !ok {
			tv = h.project(tbl, revision, sub)
			projections[key] = tv
		}
		deliverLatest(sub.C, tv)
	}
}

func (h *Hub) project(tbl *engine.Table, revision uint64, sub *Subscription) view.TableView {
	if sub.stream == StreamPlayer {
		return view.Player(tbl, revision, sub.viewer)
	}
	return view.Table(tbl, revision)
}

// deliverLatest replaces whatever is queued with the newest view.
func deliverLatest(ch chan view.TableView, tv view.TableView) {
	for {
		select {
		case ch <- tv:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
