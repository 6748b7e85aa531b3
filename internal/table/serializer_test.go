package table

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbruntra/texas-holdem/internal/engine"
	"github.com/wbruntra/texas-holdem/internal/store"
)

func testTable(t *testing.T, names ...string) *engine.Table {
	t.Helper()
	tbl, err := engine.NewTable("t1", "ABCDEF", engine.Config{
		SmallBlind: 5, BigBlind: 10, StartingChips: 1000,
	})
	require.NoError(t, err)
	for _, name := range names {
		_, err := tbl.AddSeat("seat-"+name, name, "fp")
		require.NoError(t, err)
	}
	return tbl
}

func testStore(t *testing.T, tbl *engine.Table) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.CreateTable(tbl))
	return s
}

func newTestSerializer(t *testing.T, tbl *engine.Table, p Persister, hub *Hub, clock quartz.Clock) *Serializer {
	t.Helper()
	s := NewSerializer(tbl, p, hub, log.New(io.Discard), clock, nil, 0)
	t.Cleanup(s.Close)
	return s
}

func TestSerializerAppliesAndBumpsRevision(t *testing.T) {
	tbl := testTable(t, "alice", "bob")
	st := testStore(t, tbl)
	ser := newTestSerializer(t, tbl, st, nil, quartz.NewReal())

	require.NoError(t, ser.Do(func(tt *engine.Table) error {
		return tt.StartHand([]byte("ser-1"))
	}, time.Time{}))

	snap, rev, err := ser.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev)
	require.NotNil(t, snap.Hand)

	// Snapshot is a copy; mutations do not reach the serializer's table.
	snap.Seats[0].Chips = 0
	again, _, err := ser.Snapshot()
	require.NoError(t, err)
	assert.NotZero(t, again.Seats[0].Chips)
}

func TestSubscribeBeforeFirstMutationGetsSnapshot(t *testing.T) {
	tbl := testTable(t, "alice", "bob")
	st := testStore(t, tbl)
	hub := NewHub(tbl.ID, nil)
	newTestSerializer(t, tbl, st, hub, quartz.NewReal())

	// The serializer seeds the hub, so a subscriber attaching before any
	// mutation still gets the current state.
	sub := hub.Subscribe(StreamTable, "")
	defer sub.Cancel()
	select {
	case tv := <-sub.C:
		assert.Equal(t, uint64(0), tv.Revision)
		assert.Equal(t, "t1", tv.TableID)
		assert.Len(t, tv.Seats, 2)
	default:
		t.Fatal("no snapshot pending after serializer construction")
	}
}

func TestSerializerRejectsExpiredDeadline(t *testing.T) {
	mock := quartz.NewMock(t)
	tbl := testTable(t, "alice", "bob")
	st := testStore(t, tbl)
	ser := newTestSerializer(t, tbl, st, nil, mock)

	deadline := mock.Now().Add(time.Second)
	mock.Advance(2 * time.Second)

	err := ser.Do(func(tt *engine.Table) error {
		return tt.StartHand([]byte("late"))
	}, deadline)
	assert.ErrorIs(t, err, ErrDeadline)

	snap, rev, err := ser.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snap.Hand)
	assert.Zero(t, rev)
}

func TestSerializerRejectedOpLeavesStateAndRevision(t *testing.T) {
	tbl := testTable(t, "alice", "bob")
	st := testStore(t, tbl)
	ser := newTestSerializer(t, tbl, st, nil, quartz.NewReal())

	require.NoError(t, ser.Do(func(tt *engine.Table) error {
		return tt.StartHand([]byte("ser-2"))
	}, time.Time{}))

	err := ser.Do(func(tt *engine.Table) error {
		return tt.Hand.Apply(1, engine.Check, 0)
	}, time.Time{})
	assert.ErrorIs(t, err, engine.ErrNotYourTurn)

	_, rev, err := ser.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev)
}

func TestSerializerPoisonsOnFatalError(t *testing.T) {
	tbl := testTable(t, "alice", "bob")
	st := testStore(t, tbl)
	ser := newTestSerializer(t, tbl, st, nil, quartz.NewReal())

	err := ser.Do(func(tt *engine.Table) error {
		return fmt.Errorf("%w: injected", engine.ErrConservation)
	}, time.Time{})
	assert.ErrorIs(t, err, engine.ErrConservation)

	err = ser.Do(func(tt *engine.Table) error { return nil }, time.Time{})
	assert.ErrorIs(t, err, ErrTablePoisoned)

	// Reads still work for inspection.
	_, _, err = ser.Snapshot()
	assert.NoError(t, err)
}

type failingPersister struct {
	inner    Persister
	failures int
}

func (f *failingPersister) AppendEvents(tableID string, handNumber int, events []engine.Event) error {
	return f.inner.AppendEvents(tableID, handNumber, events)
}

func (f *failingPersister) SaveSnapshot(t *engine.Table, revision uint64) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.inner.SaveSnapshot(t, revision)
}

func TestSerializerRetriesPersistenceOnce(t *testing.T) {
	tbl := testTable(t, "alice", "bob")
	st := testStore(t, tbl)
	fp := &failingPersister{inner: st, failures: 1}
	ser := newTestSerializer(t, tbl, fp, nil, quartz.NewReal())

	require.NoError(t, ser.Do(func(tt *engine.Table) error {
		return tt.StartHand([]byte("retry-1"))
	}, time.Time{}))
}

func TestSerializerDiscardsUpdateWhenPersistenceFails(t *testing.T) {
	tbl := testTable(t, "alice", "bob")
	st := testStore(t, tbl)
	fp := &failingPersister{inner: st, failures: 2}
	ser := newTestSerializer(t, tbl, fp, nil, quartz.NewReal())

	err := ser.Do(func(tt *engine.Table) error {
		return tt.StartHand([]byte("retry-2"))
	}, time.Time{})
	assert.ErrorIs(t, err, ErrPersistence)

	snap, rev, err := ser.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snap.Hand, "in-memory update must be discarded")
	assert.Zero(t, rev)

	// The failure was transient; the retried request succeeds.
	require.NoError(t, ser.Do(func(tt *engine.Table) error {
		return tt.StartHand([]byte("retry-2"))
	}, time.Time{}))
}

// Chips are conserved in every published revision, across hands.
func TestConservationAcrossPublishedRevisions(t *testing.T) {
	tbl := testTable(t, "alice", "bob", "cara")
	st := testStore(t, tbl)
	hub := NewHub(tbl.ID, nil)
	ser := newTestSerializer(t, tbl, st, hub, quartz.NewReal())

	sub := hub.Subscribe(StreamTable, "")
	defer sub.Cancel()

	done := make(chan struct{})
	var lastRev uint64
	seen := false
	go func() {
		defer close(done)
		for tv := range sub.C {
			total := 0
			for _, sv := range tv.Seats {
				total += sv.Chips
			}
			if tv.Hand != nil {
				total += tv.Hand.Pot
			}
			assert.Equal(t, 3000, total, "revision %d", tv.Revision)
			if seen {
				assert.Greater(t, tv.Revision, lastRev)
			}
			seen = true
			lastRev = tv.Revision
		}
	}()

	require.NoError(t, ser.Do(func(tt *engine.Table) error {
		return tt.StartHand([]byte("s5-0"))
	}, time.Time{}))

	for hand := 0; hand < 10; hand++ {
		for {
			var complete bool
			require.NoError(t, ser.Do(func(tt *engine.Table) error {
				h := tt.Hand
				if h.Complete() {
					complete = true
					return nil
				}
				if h.Current == -1 {
					return h.AdvanceRunout()
				}
				pos := h.Current
				if h.CurrentBet > h.Seats[pos].CurrentBet {
					return h.Apply(pos, engine.Call, 0)
				}
				return h.Apply(pos, engine.Check, 0)
			}, time.Time{}))
			if complete {
				break
			}
		}
		var completed bool
		require.NoError(t, ser.Do(func(tt *engine.Table) error {
			if err := tt.StartNextHand([]byte(fmt.Sprintf("s5-%d", hand+1))); err != nil {
				return err
			}
			completed = tt.Status == engine.TableCompleted
			return nil
		}, time.Time{}))
		if completed {
			break
		}
	}

	sub.Cancel()
	<-done
}
