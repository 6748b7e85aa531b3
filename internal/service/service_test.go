package service

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbruntra/texas-holdem/internal/engine"
	"github.com/wbruntra/texas-holdem/internal/store"
	"github.com/wbruntra/texas-holdem/internal/table"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := New(DefaultConfig(), st, log.New(io.Discard), quartz.NewReal(), nil)
	t.Cleanup(svc.Close)
	return svc
}

type seated struct {
	tableID  string
	roomCode string
	seatIDs  []string
	tokens   []string
}

func seatPlayers(t *testing.T, svc *Service, names ...string) seated {
	t.Helper()
	tableID, roomCode, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)

	out := seated{tableID: tableID, roomCode: roomCode}
	for _, name := range names {
		seatID, token, err := svc.JoinSeat(roomCode, name, "hunter2hunter2")
		require.NoError(t, err)
		out.seatIDs = append(out.seatIDs, seatID)
		out.tokens = append(out.tokens, token)
	}
	return out
}

func TestCreateTable(t *testing.T) {
	svc := newTestService(t)

	tableID, roomCode, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)
	assert.NotEmpty(t, tableID)
	require.Len(t, roomCode, 6)
	for _, r := range roomCode {
		assert.Contains(t, crockford, string(r))
	}

	_, _, err = svc.CreateTable(10, 5, 1000)
	assert.Error(t, err, "inverted blinds must be rejected")
}

func TestJoinSeat(t *testing.T) {
	svc := newTestService(t)
	_, roomCode, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)

	_, _, err = svc.JoinSeat(roomCode, "alice", "short")
	assert.ErrorIs(t, err, ErrWeakCredential)

	_, _, err = svc.JoinSeat("ZZZZZZ", "alice", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	seatID, token, err := svc.JoinSeat(roomCode, "alice", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, seatID)
	assert.NotEmpty(t, token)

	_, _, err = svc.JoinSeat(roomCode, "alice", "otherpassword")
	assert.ErrorIs(t, err, engine.ErrNameTaken)
}

func TestAuthenticateSeat(t *testing.T) {
	svc := newTestService(t)
	s := seatPlayers(t, svc, "alice", "bob")

	token, tv, err := svc.AuthenticateSeat(s.roomCode, "alice", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, s.tableID, tv.TableID)

	_, _, err = svc.AuthenticateSeat(s.roomCode, "alice", "wrongwrongwrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, _, err = svc.AuthenticateSeat(s.roomCode, "nobody", "hunter2hunter2")
	assert.ErrorIs(t, err, engine.ErrSeatNotFound)
}

func TestPlayFullHandThroughService(t *testing.T) {
	svc := newTestService(t)
	s := seatPlayers(t, svc, "alice", "bob")

	tv, err := svc.StartHand(s.tableID)
	require.NoError(t, err)
	require.NotNil(t, tv.Hand)
	require.NotNil(t, tv.Hand.Current)
	require.Equal(t, 0, *tv.Hand.Current)

	// Bob cannot act out of turn.
	_, err = svc.SubmitAction(s.tokens[1], engine.Check, 0)
	assert.ErrorIs(t, err, engine.ErrNotYourTurn)

	_, err = svc.SubmitAction("bogus-token", engine.Fold, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	tv, err = svc.SubmitAction(s.tokens[0], engine.AllIn, 0)
	require.NoError(t, err)
	// Alice sees her own cards in the action response.
	assert.Len(t, tv.Seats[0].HoleCards, 2)

	tv, err = svc.SubmitAction(s.tokens[1], engine.Fold, 0)
	require.NoError(t, err)
	assert.True(t, tv.Hand.Complete)
	assert.Equal(t, []int{0}, tv.Hand.Winners)

	tv, err = svc.StartNextHand(s.tableID)
	require.NoError(t, err)
	assert.Equal(t, 2, tv.HandNumber)
	assert.False(t, tv.Hand.Complete)
}

func TestRevealCardPacesRunOut(t *testing.T) {
	svc := newTestService(t)
	s := seatPlayers(t, svc, "alice", "bob")

	_, err := svc.StartHand(s.tableID)
	require.NoError(t, err)
	_, err = svc.SubmitAction(s.tokens[0], engine.AllIn, 0)
	require.NoError(t, err)
	tv, err := svc.SubmitAction(s.tokens[1], engine.AllIn, 0)
	require.NoError(t, err)
	assert.Nil(t, tv.Hand.Current)
	assert.Empty(t, tv.Hand.Community)

	for _, want := range []int{3, 4, 5} {
		tv, err = svc.RevealCard(s.tableID)
		require.NoError(t, err)
		assert.Len(t, tv.Hand.Community, want)
	}

	tv, err = svc.AdvanceRound(s.tableID)
	require.NoError(t, err)
	assert.True(t, tv.Hand.Complete)

	_, err = svc.AdvanceRound(s.tableID)
	assert.ErrorIs(t, err, engine.ErrNotAutoAdvanceable)
}

func TestStartNextHandReportsCompletedTable(t *testing.T) {
	svc := newTestService(t)
	s := seatPlayers(t, svc, "alice", "bob")

	tv, err := svc.StartHand(s.tableID)
	require.NoError(t, err)

	// Shove every hand until somebody is broke; split pots repeat.
	for hand := 0; hand < 100; hand++ {
		for !tv.Hand.Complete {
			if tv.Hand.Current == nil {
				tv, err = svc.AdvanceRound(s.tableID)
				require.NoError(t, err)
				continue
			}
			tv, err = svc.SubmitAction(s.tokens[*tv.Hand.Current], engine.AllIn, 0)
			require.NoError(t, err)
		}
		tv, err = svc.StartNextHand(s.tableID)
		require.NoError(t, err)
		if tv.Status == string(engine.TableCompleted) {
			return
		}
	}
	t.Fatal("table never completed")
}

func TestServiceRestoresTableAfterRestart(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	logger := log.New(io.Discard)

	svc1 := New(DefaultConfig(), st, logger, quartz.NewReal(), nil)
	tableID, roomCode, err := svc1.CreateTable(5, 10, 1000)
	require.NoError(t, err)
	_, aliceTok, err := svc1.JoinSeat(roomCode, "alice", "hunter2hunter2")
	require.NoError(t, err)
	_, _, err = svc1.JoinSeat(roomCode, "bob", "hunter2hunter2")
	require.NoError(t, err)
	_, err = svc1.StartHand(tableID)
	require.NoError(t, err)

	// Heads-up the dealer acts first; alice raises, then the process dies.
	_, err = svc1.SubmitAction(aliceTok, engine.Raise, 90)
	require.NoError(t, err)
	svc1.Close()

	svc2 := New(DefaultConfig(), st, logger, quartz.NewReal(), nil)
	t.Cleanup(svc2.Close)

	bobTok, tv, err := svc2.AuthenticateSeat(roomCode, "bob", "hunter2hunter2")
	require.NoError(t, err)
	require.NotNil(t, tv.Hand)
	assert.Equal(t, 1, tv.HandNumber)
	require.NotNil(t, tv.Hand.Current)
	assert.Equal(t, 1, *tv.Hand.Current)
	assert.Equal(t, 100, tv.Hand.CurrentBet)
	assert.Len(t, tv.Seats[1].HoleCards, 2, "bob's own cards after restore")

	// The hand continues where the log left off.
	tv, err = svc2.SubmitAction(bobTok, engine.Fold, 0)
	require.NoError(t, err)
	assert.True(t, tv.Hand.Complete)
	assert.Equal(t, []int{0}, tv.Hand.Winners)
	assert.Equal(t, 1010, tv.Seats[0].Chips)
	assert.Equal(t, 990, tv.Seats[1].Chips)
}

func TestSubscribe(t *testing.T) {
	svc := newTestService(t)
	s := seatPlayers(t, svc, "alice", "bob")

	_, err := svc.Subscribe(s.roomCode, table.StreamPlayer, "bogus")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Subscribe("ZZZZZZ", table.StreamTable, "")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	obs, err := svc.Subscribe(s.roomCode, table.StreamTable, "")
	require.NoError(t, err)
	defer obs.Cancel()
	alice, err := svc.Subscribe(s.roomCode, table.StreamPlayer, s.tokens[0])
	require.NoError(t, err)
	defer alice.Cancel()

	_, err = svc.StartHand(s.tableID)
	require.NoError(t, err)

	ov := <-obs.C
	require.NotNil(t, ov.Hand)
	assert.Empty(t, ov.Seats[0].HoleCards)

	av := <-alice.C
	assert.Len(t, av.Seats[0].HoleCards, 2)
}
