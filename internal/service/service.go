package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/wbruntra/texas-holdem/internal/engine"
	"github.com/wbruntra/texas-holdem/internal/store"
	"github.com/wbruntra/texas-holdem/internal/table"
	"github.com/wbruntra/texas-holdem/internal/view"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrTableNotFound     = errors.New("table not found")
	ErrWeakCredential    = fmt.Errorf("credential must be at least %d characters", MinCredentialLength)
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNoHand            = errors.New("no hand in progress")
	ErrTooManyTables     = errors.New("table limit reached")
)

type session struct {
	tableID string
	seatID  string
}

type tableHandle struct {
	ser *table.Serializer
	hub *table.Hub
}

// Service is the operation surface the transport shell calls into. It
// owns the per-table serializers, the room code directory and the seat
// sessions; it contains no game rules of its own.
type Service struct {
	cfg     *Config
	store   *store.Store
	logger  *log.Logger
	clock   quartz.Clock
	metrics *table.Metrics

	mu       sync.RWMutex
	tables   map[string]*tableHandle
	rooms    map[string]string // room code -> table id
	sessions map[string]session
}

// New creates a service backed by st. metrics may be nil.
func New(cfg *Config, st *store.Store, logger *log.Logger, clock quartz.Clock, metrics *table.Metrics) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		logger:   logger.WithPrefix("service"),
		clock:    clock,
		metrics:  metrics,
		tables:   make(map[string]*tableHandle),
		rooms:    make(map[string]string),
		sessions: make(map[string]session),
	}
}

// Close shuts down every table serializer.
func (s *Service) Close() {
	s.mu.Lock()
	handles := make([]*tableHandle, 0, len(s.tables))
	for _, h := range s.tables {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.ser.Close()
	}
}

// CreateTable creates a table with the given stakes. Zero values fall
// back to the configured defaults.
func (s *Service) CreateTable(smallBlind, bigBlind, startingChips int) (tableID, roomCode string, err error) {
	if smallBlind == 0 {
		smallBlind = s.cfg.Tables.SmallBlind
	}
	if bigBlind == 0 {
		bigBlind = s.cfg.Tables.BigBlind
	}
	if startingChips == 0 {
		startingChips = s.cfg.Tables.StartingChips
	}

	s.mu.RLock()
	count := len(s.tables)
	s.mu.RUnlock()
	if count >= s.cfg.Tables.MaxTables {
		return "", "", ErrTooManyTables
	}

	tableID = uuid.NewString()
	cfg := engine.Config{SmallBlind: smallBlind, BigBlind: bigBlind, StartingChips: startingChips}

	// Room codes are random; retry the rare collision.
	var tbl *engine.Table
	for attempt := 0; attempt < 5; attempt++ {
		roomCode, err = NewRoomCode()
		if err != nil {
			return "", "", err
		}
		tbl, err = engine.NewTable(tableID, roomCode, cfg)
		if err != nil {
			return "", "", err
		}
		if err = s.store.CreateTable(tbl); err == nil {
			break
		}
		if !strings.Contains(err.Error(), "UNIQUE") {
			return "", "", err
		}
	}
	if err != nil {
		return "", "", err
	}

	hub := table.NewHub(tableID, s.metrics)
	ser := table.NewSerializer(tbl, s.store, hub, s.logger, s.clock, s.metrics, 0)

	s.mu.Lock()
	s.tables[tableID] = &tableHandle{ser: ser, hub: hub}
	s.rooms[roomCode] = tableID
	s.mu.Unlock()

	s.logger.Info("table created", "table", tableID, "room", roomCode,
		"smallBlind", smallBlind, "bigBlind", bigBlind)
	return tableID, roomCode, nil
}

// JoinSeat seats a new player in the room and opens a session.
func (s *Service) JoinSeat(roomCode, name, credential string) (seatID, token string, err error) {
	if len(credential) < MinCredentialLength {
		return "", "", ErrWeakCredential
	}
	h, tableID, err := s.byRoom(roomCode)
	if err != nil {
		return "", "", err
	}

	seatID = uuid.NewString()
	fp := Fingerprint(credential)
	err = h.ser.Do(func(t *engine.Table) error {
		_, err := t.AddSeat(seatID, name, fp)
		return err
	}, s.deadline())
	if err != nil {
		return "", "", err
	}

	token = s.openSession(tableID, seatID)
	s.logger.Info("seat joined", "table", tableID, "seat", seatID, "name", name)
	return seatID, token, nil
}

// AuthenticateSeat re-attaches a returning player to their seat.
func (s *Service) AuthenticateSeat(roomCode, name, credential string) (string, view.TableView, error) {
	h, tableID, err := s.byRoom(roomCode)
	if err != nil {
		return "", view.TableView{}, err
	}

	snap, rev, err := h.ser.Snapshot()
	if err != nil {
		return "", view.TableView{}, err
	}
	_, seat, err := snap.SeatByName(name)
	if err != nil {
		return "", view.TableView{}, err
	}
	if !FingerprintMatches(credential, seat.CredentialFP) {
		return "", view.TableView{}, ErrInvalidCredential
	}

	token := s.openSession(tableID, seat.ID)
	return token, view.Player(snap, rev, seat.ID), nil
}

// StartHand starts the table's first hand.
func (s *Service) StartHand(tableID string) (view.TableView, error) {
	h, err := s.byID(tableID)
	if err != nil {
		return view.TableView{}, err
	}
	err = h.ser.Do(func(t *engine.Table) error {
		return t.StartHand(newDeckSeed())
	}, s.deadline())
	if err != nil {
		return view.TableView{}, err
	}
	return s.tableView(h)
}

// SubmitAction applies a betting action for the session's seat.
func (s *Service) SubmitAction(token string, action engine.ActionKind, amount int) (view.TableView, error) {
	sess, ok := s.session(token)
	if !ok {
		return view.TableView{}, ErrUnauthorized
	}
	h, err := s.byID(sess.tableID)
	if err != nil {
		return view.TableView{}, err
	}

	err = h.ser.Do(func(t *engine.Table) error {
		if t.Hand == nil {
			return ErrNoHand
		}
		pos, _, err := t.SeatByID(sess.seatID)
		if err != nil {
			return err
		}
		return t.Hand.Apply(pos, action, amount)
	}, s.deadline())
	if err != nil {
		return view.TableView{}, err
	}
	return s.playerView(h, sess.seatID)
}

// AdvanceRound deals the next street of an all-in run-out.
func (s *Service) AdvanceRound(tableID string) (view.TableView, error) {
	h, err := s.byID(tableID)
	if err != nil {
		return view.TableView{}, err
	}
	err = h.ser.Do(func(t *engine.Table) error {
		if t.Hand == nil {
			return ErrNoHand
		}
		return t.Hand.AdvanceRunout()
	}, s.deadline())
	if err != nil {
		return view.TableView{}, err
	}
	return s.tableView(h)
}

// RevealCard deals exactly one more community card during a run-out. It
// is the same operation as AdvanceRound under a name transports use for
// card-by-card pacing.
func (s *Service) RevealCard(tableID string) (view.TableView, error) {
	return s.AdvanceRound(tableID)
}

// StartNextHand starts the next hand, or reports the completed table
// when fewer than two seats still have chips.
func (s *Service) StartNextHand(tableID string) (view.TableView, error) {
	h, err := s.byID(tableID)
	if err != nil {
		return view.TableView{}, err
	}
	err = h.ser.Do(func(t *engine.Table) error {
		return t.StartNextHand(newDeckSeed())
	}, s.deadline())
	if err != nil {
		return view.TableView{}, err
	}
	return s.tableView(h)
}

// Subscribe opens a snapshot stream for the room. Player streams require
// a session token for a seat at that table.
func (s *Service) Subscribe(roomCode string, stream table.Stream, token string) (*table.Subscription, error) {
	h, tableID, err := s.byRoom(roomCode)
	if err != nil {
		return nil, err
	}

	viewerID := ""
	if stream == table.StreamPlayer {
		sess, ok := s.session(token)
		if !ok || sess.tableID != tableID {
			return nil, ErrUnauthorized
		}
		viewerID = sess.seatID
	}
	return h.hub.Subscribe(stream, viewerID), nil
}

// TableView returns the current public projection of a table.
func (s *Service) TableView(tableID string) (view.TableView, error) {
	h, err := s.byID(tableID)
	if err != nil {
		return view.TableView{}, err
	}
	return s.tableView(h)
}

func (s *Service) tableView(h *tableHandle) (view.TableView, error) {
	snap, rev, err := h.ser.Snapshot()
	if err != nil {
		return view.TableView{}, err
	}
	return view.Table(snap, rev), nil
}

func (s *Service) playerView(h *tableHandle, seatID string) (view.TableView, error) {
	snap, rev, err := h.ser.Snapshot()
	if err != nil {
		return view.TableView{}, err
	}
	return view.Player(snap, rev, seatID), nil
}

func (s *Service) byRoom(roomCode string) (*tableHandle, string, error) {
	s.mu.RLock()
	tableID, ok := s.rooms[roomCode]
	var h *tableHandle
	if ok {
		h = s.tables[tableID]
	}
	s.mu.RUnlock()
	if ok {
		return h, tableID, nil
	}

	tbl, rev, err := s.store.TableByRoomCode(roomCode)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrRoomNotFound
	}
	if err != nil {
		return nil, "", err
	}
	h, err = s.restore(tbl, rev)
	if err != nil {
		return nil, "", err
	}
	return h, tbl.ID, nil
}

func (s *Service) byID(tableID string) (*tableHandle, error) {
	s.mu.RLock()
	h, ok := s.tables[tableID]
	s.mu.RUnlock()
	if ok {
		return h, nil
	}

	tbl, rev, err := s.store.LoadTable(tableID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.restore(tbl, rev)
}

// restore brings a persisted table back into memory after a restart: the
// latest hand is rebuilt from its event log and a fresh serializer takes
// over at the stored revision. Sessions do not survive restarts; players
// re-attach through AuthenticateSeat.
func (s *Service) restore(tbl *engine.Table, revision uint64) (*tableHandle, error) {
	logs, err := s.store.EventsForTable(tbl.ID)
	if err != nil {
		return nil, err
	}
	if len(logs) > 0 {
		last := logs[len(logs)-1]
		hand, err := engine.Replay(last.Events)
		if err != nil {
			return nil, fmt.Errorf("restore table %s: %w", tbl.ID, err)
		}
		tbl.AttachHand(hand)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.tables[tbl.ID]; ok {
		// Lost a restore race; the winner's serializer owns the table.
		return h, nil
	}
	hub := table.NewHub(tbl.ID, s.metrics)
	ser := table.NewSerializer(tbl, s.store, hub, s.logger, s.clock, s.metrics, revision)
	h := &tableHandle{ser: ser, hub: hub}
	s.tables[tbl.ID] = h
	s.rooms[tbl.RoomCode] = tbl.ID
	s.logger.Info("table restored", "table", tbl.ID, "room", tbl.RoomCode, "revision", revision)
	return h, nil
}

func (s *Service) openSession(tableID, seatID string) string {
	token := NewSessionToken()
	s.mu.Lock()
	s.sessions[token] = session{tableID: tableID, seatID: seatID}
	s.mu.Unlock()
	return token
}

func (s *Service) session(token string) (session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

func (s *Service) deadline() time.Time {
	if s.cfg.Server.RequestTimeout <= 0 {
		return time.Time{}
	}
	return s.clock.Now().Add(time.Duration(s.cfg.Server.RequestTimeout) * time.Millisecond)
}

// newDeckSeed draws the 32 bytes of entropy a hand's shuffle is keyed on.
// The seed is recorded in the hand's start event for replay.
func newDeckSeed() []byte {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		panic(fmt.Sprintf("deck seed: %v", err))
	}
	return seed
}
