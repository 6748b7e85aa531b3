package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wbruntra/texas-holdem/internal/engine"
)

// ErrNotFound marks a lookup for a table that was never persisted.
var ErrNotFound = errors.New("table not found")

// Store persists tables, seats, hand summaries and the per-hand event log
// in sqlite. The event log is canonical; table and hand rows are snapshot
// caches that can be rebuilt from events at any time.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tables (
			id             TEXT PRIMARY KEY,
			room_code      TEXT NOT NULL UNIQUE,
			small_blind    INTEGER NOT NULL,
			big_blind      INTEGER NOT NULL,
			starting_chips INTEGER NOT NULL,
			status         TEXT NOT NULL,
			hand_number    INTEGER NOT NULL DEFAULT 0,
			revision       INTEGER NOT NULL DEFAULT 0,
			created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS seats (
			id            TEXT PRIMARY KEY,
			table_id      TEXT NOT NULL,
			position      INTEGER NOT NULL,
			name          TEXT NOT NULL,
			credential_fp TEXT NOT NULL,
			chips         INTEGER NOT NULL,
			UNIQUE (table_id, position),
			UNIQUE (table_id, name),
			FOREIGN KEY (table_id) REFERENCES tables(id)
		)`,
		`CREATE TABLE IF NOT EXISTS hands (
			table_id     TEXT NOT NULL,
			hand_number  INTEGER NOT NULL,
			dealer_pos   INTEGER NOT NULL,
			deck_seed    BLOB NOT NULL,
			small_blind  INTEGER NOT NULL,
			big_blind    INTEGER NOT NULL,
			stacks_start TEXT NOT NULL,
			stacks_end   TEXT,
			community    TEXT,
			pots         TEXT,
			winners      TEXT,
			pot_amount   INTEGER NOT NULL DEFAULT 0,
			completed_at TIMESTAMP,
			PRIMARY KEY (table_id, hand_number),
			FOREIGN KEY (table_id) REFERENCES tables(id)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			table_id    TEXT NOT NULL,
			hand_number INTEGER NOT NULL,
			seq         INTEGER NOT NULL,
			actor       INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			round       TEXT NOT NULL,
			payload     TEXT NOT NULL,
			at          TIMESTAMP NOT NULL,
			PRIMARY KEY (table_id, hand_number, seq),
			FOREIGN KEY (table_id) REFERENCES tables(id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CreateTable inserts a new table row.
func (s *Store) CreateTable(t *engine.Table) error {
	_, err := s.db.Exec(`
		INSERT INTO tables (id, room_code, small_blind, big_blind, starting_chips, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.RoomCode, t.Config.SmallBlind, t.Config.BigBlind, t.Config.StartingChips, string(t.Status))
	if err != nil {
		return fmt.Errorf("create table %s: %w", t.ID, err)
	}
	return nil
}

// SaveSnapshot upserts the table, seat and current-hand rows. The
// serializer calls it after every applied request; it is a cache of what
// the event log already records.
func (s *Store) SaveSnapshot(t *engine.Table, revision uint64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE tables SET status = ?, hand_number = ?, revision = ? WHERE id = ?
	`, string(t.Status), t.HandNumber, revision, t.ID)
	if err != nil {
		return fmt.Errorf("save snapshot: table row: %w", err)
	}

	for i, seat := range t.Seats {
		_, err = tx.Exec(`
			INSERT INTO seats (id, table_id, position, name, credential_fp, chips)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET chips = excluded.chips
		`, seat.ID, t.ID, i, seat.Name, seat.CredentialFP, seat.Chips)
		if err != nil {
			return fmt.Errorf("save snapshot: seat %s: %w", seat.ID, err)
		}
	}

	if t.Hand != nil {
		if err := saveHand(tx, t.ID, t.Hand); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func saveHand(tx *sql.Tx, tableID string, h *engine.Hand) error {
	stacksStart, community, pots, winners, err := handColumns(h)
	if err != nil {
		return err
	}

	var stacksEnd any
	var completedAt any
	if h.Complete() {
		end, err := json.Marshal(handStacks(h))
		if err != nil {
			return fmt.Errorf("save hand: %w", err)
		}
		stacksEnd = string(end)
		completedAt = time.Now().UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO hands (table_id, hand_number, dealer_pos, deck_seed, small_blind, big_blind,
			stacks_start, stacks_end, community, pots, winners, pot_amount, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (table_id, hand_number) DO UPDATE SET
			stacks_end = excluded.stacks_end,
			community = excluded.community,
			pots = excluded.pots,
			winners = excluded.winners,
			pot_amount = excluded.pot_amount,
			completed_at = excluded.completed_at
	`, tableID, h.HandNumber, h.DealerPos, h.Deck.Seed(), h.SmallBlind, h.BigBlind,
		stacksStart, stacksEnd, community, pots, winners, h.Pot, completedAt)
	if err != nil {
		return fmt.Errorf("save hand %d: %w", h.HandNumber, err)
	}
	return nil
}

func handColumns(h *engine.Hand) (string, string, string, string, error) {
	start := make([]int, len(h.Seats))
	if len(h.Events) > 0 {
		if hs, ok := h.Events[0].(*engine.HandStartEvent); ok {
			for i, ss := range hs.Seats {
				start[i] = ss.Chips
			}
		}
	}
	stacksStart, err := json.Marshal(start)
	if err != nil {
		return "", "", "", "", fmt.Errorf("save hand: %w", err)
	}
	community, err := json.Marshal(h.Community)
	if err != nil {
		return "", "", "", "", fmt.Errorf("save hand: %w", err)
	}
	pots, err := json.Marshal(h.Pots)
	if err != nil {
		return "", "", "", "", fmt.Errorf("save hand: %w", err)
	}
	winners, err := json.Marshal(h.Winners)
	if err != nil {
		return "", "", "", "", fmt.Errorf("save hand: %w", err)
	}
	return string(stacksStart), string(community), string(pots), string(winners), nil
}

func handStacks(h *engine.Hand) []int {
	out := make([]int, len(h.Seats))
	for i, seat := range h.Seats {
		out[i] = seat.Chips
	}
	return out
}

// AppendEvents writes new events for a hand in one transaction. Writes
// are idempotent per (table, hand, seq) so a retried batch after a
// partial failure lands cleanly.
func (s *Store) AppendEvents(tableID string, handNumber int, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO events (table_id, hand_number, seq, actor, kind, amount, round, payload, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		payload, err := engine.MarshalEvent(ev)
		if err != nil {
			return fmt.Errorf("append events: encode seq %d: %w", ev.Sequence(), err)
		}
		actor, amount, round := eventColumns(ev)
		_, err = stmt.Exec(tableID, handNumber, ev.Sequence(), actor, string(ev.Kind()), amount, round, string(payload), ev.Time())
		if err != nil {
			return fmt.Errorf("append events: seq %d: %w", ev.Sequence(), err)
		}
	}
	return tx.Commit()
}

// eventColumns extracts the indexed columns from an event. The full
// payload is stored alongside; these exist for queries only.
func eventColumns(ev engine.Event) (actor, amount int, round string) {
	actor = -1
	switch e := ev.(type) {
	case *engine.PostBlindEvent:
		actor, amount = e.Seat, e.Amount
	case *engine.DealEvent:
		actor = e.Seat
	case *engine.ActionEvent:
		actor, amount, round = e.Seat, e.Amount, e.Round.String()
	case *engine.AdvanceRoundEvent:
		round = e.To.String()
	case *engine.DealCommunityEvent:
		round = e.Round.String()
	}
	return actor, amount, round
}

// HandLog is one hand's decoded event log.
type HandLog struct {
	HandNumber int
	Events     []engine.Event
}

// EventsForHand loads one hand's events ordered by sequence.
func (s *Store) EventsForHand(tableID string, handNumber int) ([]engine.Event, error) {
	rows, err := s.db.Query(`
		SELECT kind, payload FROM events
		WHERE table_id = ? AND hand_number = ?
		ORDER BY seq
	`, tableID, handNumber)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		ev, err := engine.UnmarshalEvent(engine.EventKind(kind), []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// EventsForTable loads every hand's events ordered by (hand number,
// sequence). Replaying each log in order reconstructs the table's entire
// history.
func (s *Store) EventsForTable(tableID string) ([]HandLog, error) {
	rows, err := s.db.Query(`
		SELECT hand_number, kind, payload FROM events
		WHERE table_id = ?
		ORDER BY hand_number, seq
	`, tableID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var logs []HandLog
	for rows.Next() {
		var hand int
		var kind, payload string
		if err := rows.Scan(&hand, &kind, &payload); err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		ev, err := engine.UnmarshalEvent(engine.EventKind(kind), []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		if len(logs) == 0 || logs[len(logs)-1].HandNumber != hand {
			logs = append(logs, HandLog{HandNumber: hand})
		}
		logs[len(logs)-1].Events = append(logs[len(logs)-1].Events, ev)
	}
	return logs, rows.Err()
}

// TableRecord is a persisted table row.
type TableRecord struct {
	ID         string
	RoomCode   string
	Config     engine.Config
	Status     engine.TableStatus
	HandNumber int
	Revision   uint64
}

// LoadTable reads a table row and its seats back into an engine table.
// Hand state is not restored here; rebuild it from the event log.
func (s *Store) LoadTable(id string) (*engine.Table, uint64, error) {
	rec, err := s.loadRecord(`SELECT id, room_code, small_blind, big_blind, starting_chips, status, hand_number, revision FROM tables WHERE id = ?`, id)
	if err != nil {
		return nil, 0, err
	}
	return s.hydrate(rec)
}

// TableByRoomCode resolves a room code to its table.
func (s *Store) TableByRoomCode(code string) (*engine.Table, uint64, error) {
	rec, err := s.loadRecord(`SELECT id, room_code, small_blind, big_blind, starting_chips, status, hand_number, revision FROM tables WHERE room_code = ?`, code)
	if err != nil {
		return nil, 0, err
	}
	return s.hydrate(rec)
}

func (s *Store) loadRecord(query, key string) (TableRecord, error) {
	var rec TableRecord
	var status string
	err := s.db.QueryRow(query, key).Scan(
		&rec.ID, &rec.RoomCode,
		&rec.Config.SmallBlind, &rec.Config.BigBlind, &rec.Config.StartingChips,
		&status, &rec.HandNumber, &rec.Revision,
	)
	if err == sql.ErrNoRows {
		return rec, fmt.Errorf("table %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("load table %q: %w", key, err)
	}
	rec.Status = engine.TableStatus(status)
	return rec, nil
}

func (s *Store) hydrate(rec TableRecord) (*engine.Table, uint64, error) {
	t := &engine.Table{
		ID:         rec.ID,
		RoomCode:   rec.RoomCode,
		Config:     rec.Config,
		Status:     rec.Status,
		HandNumber: rec.HandNumber,
		DealerPos:  -1,
	}

	rows, err := s.db.Query(`
		SELECT id, name, credential_fp, chips FROM seats
		WHERE table_id = ? ORDER BY position
	`, rec.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("load seats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		seat := &engine.Seat{Status: engine.StatusActive}
		if err := rows.Scan(&seat.ID, &seat.Name, &seat.CredentialFP, &seat.Chips); err != nil {
			return nil, 0, fmt.Errorf("load seats: %w", err)
		}
		if seat.Chips == 0 {
			seat.Status = engine.StatusOut
		}
		t.Seats = append(t.Seats, seat)
	}
	return t, rec.Revision, rows.Err()
}
