package engine

import "fmt"

// TableStatus is the lifecycle state of a table.
type TableStatus string

const (
	TableWaiting   TableStatus = "waiting"
	TablePlaying   TableStatus = "playing"
	TableCompleted TableStatus = "completed"
)

// MaxSeats is the most seats a table can hold.
const MaxSeats = 10

// Config is a table's fixed configuration.
type Config struct {
	SmallBlind    int
	BigBlind      int
	StartingChips int
}

// Validate checks the configuration for a new table.
func (c Config) Validate() error {
	if c.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive, got %d", c.SmallBlind)
	}
	if c.BigBlind <= c.SmallBlind {
		return fmt.Errorf("big blind %d must exceed small blind %d", c.BigBlind, c.SmallBlind)
	}
	if c.StartingChips < c.BigBlind {
		return fmt.Errorf("starting chips %d must cover the big blind %d", c.StartingChips, c.BigBlind)
	}
	return nil
}

// Table owns its seats and the hand in progress. It is mutated only by the
// table's serializer.
type Table struct {
	ID       string
	RoomCode string
	Config   Config
	Seats    []*Seat
	Hand     *Hand

	HandNumber int
	DealerPos  int
	Status     TableStatus
}

// NewTable creates an empty table.
func NewTable(id, roomCode string, cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Table{
		ID:        id,
		RoomCode:  roomCode,
		Config:    cfg,
		DealerPos: -1,
		Status:    TableWaiting,
	}, nil
}

// AddSeat seats a new player with the table's starting stack.
func (t *Table) AddSeat(id, name, credentialFP string) (*Seat, error) {
	if t.Status == TableCompleted {
		return nil, ErrTableCompleted
	}
	if t.Hand != nil && !t.Hand.Complete() {
		return nil, ErrHandInProgress
	}
	if len(t.Seats) >= MaxSeats {
		return nil, ErrTableFull
	}
	for _, s := range t.Seats {
		if s.Name == name {
			return nil, ErrNameTaken
		}
	}
	seat := &Seat{
		ID:           id,
		Name:         name,
		CredentialFP: credentialFP,
		Chips:        t.Config.StartingChips,
		Status:       StatusActive,
		Connected:    true,
	}
	t.Seats = append(t.Seats, seat)
	return seat, nil
}

// SeatByID finds a seat by its identity.
func (t *Table) SeatByID(id string) (int, *Seat, error) {
	for i, s := range t.Seats {
		if s.ID == id {
			return i, s, nil
		}
	}
	return -1, nil, ErrSeatNotFound
}

// SeatByName finds a seat by display name.
func (t *Table) SeatByName(name string) (int, *Seat, error) {
	for i, s := range t.Seats {
		if s.Name == name {
			return i, s, nil
		}
	}
	return -1, nil, ErrSeatNotFound
}

// StartHand starts the first hand of a table.
func (t *Table) StartHand(seed []byte) error {
	if t.Status == TableCompleted {
		return ErrTableCompleted
	}
	if t.Hand != nil && !t.Hand.Complete() {
		return ErrHandInProgress
	}
	if t.fundedSeats() < 2 {
		return ErrNotEnoughPlayers
	}
	return t.startHand(seed)
}

// StartNextHand starts the following hand once the current one completed.
// When fewer than two seats still have chips the table completes instead;
// that transition is a successful state change, not an error, so it
// persists and publishes like any other.
func (t *Table) StartNextHand(seed []byte) error {
	if t.Status == TableCompleted {
		return ErrTableCompleted
	}
	if t.Hand == nil || !t.Hand.Complete() {
		return ErrHandNotComplete
	}
	if t.fundedSeats() < 2 {
		t.Status = TableCompleted
		return nil
	}
	return t.startHand(seed)
}

func (t *Table) startHand(seed []byte) error {
	dealer := t.nextDealer()
	hand, err := NewHand(t.Seats, t.HandNumber+1, dealer, t.Config.SmallBlind, t.Config.BigBlind, seed)
	if err != nil {
		return err
	}
	t.HandNumber++
	t.DealerPos = dealer
	t.Hand = hand
	t.Status = TablePlaying
	return nil
}

// nextDealer rotates the dealer button to the next seat with chips.
func (t *Table) nextDealer() int {
	n := len(t.Seats)
	for i := 1; i <= n; i++ {
		pos := ((t.DealerPos+i)%n + n) % n
		if t.Seats[pos].Chips > 0 {
			return pos
		}
	}
	return 0
}

func (t *Table) fundedSeats() int {
	n := 0
	for _, s := range t.Seats {
		if s.Chips > 0 {
			n++
		}
	}
	return n
}

// AttachHand installs a hand rebuilt from the event log, typically after
// loading the table from storage. The hand's per-seat state becomes
// authoritative and the hand shares the table's seat objects again, the
// same invariant startHand establishes.
func (t *Table) AttachHand(h *Hand) {
	for i, hs := range h.Seats {
		s := t.Seats[i]
		s.Chips = hs.Chips
		s.HoleCards = hs.HoleCards
		s.Status = hs.Status
		s.CurrentBet = hs.CurrentBet
		s.TotalBet = hs.TotalBet
		s.LastAction = hs.LastAction
		s.ShowCards = hs.ShowCards
		s.Dealer = hs.Dealer
		s.SmallBlind = hs.SmallBlind
		s.BigBlind = hs.BigBlind
	}
	h.Seats = t.Seats[:len(h.Seats)]
	t.Hand = h
	t.HandNumber = h.HandNumber
	t.DealerPos = h.DealerPos
}

// Clone returns a deep copy of the table for snapshots.
func (t *Table) Clone() *Table {
	c := *t
	c.Seats = make([]*Seat, len(t.Seats))
	for i, s := range t.Seats {
		c.Seats[i] = s.Clone()
	}
	if t.Hand != nil {
		c.Hand = t.Hand.Clone()
		// The hand's seats are the table's seats; keep that true in the copy.
		c.Hand.Seats = c.Seats
	}
	return &c
}
