package server

import (
	"errors"

	"github.com/wbruntra/texas-holdem/internal/engine"
	"github.com/wbruntra/texas-holdem/internal/service"
	"github.com/wbruntra/texas-holdem/internal/table"
	"github.com/wbruntra/texas-holdem/internal/view"
)

// Request is the JSON envelope clients send over the websocket.
type Request struct {
	Op string `json:"op"`

	RoomCode   string `json:"room_code,omitempty"`
	TableID    string `json:"table_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Credential string `json:"credential,omitempty"`
	Token      string `json:"token,omitempty"`

	Action string `json:"action,omitempty"`
	Amount int    `json:"amount,omitempty"`

	SmallBlind    int `json:"small_blind,omitempty"`
	BigBlind      int `json:"big_blind,omitempty"`
	StartingChips int `json:"starting_chips,omitempty"`

	Stream string `json:"stream,omitempty"`
}

// Response is the JSON envelope for replies and streamed snapshots.
type Response struct {
	Op    string `json:"op"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`

	TableID  string `json:"table_id,omitempty"`
	RoomCode string `json:"room_code,omitempty"`
	SeatID   string `json:"seat_id,omitempty"`
	Token    string `json:"token,omitempty"`

	Snapshot *view.TableView `json:"snapshot,omitempty"`
}

func okResponse(op string) Response {
	return Response{Op: op, OK: true}
}

func errResponse(op string, err error) Response {
	return Response{Op: op, Error: err.Error(), Kind: errorKind(err)}
}

// errorKind maps an error to its caller-visible taxonomy bucket.
func errorKind(err error) string {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, engine.ErrSeatNotFound):
		return "not_found"
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredential):
		return "unauthorized"
	case errors.Is(err, service.ErrWeakCredential):
		return "validation"
	case errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrHandInProgress),
		errors.Is(err, engine.ErrHandNotComplete),
		errors.Is(err, engine.ErrHandNotActive),
		errors.Is(err, engine.ErrNotAutoAdvanceable),
		errors.Is(err, engine.ErrNotEnoughPlayers),
		errors.Is(err, engine.ErrTableCompleted),
		errors.Is(err, service.ErrNoHand):
		return "precondition"
	case errors.Is(err, engine.ErrIllegalAction),
		errors.Is(err, engine.ErrAmountBelowMinimum),
		errors.Is(err, engine.ErrAmountExceedsStack),
		errors.Is(err, engine.ErrInsufficientChips),
		errors.Is(err, engine.ErrTableFull),
		errors.Is(err, engine.ErrNameTaken):
		return "rule"
	case errors.Is(err, table.ErrDeadline):
		return "timeout"
	case errors.Is(err, table.ErrPersistence):
		return "transient"
	case errors.Is(err, engine.ErrConservation),
		errors.Is(err, table.ErrTablePoisoned):
		return "fatal"
	default:
		return "internal"
	}
}
