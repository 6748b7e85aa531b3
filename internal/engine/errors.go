package engine

import "errors"

// Rule and precondition errors returned to callers. They are matched with
// errors.Is; messages carry the legal bounds where that helps the caller.
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrIllegalAction      = errors.New("illegal action")
	ErrInsufficientChips  = errors.New("insufficient chips")
	ErrAmountBelowMinimum = errors.New("amount below minimum")
	ErrAmountExceedsStack = errors.New("amount exceeds stack")
	ErrHandNotActive      = errors.New("hand not active")
	ErrHandInProgress     = errors.New("hand in progress")
	ErrHandNotComplete    = errors.New("hand not complete")
	ErrNotEnoughPlayers   = errors.New("not enough players with chips")
	ErrNotAutoAdvanceable = errors.New("no automatic advance available")
	ErrTableFull          = errors.New("table full")
	ErrNameTaken          = errors.New("name already taken")
	ErrSeatNotFound       = errors.New("seat not found")
	ErrTableCompleted     = errors.New("table completed")

	// ErrConservation marks a chip-conservation violation. It is fatal: the
	// serializer poisons the table and refuses further mutations.
	ErrConservation = errors.New("chip conservation violated")
)

// IsFatal reports whether err indicates a broken engine invariant rather
// than a rejected request.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConservation)
}
