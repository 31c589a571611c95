package game

import "errors"

// Client-facing play errors. Managers translate these into protocol error
// messages for the originating connection; none of them mutate state.
var (
	ErrNotYourTurn           = errors.New("not your turn")
	ErrNoActiveWindow        = errors.New("no active play window")
	ErrCardNotFound          = errors.New("card not found")
	ErrWrongCategory         = errors.New("card category not playable in this window")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrPlayerDisabled        = errors.New("player is frozen or stunned")
)
