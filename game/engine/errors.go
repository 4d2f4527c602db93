package engine

import "errors"

var (
	ErrInvalidSlot       = errors.New("invalid slot")
	ErrInsufficientCards = errors.New("insufficient cards")
	ErrInvalidChoice     = errors.New("invalid choice")
	ErrWrongPhase        = errors.New("action not allowed in current phase")
	ErrNoHand            = errors.New("no card in hand")
	ErrNoSacrifices      = errors.New("no sacrifices left")
	ErrNoGoggles         = errors.New("no goggles charge available")
	ErrRoundOver         = errors.New("round is over")
	ErrUnknownAction     = errors.New("unknown action")
	ErrInvalidParams     = errors.New("invalid start parameters")
)

// IsUserFacing reports whether a refusal should be shown to the player rather
// than only logged. Everything else is a caller error.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrInsufficientCards) ||
		errors.Is(err, ErrNoSacrifices) ||
		errors.Is(err, ErrNoGoggles) ||
		errors.Is(err, ErrNoHand) ||
		errors.Is(err, ErrRoundOver)
}

// RefusalMessage turns an engine error into a short message for the player
func RefusalMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientCards):
		return "Not enough cards left in the deck"
	case errors.Is(err, ErrNoSacrifices):
		return "No sacrifices left"
	case errors.Is(err, ErrNoGoggles):
		return "No goggles charge available"
	case errors.Is(err, ErrNoHand):
		return "No card in hand"
	case errors.Is(err, ErrRoundOver):
		return "The round is already over"
	case errors.Is(err, ErrWrongPhase):
		return "That action is not available right now"
	case errors.Is(err, ErrInvalidChoice):
		return "That value is not one of the blind candidates"
	case errors.Is(err, ErrInvalidSlot):
		return "That slot cannot take a card"
	default:
		return err.Error()
	}
}
