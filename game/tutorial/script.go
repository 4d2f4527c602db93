package tutorial

import (
	"github.com/wricardo/mask-the-sequence/game/engine"
)

// Highlight targets used by clients to draw attention to a control
const (
	HighlightSlot0      = "slot-0"
	HighlightSlot1      = "slot-1"
	HighlightSlot2      = "slot-2"
	HighlightSlot3      = "slot-3"
	HighlightSacrifice  = "btn-sacrifice"
	HighlightVoidToggle = "btn-void-toggle"
)

// Rigged deal: hand 3, then 5, 1 (forces a sacrifice), 8, the blind pair 10
// and 12, and a closing 15.
var (
	riggedHand = 3
	riggedDeck = []int{5, 1, 8, 10, 12, 15}
)

const tutorialSlots = 4

// DefaultScript is the seven-step training session
func DefaultScript() []Step {
	return []Step{
		{
			Required:  engine.ActionPlace,
			Slot:      0,
			Highlight: HighlightSlot0,
			Text:      "Calibrating... The only rule: the sequence must never go down. Place your 3 in the first slot.",
		},
		{
			Required:  engine.ActionPlace,
			Slot:      1,
			Highlight: HighlightSlot1,
			Text:      "Good. 5 is above 3, a safe link. Keep building.",
		},
		{
			Required:  engine.ActionSacrifice,
			Slot:      AnySlot,
			Highlight: HighlightSacrifice,
			Text:      "Warning: a 1 is lower than the 5 before it. Placing it would break the chain. Sacrifice it for a fresh card.",
		},
		{
			Required:  engine.ActionToggleVoid,
			Slot:      AnySlot,
			Highlight: HighlightVoidToggle,
			Text:      "Safe again, but open cards pay little. Switch to blind mode: two hidden cards go into one slot.",
		},
		{
			Required:  engine.ActionCastBlind,
			Slot:      2,
			Highlight: HighlightSlot2,
			Text:      "A correct blind pays five times its value. Cast the blind pair into slot 3.",
		},
		{
			Required:  engine.ActionPlace,
			Slot:      3,
			Highlight: HighlightSlot3,
			Text:      "Finish the row with your last card.",
		},
		{
			Required:  engine.ActionResolveBlind,
			Slot:      2,
			Highlight: HighlightSlot2,
			Text:      "The row is complete. Reveal the blind slot and pick your card.",
		},
	}
}

// Params returns the start parameters of the training round
func Params(sacrifices int) engine.StartParams {
	return engine.StartParams{
		TierSlots:      tutorialSlots,
		TierDeckSize:   len(riggedDeck) + 1,
		BaseSacrifices: sacrifices,
	}
}

// NewRound deals the rigged training round
func NewRound(sacrifices int) (engine.RoundState, error) {
	cards := make([]engine.Card, len(riggedDeck))
	for i, v := range riggedDeck {
		cards[i] = engine.NumberCard(v)
	}
	return engine.NewRiggedRound(Params(sacrifices), engine.NumberCard(riggedHand), engine.NewDeck(cards...))
}

// NewEngine builds an engine for the training round and its interceptor
func NewEngine(sacrifices int) (*engine.GameEngine, *Interceptor, error) {
	state, err := NewRound(sacrifices)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.NewEngineFromState(Params(sacrifices), state)
	if err != nil {
		return nil, nil, err
	}
	return eng, NewInterceptor(eng, nil), nil
}
