package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for round operations
type Engine interface {
	// Round state
	GetState() RoundState
	GetPhase() Phase
	IsOver() bool
	IsVictory() bool
	Outcome() (Outcome, bool)

	// Actions
	Do(action Action) (Result, error)
	Peek() ([]Card, error)
	LegalActions() []Action

	// Configuration
	GetParams() StartParams

	// History
	GetHistory() []HistoryEntry
	GetLastAction() *HistoryEntry
}

// GameEngine implements Engine by holding the current snapshot and feeding
// every action through Apply.
type GameEngine struct {
	state   RoundState
	params  StartParams
	history []HistoryEntry
	now     func() time.Time
}

// NewEngine creates an engine with a freshly shuffled round
func NewEngine(params StartParams, rng RNG) (*GameEngine, error) {
	if rng == nil {
		rng = NewTimeSeededRNG()
	}
	state, err := NewRound(params, rng)
	if err != nil {
		return nil, err
	}
	return &GameEngine{state: state, params: params, now: time.Now}, nil
}

// NewEngineFromState wraps an existing snapshot, e.g. a rigged tutorial round
func NewEngineFromState(params StartParams, state RoundState) (*GameEngine, error) {
	if state.Phase == "" {
		return nil, fmt.Errorf("%w: state has no phase", ErrInvalidParams)
	}
	return &GameEngine{state: state.Clone(), params: params, now: time.Now}, nil
}

// GetState returns a copy of the current snapshot
func (e *GameEngine) GetState() RoundState {
	return e.state.Clone()
}

// GetPhase returns the current phase
func (e *GameEngine) GetPhase() Phase {
	return e.state.Phase
}

// IsOver returns whether the round reached WON or LOST
func (e *GameEngine) IsOver() bool {
	return e.state.Phase.IsTerminal()
}

// IsVictory returns whether the round was won
func (e *GameEngine) IsVictory() bool {
	return e.state.Phase == PhaseWon
}

// Outcome returns the round result once it is over
func (e *GameEngine) Outcome() (Outcome, bool) {
	return e.state.Outcome()
}

// GetParams returns the start parameters
func (e *GameEngine) GetParams() StartParams {
	return e.params
}

// Do applies an action and records it in the history
func (e *GameEngine) Do(action Action) (Result, error) {
	before := e.state.Phase
	next, res, err := Apply(e.state, action)
	entry := HistoryEntry{
		Number:      len(e.history) + 1,
		Action:      action,
		Accepted:    err == nil,
		PhaseBefore: before,
		Timestamp:   e.now().Unix(),
	}
	if err != nil {
		entry.Reason = err.Error()
	} else {
		e.state = next
	}
	entry.PhaseAfter = e.state.Phase
	entry.DeckLeft = e.state.Deck.Len()
	if e.state.Hand != nil {
		entry.Hand = e.state.Hand.Value
	}
	e.record(entry)
	return res, err
}

// Peek previews the next cards without recording anything
func (e *GameEngine) Peek() ([]Card, error) {
	return Peek(e.state)
}

// LegalActions lists the actions that Apply would currently accept.
// Resolve actions enumerate every candidate value.
func (e *GameEngine) LegalActions() []Action {
	return LegalActions(e.state)
}

// GetHistory returns every submitted action in order
func (e *GameEngine) GetHistory() []HistoryEntry {
	out := make([]HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// GetLastAction returns the last submitted action, or nil
func (e *GameEngine) GetLastAction() *HistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}

func (e *GameEngine) record(entry HistoryEntry) {
	e.history = append(e.history, entry)
	if len(e.history) > MaxHistorySize {
		e.history = e.history[len(e.history)-MaxHistorySize:]
	}
}

// LegalActions enumerates accepted actions for a snapshot, excluding abandon
// and toggle_void which are always available while playing.
func LegalActions(s RoundState) []Action {
	var out []Action
	switch s.Phase {
	case PhasePlaying:
		for _, i := range s.Slots.EmptyIndexes() {
			if s.Hand != nil {
				out = append(out, Action{Type: ActionPlace, Slot: i})
			}
			if s.Deck.Len() >= BlindDrawSize {
				out = append(out, Action{Type: ActionCastBlind, Slot: i})
			}
		}
		if s.Budget.CanSpend() {
			out = append(out, Action{Type: ActionSacrifice})
		}
		if s.GogglesAvailable() {
			out = append(out, Action{Type: ActionConfirmPeek, UseBlind: true})
			if s.Budget.CanSpend() {
				out = append(out, Action{Type: ActionConfirmPeek})
			}
		}
	case PhaseRevelation:
		for _, slot := range s.Slots {
			if slot.State != SlotBlindPending {
				continue
			}
			for _, c := range slot.BlindCandidates {
				out = append(out, Action{Type: ActionResolveBlind, Slot: slot.Index, Value: c.Value})
			}
		}
	}
	return out
}
