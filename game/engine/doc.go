// Package engine provides the round logic for Mask The Sequence.
//
// The engine package implements the round mechanics including:
//   - Deck generation with a Fisher-Yates shuffle over an injected RNG
//   - The slot row and its one-way slot lifecycle
//   - The sacrifice budget and its optional extra charge
//   - The round state machine and the end-of-round verdict
//   - Rule set loading and validation
//
// Core Types:
//
// RoundState is a value snapshot of one round. Apply is a pure function that
// takes a snapshot and an Action and returns a new snapshot plus a Result;
// a refused action returns the input unchanged together with a sentinel error.
// GameEngine wraps a snapshot behind the Engine interface and records the
// action history.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.StartParams{
//		TierSlots:      4,
//		TierDeckSize:   15,
//		BaseSacrifices: 1,
//	}, engine.NewRNG(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := eng.Do(engine.Action{Type: engine.ActionPlace, Slot: 0})
//	state := eng.GetState()
//
// Game Rules:
//
// Cards are placed one at a time into an ordered row; the row must read
// non-decreasing from left to right. A bad card can be sacrificed for a fresh
// draw while the budget lasts. A slot can instead take two face-down cards;
// once the row is full the player picks one of them, and blind values pay
// five times their face value when the round is won.
package engine
