package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rigged(t *testing.T, p StartParams, hand int, deck ...int) RoundState {
	t.Helper()
	cards := make([]Card, len(deck))
	for i, v := range deck {
		cards[i] = NumberCard(v)
	}
	s, err := NewRiggedRound(p, NumberCard(hand), NewDeck(cards...))
	require.NoError(t, err)
	return s
}

func mustApply(t *testing.T, s RoundState, a Action) (RoundState, Result) {
	t.Helper()
	next, res, err := Apply(s, a)
	require.NoError(t, err, "action %+v", a)
	return next, res
}

func place(i int) Action   { return Action{Type: ActionPlace, Slot: i} }
func blind(i int) Action   { return Action{Type: ActionCastBlind, Slot: i} }
func sacrifice() Action    { return Action{Type: ActionSacrifice} }
func resolve(i, v int) Action {
	return Action{Type: ActionResolveBlind, Slot: i, Value: v}
}

func TestNewRound(t *testing.T) {
	p := StartParams{TierSlots: 4, TierDeckSize: 15, ExpansionBonus: 5, IncludeJackpot: true, BaseSacrifices: 1, ExtraSacrificeGranted: true}
	s, err := NewRound(p, NewRNG(3))
	require.NoError(t, err)

	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Len(t, s.Slots, 4)
	require.NotNil(t, s.Hand)
	assert.Equal(t, 15+5+1-1, s.Deck.Len())
	assert.Equal(t, 2, s.Budget.Remaining)
	assert.Equal(t, DefaultBlindMultiplier, s.Modifiers.BlindMultiplier)
	assert.NotEmpty(t, s.Messages)

	t.Run("invalid params", func(t *testing.T) {
		_, err := NewRound(StartParams{TierSlots: 0, TierDeckSize: 10}, NewRNG(1))
		assert.ErrorIs(t, err, ErrInvalidParams)

		_, err = NewRound(StartParams{TierSlots: 4, TierDeckSize: 10, BaseSacrifices: -1}, NewRNG(1))
		assert.ErrorIs(t, err, ErrInvalidParams)
	})
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := rigged(t, StartParams{TierSlots: 3, BaseSacrifices: 1}, 2, 4, 6, 8)

	next, _ := mustApply(t, s, place(0))
	assert.Equal(t, SlotEmpty, s.Slots[0].State)
	assert.Equal(t, 2, s.Hand.Value)
	assert.Equal(t, 3, s.Deck.Len())

	assert.Equal(t, SlotOpen, next.Slots[0].State)
	assert.Equal(t, 4, next.Hand.Value)
	assert.Equal(t, 2, next.Deck.Len())
}

func TestResultCarriesOnlyThisActionsMessages(t *testing.T) {
	p := StartParams{TierSlots: 4, TierDeckSize: 15, BaseSacrifices: 1}
	s := rigged(t, p, 3, 5, 8, 10)

	s1, res1 := mustApply(t, s, place(0))
	assert.NotEmpty(t, res1.Messages)
	assert.Nil(t, s1.pending, "returned snapshot must not hold undelivered messages")

	s2, res2 := mustApply(t, s1, place(1))
	assert.Nil(t, s2.pending)
	assert.Equal(t, len(res1.Messages), len(res2.Messages), "messages from the previous action leaked")

	s3, res3 := mustApply(t, s2, Action{Type: ActionAbandon})
	assert.Nil(t, s3.pending)
	require.NotNil(t, res3.Outcome)
	assert.Contains(t, res3.Messages, "Round abandoned")
}

func TestPlace(t *testing.T) {
	s := rigged(t, StartParams{TierSlots: 3}, 2, 4)

	t.Run("occupied slot is refused without change", func(t *testing.T) {
		next, _ := mustApply(t, s, place(0))
		after, _, err := Apply(next, place(0))
		assert.ErrorIs(t, err, ErrInvalidSlot)
		assert.Equal(t, next.Hand.Value, after.Hand.Value)
		assert.Equal(t, next.Deck.Len(), after.Deck.Len())
	})

	t.Run("hand becomes empty when deck runs out", func(t *testing.T) {
		next, _ := mustApply(t, s, place(0))
		next, res := mustApply(t, next, place(1))
		assert.Nil(t, next.Hand)
		assert.Equal(t, PhaseLost, next.Phase, "no hand and empty deck with a slot left")
		require.NotNil(t, res.Outcome)
		assert.False(t, res.Outcome.Won)
		assert.Equal(t, 0, res.Outcome.Profit)
	})

	t.Run("placing with no hand", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 3}, 2)
		s.Hand = nil
		_, _, err := Apply(s, place(0))
		assert.ErrorIs(t, err, ErrNoHand)
	})
}

func TestCastBlind(t *testing.T) {
	t.Run("draws two and deals a new hand", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 3}, 1, 5, 6, 7)
		next, res := mustApply(t, s, blind(1))

		assert.Equal(t, SlotBlindPending, next.Slots[1].State)
		assert.Equal(t, []int{5, 6}, values(next.Slots[1].BlindCandidates))
		assert.Equal(t, 7, next.Hand.Value)
		assert.Equal(t, 0, next.Deck.Len())
		assert.Equal(t, 3, s.Deck.Len(), "input untouched")
		assert.NotEmpty(t, res.Messages)
	})

	t.Run("insufficient cards is refused without partial draw", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 3}, 1, 5)
		next, _, err := Apply(s, blind(0))
		assert.ErrorIs(t, err, ErrInsufficientCards)
		assert.True(t, IsUserFacing(err))
		assert.Equal(t, 1, next.Deck.Len())
		assert.Equal(t, SlotEmpty, next.Slots[0].State)
	})

	t.Run("occupied slot does not draw", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 3}, 1, 5, 6, 7)
		s, _ = mustApply(t, s, place(0))
		next, _, err := Apply(s, blind(0))
		assert.ErrorIs(t, err, ErrInvalidSlot)
		assert.Equal(t, s.Deck.Len(), next.Deck.Len())
	})
}

func TestSacrifice(t *testing.T) {
	t.Run("replaces hand and decrements", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 3, BaseSacrifices: 1}, 1, 9, 10)
		next, _ := mustApply(t, s, sacrifice())
		assert.Equal(t, 9, next.Hand.Value)
		assert.Equal(t, 0, next.Budget.Remaining)
		assert.False(t, next.ExtraSacrificeUsed)

		again, _, err := Apply(next, sacrifice())
		assert.ErrorIs(t, err, ErrNoSacrifices)
		assert.Equal(t, 0, again.Budget.Remaining)
		assert.Equal(t, 9, again.Hand.Value)
	})

	t.Run("extra charge is flagged when spent", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 3, BaseSacrifices: 1, ExtraSacrificeGranted: true}, 1, 9, 10, 11)
		next, _ := mustApply(t, s, sacrifice())
		assert.True(t, next.ExtraSacrificeUsed)
		assert.Equal(t, 1, next.Budget.Remaining)
	})

	t.Run("sacrificing the last card loses the round", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 3, BaseSacrifices: 2}, 1)
		next, _ := mustApply(t, s, sacrifice())
		assert.Nil(t, next.Hand)
		assert.Equal(t, PhaseLost, next.Phase)
	})
}

func TestGoggles(t *testing.T) {
	p := StartParams{TierSlots: 3, BaseSacrifices: 1, GogglesGranted: true}

	t.Run("peek is read only", func(t *testing.T) {
		s := rigged(t, p, 1, 4, 5, 6)
		cards, err := Peek(s)
		require.NoError(t, err)
		assert.Equal(t, []int{4, 5}, values(cards))
		assert.Equal(t, 3, s.Deck.Len())
		assert.False(t, s.GogglesUsed)
	})

	t.Run("peek without goggles", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 3}, 1, 4, 5)
		_, err := Peek(s)
		assert.ErrorIs(t, err, ErrNoGoggles)
	})

	t.Run("confirm as blind consumes the charge only", func(t *testing.T) {
		s := rigged(t, p, 1, 4, 5, 6)
		next, _ := mustApply(t, s, Action{Type: ActionConfirmPeek, UseBlind: true})
		assert.True(t, next.GogglesUsed)
		assert.Equal(t, 1, next.Hand.Value)
		assert.Equal(t, 1, next.Budget.Remaining)

		_, _, err := Apply(next, Action{Type: ActionConfirmPeek, UseBlind: true})
		assert.ErrorIs(t, err, ErrNoGoggles)
		_, err = Peek(next)
		assert.ErrorIs(t, err, ErrNoGoggles)
	})

	t.Run("confirm as sacrifice redraws", func(t *testing.T) {
		s := rigged(t, p, 1, 4, 5, 6)
		next, _ := mustApply(t, s, Action{Type: ActionConfirmPeek})
		assert.True(t, next.GogglesUsed)
		assert.Equal(t, 4, next.Hand.Value)
		assert.Equal(t, 0, next.Budget.Remaining)
	})

	t.Run("confirm as sacrifice with empty budget keeps the charge", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 3, GogglesGranted: true}, 1, 4, 5, 6)
		next, _, err := Apply(s, Action{Type: ActionConfirmPeek})
		assert.ErrorIs(t, err, ErrNoSacrifices)
		assert.False(t, next.GogglesUsed)
	})

	t.Run("outcome reports goggles consumption", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 1, GogglesGranted: true}, 1, 4, 5, 6)
		s, _ = mustApply(t, s, Action{Type: ActionConfirmPeek, UseBlind: true})
		s, res := mustApply(t, s, place(0))
		require.NotNil(t, res.Outcome)
		assert.True(t, res.Outcome.ConsumedGoggles)
		assert.True(t, res.Outcome.Won)
		assert.Equal(t, 1, res.Outcome.Profit)
	})
}

func TestVerdict(t *testing.T) {
	t.Run("ties allowed wins", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 4}, 3, 5, 5, 8)
		for i := 0; i < 4; i++ {
			s, _ = mustApply(t, s, place(i))
		}
		assert.Equal(t, PhaseWon, s.Phase)
		o, ok := s.Outcome()
		require.True(t, ok)
		assert.True(t, o.Won)
		assert.Equal(t, 21, o.Profit)
	})

	t.Run("a drop loses", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 4, SmallBetGranted: true}, 3, 5, 4, 8)
		for i := 0; i < 4; i++ {
			s, _ = mustApply(t, s, place(i))
		}
		assert.Equal(t, PhaseLost, s.Phase)
		o, ok := s.Outcome()
		require.True(t, ok)
		assert.False(t, o.Won)
		assert.Equal(t, 0, o.Profit)
		assert.False(t, o.ConsumedSmallBet, "small bet is only consumed on a win")
	})

	t.Run("no actions after the verdict", func(t *testing.T) {
		s := rigged(t, StartParams{TierSlots: 1}, 3, 5)
		s, _ = mustApply(t, s, place(0))
		require.Equal(t, PhaseWon, s.Phase)
		_, _, err := Apply(s, sacrifice())
		assert.ErrorIs(t, err, ErrRoundOver)
	})
}

func TestRevelation(t *testing.T) {
	s := rigged(t, StartParams{TierSlots: 3, SmallBetGranted: true}, 2, 4, 5, 6, 9)
	s, _ = mustApply(t, s, place(0))
	s, _ = mustApply(t, s, blind(1))
	require.Equal(t, 9, s.Hand.Value)

	_, _, err := Apply(s, resolve(1, 4))
	assert.ErrorIs(t, err, ErrWrongPhase, "cannot resolve while playing")

	s, res := mustApply(t, s, place(2))
	assert.Equal(t, PhaseRevelation, s.Phase)
	assert.True(t, res.PhaseChanged())
	assert.Nil(t, res.Outcome)

	_, _, err = Apply(s, place(0))
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, _, err = Apply(s, resolve(1, 7))
	assert.ErrorIs(t, err, ErrInvalidChoice)

	s, res = mustApply(t, s, resolve(1, 6))
	assert.Equal(t, PhaseWon, s.Phase)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, 2+9+6*5+50, res.Outcome.Profit)
	assert.True(t, res.Outcome.ConsumedSmallBet)
}

func TestAbandon(t *testing.T) {
	s := rigged(t, StartParams{TierSlots: 3}, 2, 4, 6)

	next, res := mustApply(t, s, Action{Type: ActionAbandon})
	assert.Equal(t, PhaseLost, next.Phase)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, 0, res.Outcome.Profit)

	again, _, err := Apply(next, Action{Type: ActionAbandon})
	assert.NoError(t, err)
	assert.Equal(t, PhaseLost, again.Phase)
}

func TestUnknownAction(t *testing.T) {
	s := rigged(t, StartParams{TierSlots: 3}, 2, 4, 6)
	_, _, err := Apply(s, Action{Type: "jump"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestMessagesAreBounded(t *testing.T) {
	s := rigged(t, StartParams{TierSlots: 8, BaseSacrifices: 10}, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	for i := 0; i < 8; i++ {
		s, _ = mustApply(t, s, sacrifice())
	}
	assert.Len(t, s.Messages, MaxMessages)
	assert.Equal(t, "Sacrificed the hand", s.Messages[len(s.Messages)-1])
}

// The scripted tutorial round replayed directly against the controller
func TestTutorialScenarioLivePath(t *testing.T) {
	s := rigged(t, StartParams{TierSlots: 4, BaseSacrifices: 3}, 3, 5, 1, 8, 10, 12, 15)

	steps := []struct {
		action Action
		phase  Phase
		hand   int
	}{
		{place(0), PhasePlaying, 5},
		{place(1), PhasePlaying, 1},
		{sacrifice(), PhasePlaying, 8},
		{Action{Type: ActionToggleVoid}, PhasePlaying, 8},
		{blind(2), PhasePlaying, 15},
		{place(3), PhaseRevelation, 0},
		{resolve(2, 12), PhaseWon, 0},
	}

	for i, step := range steps {
		s, _ = mustApply(t, s, step.action)
		assert.Equal(t, step.phase, s.Phase, "step %d", i)
		if step.hand == 0 {
			assert.Nil(t, s.Hand, "step %d", i)
		} else {
			require.NotNil(t, s.Hand, "step %d", i)
			assert.Equal(t, step.hand, s.Hand.Value, "step %d", i)
		}
	}

	o, ok := s.Outcome()
	require.True(t, ok)
	assert.Equal(t, 3+5+15+12*5, o.Profit)
	assert.Equal(t, 2, s.Budget.Remaining)
}
