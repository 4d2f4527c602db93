package engine

import "fmt"

// RoundState is an immutable-by-convention snapshot of one round. Apply never
// mutates its input; it returns a fresh snapshot.
type RoundState struct {
	Deck      Deck      `json:"deck"`
	Slots     SlotRow   `json:"slots"`
	Hand      *Card     `json:"hand"`
	Budget    Budget    `json:"budget"`
	Phase     Phase     `json:"phase"`
	Modifiers Modifiers `json:"modifiers"`

	ExtraSacrificeUsed bool     `json:"extra_sacrifice_used"`
	GogglesUsed        bool     `json:"goggles_used"`
	Messages           []string `json:"messages"`

	pending []string
}

// Result describes the effect of one accepted or refused action
type Result struct {
	Action      Action   `json:"action"`
	PhaseBefore Phase    `json:"phase_before"`
	Phase       Phase    `json:"phase"`
	Messages    []string `json:"messages,omitempty"`
	Outcome     *Outcome `json:"outcome,omitempty"`
}

// PhaseChanged reports whether the action moved the state machine
func (r Result) PhaseChanged() bool {
	return r.PhaseBefore != r.Phase
}

// ValidateStartParams checks the inbound parameters of a round
func ValidateStartParams(p StartParams) error {
	if p.TierSlots < MinSlots || p.TierSlots > MaxSlots {
		return fmt.Errorf("%w: tier_slots must be between %d and %d, got %d", ErrInvalidParams, MinSlots, MaxSlots, p.TierSlots)
	}
	if p.TierDeckSize < MinDeckSize || p.TierDeckSize > MaxDeckSize {
		return fmt.Errorf("%w: tier_deck_size must be between %d and %d, got %d", ErrInvalidParams, MinDeckSize, MaxDeckSize, p.TierDeckSize)
	}
	if p.ExpansionBonus < 0 || p.ExpansionBonus > MaxExpansion {
		return fmt.Errorf("%w: expansion_bonus must be between 0 and %d, got %d", ErrInvalidParams, MaxExpansion, p.ExpansionBonus)
	}
	if p.BaseSacrifices < 0 || p.BaseSacrifices > MaxSacrifices {
		return fmt.Errorf("%w: base_sacrifices must be between 0 and %d, got %d", ErrInvalidParams, MaxSacrifices, p.BaseSacrifices)
	}
	if p.BlindMultiplier < 0 || p.SmallBetBonus < 0 {
		return fmt.Errorf("%w: payout settings cannot be negative", ErrInvalidParams)
	}
	return nil
}

func modifiersFor(p StartParams) Modifiers {
	m := Modifiers{
		ExtraSacrifice:  p.ExtraSacrificeGranted,
		SmallBet:        p.SmallBetGranted,
		Goggles:         p.GogglesGranted,
		Jackpot:         p.IncludeJackpot,
		BlindMultiplier: p.BlindMultiplier,
		SmallBetBonus:   p.SmallBetBonus,
	}
	if m.BlindMultiplier == 0 {
		m.BlindMultiplier = DefaultBlindMultiplier
	}
	if m.SmallBetBonus == 0 {
		m.SmallBetBonus = DefaultSmallBetBonus
	}
	return m
}

// NewRound generates and shuffles a deck from the parameters and deals the first hand
func NewRound(p StartParams, rng RNG) (RoundState, error) {
	if err := ValidateStartParams(p); err != nil {
		return RoundState{}, err
	}
	tier := TierConfig{Slots: p.TierSlots, DeckSize: p.TierDeckSize}
	deck := GenerateDeck(tier, p.ExpansionBonus, p.IncludeJackpot, rng)
	return deal(p, deck, nil), nil
}

// NewRiggedRound starts a round with a fixed hand and an unshuffled deck
func NewRiggedRound(p StartParams, hand Card, deck Deck) (RoundState, error) {
	if p.TierSlots < MinSlots || p.TierSlots > MaxSlots {
		return RoundState{}, fmt.Errorf("%w: tier_slots must be between %d and %d, got %d", ErrInvalidParams, MinSlots, MaxSlots, p.TierSlots)
	}
	if p.BaseSacrifices < 0 {
		return RoundState{}, fmt.Errorf("%w: base_sacrifices cannot be negative", ErrInvalidParams)
	}
	return deal(p, deck.Clone(), &hand), nil
}

func deal(p StartParams, deck Deck, hand *Card) RoundState {
	s := RoundState{
		Deck:      deck,
		Slots:     NewSlotRow(p.TierSlots),
		Budget:    NewBudget(p.BaseSacrifices, p.ExtraSacrificeGranted),
		Phase:     PhasePlaying,
		Modifiers: modifiersFor(p),
		Messages:  []string{},
	}
	if hand != nil {
		h := *hand
		s.Hand = &h
	} else if c, ok := s.Deck.Draw(); ok {
		s.Hand = &c
	}
	s.say(fmt.Sprintf("Round started with %d slots and %d cards", len(s.Slots), s.Deck.Len()+boolToInt(s.Hand != nil)))
	s.pending = nil
	return s
}

// Clone returns a deep copy of the snapshot
func (s RoundState) Clone() RoundState {
	out := s
	out.Deck = s.Deck.Clone()
	out.Slots = s.Slots.Clone()
	if s.Hand != nil {
		h := *s.Hand
		out.Hand = &h
	}
	out.Messages = append([]string{}, s.Messages...)
	out.pending = nil
	return out
}

// Apply runs one action against a snapshot. On refusal the input snapshot is
// returned unchanged together with the error.
func Apply(state RoundState, action Action) (RoundState, Result, error) {
	res := Result{Action: action, PhaseBefore: state.Phase, Phase: state.Phase}

	if action.Type == ActionAbandon {
		if state.Phase.IsTerminal() {
			return state, res, nil
		}
		next := state.Clone()
		next.Phase = PhaseLost
		next.say("Round abandoned")
		res = next.finish(res)
		return next, res, nil
	}

	if state.Phase.IsTerminal() {
		return state, res, ErrRoundOver
	}

	next := state.Clone()
	var err error
	switch action.Type {
	case ActionPlace:
		err = next.place(action.Slot)
	case ActionCastBlind:
		err = next.castBlind(action.Slot)
	case ActionSacrifice:
		err = next.sacrifice()
	case ActionConfirmPeek:
		err = next.confirmPeek(action.UseBlind)
	case ActionResolveBlind:
		err = next.resolveBlind(action.Slot, action.Value)
	case ActionToggleVoid:
		if next.Phase != PhasePlaying {
			err = ErrWrongPhase
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
	if err != nil {
		return state, res, err
	}

	switch action.Type {
	case ActionPlace, ActionCastBlind, ActionSacrifice, ActionConfirmPeek:
		next.settle()
	}
	res = next.finish(res)
	return next, res, nil
}

// Peek previews the next two cards. It never changes the round.
func Peek(state RoundState) ([]Card, error) {
	if state.Phase != PhasePlaying {
		return nil, ErrWrongPhase
	}
	if !state.GogglesAvailable() {
		return nil, ErrNoGoggles
	}
	if state.Deck.Len() < PeekSize {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCards, PeekSize, state.Deck.Len())
	}
	return state.Deck.PeekFront(PeekSize), nil
}

// GogglesAvailable reports whether the goggles charge can still be spent
func (s RoundState) GogglesAvailable() bool {
	return s.Modifiers.Goggles && !s.GogglesUsed
}

// Profit is the sum of OPEN values, BLIND_RESOLVED values times the blind
// multiplier, and the small bet bonus when active.
func Profit(row SlotRow, mods Modifiers) int {
	mult := mods.BlindMultiplier
	if mult == 0 {
		mult = DefaultBlindMultiplier
	}
	total := 0
	for _, s := range row {
		switch s.State {
		case SlotOpen:
			total += s.Value
		case SlotBlindResolved:
			total += s.SelectedValue * mult
		}
	}
	if mods.SmallBet {
		bonus := mods.SmallBetBonus
		if bonus == 0 {
			bonus = DefaultSmallBetBonus
		}
		total += bonus
	}
	return total
}

// Outcome summarizes a finished round. ok is false while the round is live.
func (s RoundState) Outcome() (Outcome, bool) {
	if !s.Phase.IsTerminal() {
		return Outcome{}, false
	}
	o := Outcome{
		Won:                    s.Phase == PhaseWon,
		ConsumedExtraSacrifice: s.ExtraSacrificeUsed,
		ConsumedGoggles:        s.GogglesUsed,
	}
	if o.Won {
		o.Profit = Profit(s.Slots, s.Modifiers)
		o.ConsumedSmallBet = s.Modifiers.SmallBet
	}
	return o, true
}

func (s *RoundState) place(index int) error {
	if s.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if s.Hand == nil {
		return ErrNoHand
	}
	if err := s.Slots.PlaceOpen(index, *s.Hand); err != nil {
		return err
	}
	s.say(fmt.Sprintf("Placed %d in slot %d", s.Hand.Value, index+1))
	s.drawHand()
	return nil
}

func (s *RoundState) castBlind(index int) error {
	if s.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if err := s.Slots.emptyAt(index); err != nil {
		return err
	}
	cards, err := s.Deck.DrawMany(BlindDrawSize)
	if err != nil {
		return err
	}
	if err := s.Slots.PlaceBlind(index, cards); err != nil {
		return err
	}
	s.say(fmt.Sprintf("Cast a blind pair into slot %d", index+1))
	s.drawHand()
	return nil
}

func (s *RoundState) sacrifice() error {
	if s.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	extra, err := s.Budget.Spend()
	if err != nil {
		return err
	}
	if extra {
		s.ExtraSacrificeUsed = true
		s.say("Spent the spare sacrifice")
	}
	s.drawHand()
	s.say("Sacrificed the hand")
	return nil
}

func (s *RoundState) confirmPeek(useBlind bool) error {
	if s.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if !s.GogglesAvailable() {
		return ErrNoGoggles
	}
	if !useBlind {
		if !s.Budget.CanSpend() {
			return ErrNoSacrifices
		}
		s.GogglesUsed = true
		return s.sacrifice()
	}
	s.GogglesUsed = true
	s.say("Lens engaged")
	return nil
}

func (s *RoundState) resolveBlind(index, value int) error {
	if s.Phase != PhaseRevelation {
		return ErrWrongPhase
	}
	if err := s.Slots.ResolveBlind(index, value); err != nil {
		return err
	}
	s.say(fmt.Sprintf("Slot %d revealed %d", index+1, value))
	if !s.Slots.HasPendingBlind() {
		s.verify()
	}
	return nil
}

// settle is the terminal check run after every mutation while playing
func (s *RoundState) settle() {
	if s.Phase != PhasePlaying {
		return
	}
	if s.Slots.IsFilled() {
		s.Phase = PhaseRevelation
		s.say("The row is complete. Time for the reveal")
		if !s.Slots.HasPendingBlind() {
			s.verify()
		}
		return
	}
	if s.Hand == nil && s.Deck.Len() == 0 {
		s.Phase = PhaseLost
		s.say("The deck is exhausted. No cards left")
	}
}

func (s *RoundState) verify() {
	if s.Slots.IsNonDecreasing() {
		s.Phase = PhaseWon
		s.say(fmt.Sprintf("The sequence holds. Profit: %d", Profit(s.Slots, s.Modifiers)))
		return
	}
	s.Phase = PhaseLost
	s.say("The sequence is broken")
}

func (s *RoundState) drawHand() {
	if c, ok := s.Deck.Draw(); ok {
		s.Hand = &c
		return
	}
	s.Hand = nil
}

func (s *RoundState) say(msg string) {
	s.Messages = append(s.Messages, msg)
	if len(s.Messages) > MaxMessages {
		s.Messages = s.Messages[len(s.Messages)-MaxMessages:]
	}
	s.pending = append(s.pending, msg)
}

func (s *RoundState) finish(res Result) Result {
	res.Phase = s.Phase
	res.Messages = s.pending
	s.pending = nil
	if o, ok := s.Outcome(); ok {
		res.Outcome = &o
	}
	return res
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
