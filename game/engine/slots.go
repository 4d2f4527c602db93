package engine

import "fmt"

// SlotRow is the fixed-length ordered row of slots for a round
type SlotRow []Slot

// NewSlotRow creates n EMPTY slots
func NewSlotRow(n int) SlotRow {
	row := make(SlotRow, n)
	for i := range row {
		row[i] = Slot{Index: i, State: SlotEmpty}
	}
	return row
}

func (r SlotRow) emptyAt(index int) error {
	if index < 0 || index >= len(r) {
		return fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidSlot, index, len(r))
	}
	if r[index].State != SlotEmpty {
		return fmt.Errorf("%w: slot %d is %s", ErrInvalidSlot, index, r[index].State)
	}
	return nil
}

// PlaceOpen fills an EMPTY slot with a known card
func (r SlotRow) PlaceOpen(index int, card Card) error {
	if err := r.emptyAt(index); err != nil {
		return err
	}
	r[index].State = SlotOpen
	r[index].Value = card.Value
	return nil
}

// PlaceBlind commits two face-down candidates into an EMPTY slot
func (r SlotRow) PlaceBlind(index int, cards []Card) error {
	if len(cards) != BlindDrawSize {
		return fmt.Errorf("%w: blind placement needs %d cards, got %d", ErrInsufficientCards, BlindDrawSize, len(cards))
	}
	if err := r.emptyAt(index); err != nil {
		return err
	}
	r[index].State = SlotBlindPending
	r[index].BlindCandidates = append([]Card(nil), cards...)
	return nil
}

// ResolveBlind picks one of the candidates of a BLIND_PENDING slot
func (r SlotRow) ResolveBlind(index int, chosenValue int) error {
	if index < 0 || index >= len(r) {
		return fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidSlot, index, len(r))
	}
	slot := &r[index]
	if slot.State != SlotBlindPending {
		return fmt.Errorf("%w: slot %d is %s", ErrInvalidSlot, index, slot.State)
	}
	for _, c := range slot.BlindCandidates {
		if c.Value == chosenValue {
			slot.State = SlotBlindResolved
			slot.Value = chosenValue
			slot.SelectedValue = chosenValue
			return nil
		}
	}
	return fmt.Errorf("%w: %d is not a candidate of slot %d", ErrInvalidChoice, chosenValue, index)
}

// IsComplete is true when every slot is OPEN or BLIND_RESOLVED
func (r SlotRow) IsComplete() bool {
	for _, s := range r {
		if s.State != SlotOpen && s.State != SlotBlindResolved {
			return false
		}
	}
	return true
}

// IsFilled is true when no slot is EMPTY. Pending blinds count as filled.
func (r SlotRow) IsFilled() bool {
	for _, s := range r {
		if s.State == SlotEmpty {
			return false
		}
	}
	return true
}

// HasPendingBlind is true when any slot awaits resolution
func (r SlotRow) HasPendingBlind() bool {
	for _, s := range r {
		if s.State == SlotBlindPending {
			return true
		}
	}
	return false
}

// EmptyIndexes lists the indexes that can still take a card
func (r SlotRow) EmptyIndexes() []int {
	var out []int
	for _, s := range r {
		if s.State == SlotEmpty {
			out = append(out, s.Index)
		}
	}
	return out
}

// IsNonDecreasing scans effective values left to right starting from 0
func (r SlotRow) IsNonDecreasing() bool {
	prev := 0
	for _, s := range r {
		v := s.Effective()
		if v < prev {
			return false
		}
		prev = v
	}
	return true
}

// Clone returns a deep copy
func (r SlotRow) Clone() SlotRow {
	out := make(SlotRow, len(r))
	for i, s := range r {
		out[i] = s
		if s.BlindCandidates != nil {
			out[i].BlindCandidates = append([]Card(nil), s.BlindCandidates...)
		}
	}
	return out
}
