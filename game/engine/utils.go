package engine

// IsMoveDangerous reports whether putting value at index would break the
// sequence against the nearest filled neighbours. Pending blinds are ignored
// since their value is not known yet.
func IsMoveDangerous(row SlotRow, index, value int) bool {
	if index < 0 || index >= len(row) {
		return true
	}
	for i := index - 1; i >= 0; i-- {
		if v := known(row[i]); v > 0 {
			if value < v {
				return true
			}
			break
		}
	}
	for i := index + 1; i < len(row); i++ {
		if v := known(row[i]); v > 0 {
			if value > v {
				return true
			}
			break
		}
	}
	return false
}

func known(s Slot) int {
	switch s.State {
	case SlotOpen, SlotBlindResolved:
		return s.Effective()
	}
	return 0
}

// PlacedValues returns the known values of the row in order, skipping empty
// and pending slots
func PlacedValues(row SlotRow) []int {
	var out []int
	for _, s := range row {
		if v := known(s); v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// BestSlotFor picks the empty slot whose neighbours leave the most room for
// value, scaled against the highest card that can appear. Returns -1 when no
// safe slot exists.
func BestSlotFor(row SlotRow, value, maxValue int) int {
	if maxValue <= 0 {
		maxValue = value
	}
	best, bestScore := -1, -1<<31
	empty := row.EmptyIndexes()
	for _, i := range empty {
		if IsMoveDangerous(row, i, value) {
			continue
		}
		// ideal position is proportional to the value within the range
		ideal := (value * len(row)) / (maxValue + 1)
		score := -abs(i - ideal)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
