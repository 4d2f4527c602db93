package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotRowLifecycle(t *testing.T) {
	t.Run("open placement is terminal", func(t *testing.T) {
		row := NewSlotRow(3)
		require.NoError(t, row.PlaceOpen(0, NumberCard(4)))
		assert.Equal(t, SlotOpen, row[0].State)
		assert.Equal(t, 4, row[0].Value)

		assert.ErrorIs(t, row.PlaceOpen(0, NumberCard(5)), ErrInvalidSlot)
		assert.ErrorIs(t, row.PlaceBlind(0, []Card{NumberCard(1), NumberCard(2)}), ErrInvalidSlot)
		assert.ErrorIs(t, row.ResolveBlind(0, 4), ErrInvalidSlot)
		assert.Equal(t, 4, row[0].Value)
	})

	t.Run("blind goes pending then resolved", func(t *testing.T) {
		row := NewSlotRow(2)
		require.NoError(t, row.PlaceBlind(1, []Card{NumberCard(10), NumberCard(12)}))
		assert.Equal(t, SlotBlindPending, row[1].State)
		assert.Equal(t, 0, row[1].Value)
		assert.True(t, row.HasPendingBlind())

		assert.ErrorIs(t, row.PlaceOpen(1, NumberCard(3)), ErrInvalidSlot)

		err := row.ResolveBlind(1, 11)
		assert.ErrorIs(t, err, ErrInvalidChoice)
		assert.Equal(t, SlotBlindPending, row[1].State)

		require.NoError(t, row.ResolveBlind(1, 12))
		assert.Equal(t, SlotBlindResolved, row[1].State)
		assert.Equal(t, 12, row[1].Value)
		assert.Equal(t, 12, row[1].SelectedValue)
		assert.False(t, row.HasPendingBlind())

		assert.ErrorIs(t, row.ResolveBlind(1, 10), ErrInvalidSlot)
	})

	t.Run("out of range indexes", func(t *testing.T) {
		row := NewSlotRow(2)
		assert.ErrorIs(t, row.PlaceOpen(-1, NumberCard(1)), ErrInvalidSlot)
		assert.ErrorIs(t, row.PlaceOpen(2, NumberCard(1)), ErrInvalidSlot)
		assert.ErrorIs(t, row.ResolveBlind(5, 1), ErrInvalidSlot)
	})
}

func TestSlotRowCompleteness(t *testing.T) {
	row := NewSlotRow(2)
	assert.False(t, row.IsFilled())
	assert.False(t, row.IsComplete())

	require.NoError(t, row.PlaceOpen(0, NumberCard(1)))
	require.NoError(t, row.PlaceBlind(1, []Card{NumberCard(2), NumberCard(3)}))
	assert.True(t, row.IsFilled())
	assert.False(t, row.IsComplete())

	require.NoError(t, row.ResolveBlind(1, 3))
	assert.True(t, row.IsComplete())
}

func TestSlotRowVerdict(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   bool
	}{
		{"ties allowed", []int{3, 5, 5, 8}, true},
		{"one drop breaks it", []int{3, 5, 4, 8}, false},
		{"strictly increasing", []int{1, 2, 3, 4}, true},
		{"descending", []int{9, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewSlotRow(len(tt.values))
			for i, v := range tt.values {
				require.NoError(t, row.PlaceOpen(i, NumberCard(v)))
			}
			assert.Equal(t, tt.want, row.IsNonDecreasing())
		})
	}

	t.Run("resolved blinds use the selected value", func(t *testing.T) {
		row := NewSlotRow(3)
		require.NoError(t, row.PlaceOpen(0, NumberCard(3)))
		require.NoError(t, row.PlaceBlind(1, []Card{NumberCard(2), NumberCard(7)}))
		require.NoError(t, row.PlaceOpen(2, NumberCard(8)))

		good := row.Clone()
		require.NoError(t, good.ResolveBlind(1, 7))
		assert.True(t, good.IsNonDecreasing())

		bad := row.Clone()
		require.NoError(t, bad.ResolveBlind(1, 2))
		assert.False(t, bad.IsNonDecreasing())

		assert.Equal(t, SlotBlindPending, row[1].State, "clones must not share slot state")
	})
}

func TestProfit(t *testing.T) {
	row := NewSlotRow(3)
	require.NoError(t, row.PlaceOpen(0, NumberCard(2)))
	require.NoError(t, row.PlaceOpen(1, NumberCard(4)))
	require.NoError(t, row.PlaceBlind(2, []Card{NumberCard(10), NumberCard(11)}))
	require.NoError(t, row.ResolveBlind(2, 10))

	assert.Equal(t, 56, Profit(row, Modifiers{}))
	assert.Equal(t, 56, Profit(row, Modifiers{BlindMultiplier: 5}))
	assert.Equal(t, 106, Profit(row, Modifiers{SmallBet: true}))
	assert.Equal(t, 76, Profit(row, Modifiers{SmallBet: true, SmallBetBonus: 20}))
}

func TestBudget(t *testing.T) {
	t.Run("floor at zero", func(t *testing.T) {
		b := NewBudget(0, false)
		_, err := b.Spend()
		assert.ErrorIs(t, err, ErrNoSacrifices)
		assert.Equal(t, 0, b.Remaining)
	})

	t.Run("extra charge is spent first", func(t *testing.T) {
		b := NewBudget(1, true)
		require.Equal(t, 2, b.Remaining)

		extra, err := b.Spend()
		require.NoError(t, err)
		assert.True(t, extra)

		extra, err = b.Spend()
		require.NoError(t, err)
		assert.False(t, extra)

		_, err = b.Spend()
		assert.ErrorIs(t, err, ErrNoSacrifices)
		assert.Equal(t, 0, b.Remaining)
	})
}
