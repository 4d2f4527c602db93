package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// RNG is the randomness source used for shuffling
type RNG interface {
	Intn(n int) int
}

// NewRNG returns a seeded math/rand source
func NewRNG(seed int64) RNG {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSeededRNG returns an RNG seeded from the wall clock
func NewTimeSeededRNG() RNG {
	return NewRNG(time.Now().UnixNano())
}

// Deck is an ordered sequence of cards; index 0 is the next draw.
// The contents are unexported so only the front can be observed.
type Deck struct {
	cards []Card
}

// NewDeck builds a deck in exactly the given order (no shuffle)
func NewDeck(cards ...Card) Deck {
	d := Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// NumberCard builds the regular card for a value
func NumberCard(value int) Card {
	return Card{ID: fmt.Sprintf("card-%d", value), Value: value}
}

// JackpotCard builds the jackpot card
func JackpotCard() Card {
	return Card{ID: fmt.Sprintf("jackpot-%d", JackpotValue), Value: JackpotValue, IsJackpot: true}
}

// GenerateDeck builds cards valued 1..N where N = tier.DeckSize + expansionBonus,
// optionally appends the jackpot card, then shuffles once.
func GenerateDeck(tier TierConfig, expansionBonus int, includeJackpot bool, rng RNG) Deck {
	n := tier.DeckSize + expansionBonus
	if n < 0 {
		n = 0
	}
	cards := make([]Card, 0, n+1)
	for v := 1; v <= n; v++ {
		cards = append(cards, NumberCard(v))
	}
	if includeJackpot {
		cards = append(cards, JackpotCard())
	}
	Shuffle(cards, rng)
	return Deck{cards: cards}
}

// Shuffle is an in-place Fisher-Yates shuffle
func Shuffle(cards []Card, rng RNG) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Len returns the number of cards left
func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw removes and returns the front card. ok is false when the deck is empty.
func (d *Deck) Draw() (card Card, ok bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card = d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DrawMany removes n cards from the front, or none at all
func (d *Deck) DrawMany(n int) ([]Card, error) {
	if n < 0 || len(d.cards) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCards, n, len(d.cards))
	}
	drawn := make([]Card, n)
	copy(drawn, d.cards[:n])
	d.cards = d.cards[n:]
	return drawn, nil
}

// PeekFront returns a copy of up to n cards from the front without consuming them
func (d *Deck) PeekFront(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	if n <= 0 {
		return []Card{}
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	return out
}

// Clone returns an independent copy
func (d Deck) Clone() Deck {
	return NewDeck(d.cards...)
}

type deckView struct {
	Remaining int `json:"remaining"`
}

// MarshalJSON exposes only the remaining count
func (d Deck) MarshalJSON() ([]byte, error) {
	return json.Marshal(deckView{Remaining: len(d.cards)})
}
