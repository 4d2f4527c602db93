// Package profile holds the player's meta state between rounds: chips, the
// warehouse of owned items, the equipped loadout and its unlocked slots.
//
// A Profile turns a loadout into round start parameters and applies the round
// outcome back: profit on a win, consumed charges, and the loss of every
// non-soulbound loadout item when a round is lost.
package profile

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wricardo/mask-the-sequence/game/engine"
)

var (
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrUnknownItem       = errors.New("unknown item")
	ErrItemNotOwned      = errors.New("item not owned")
	ErrLoadoutFull       = errors.New("loadout is full")
	ErrAllSlotsUnlocked  = errors.New("all loadout slots are unlocked")
	ErrUnknownTier       = errors.New("unknown tier")
	ErrRoundActive       = errors.New("a round is already active")
	ErrNoActiveRound     = errors.New("no active round")
	ErrAlreadyFree       = errors.New("freedom already purchased")
)

// InventoryItem is one owned instance of a catalog item
type InventoryItem struct {
	UID       string          `json:"uid"`
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Kind      engine.ItemKind `json:"kind"`
	Soulbound bool            `json:"soulbound"`
}

// Profile is the persistent-for-the-session player state
type Profile struct {
	Chips         int             `json:"chips"`
	Runs          int             `json:"runs"`
	HasWon        bool            `json:"has_won"`
	UnlockedSlots int             `json:"unlocked_slots"`
	Warehouse     []InventoryItem `json:"warehouse"`
	Loadout       []InventoryItem `json:"loadout"`
	ActiveTier    string          `json:"active_tier,omitempty"`
	TutorialDone  bool            `json:"tutorial_done"`

	newID func() string
}

// New creates a fresh profile for the rule set
func New(rules *engine.RuleSet) *Profile {
	return &Profile{
		Chips:         rules.InitialChips,
		UnlockedSlots: 1,
		Warehouse:     []InventoryItem{},
		Loadout:       []InventoryItem{},
		newID:         uuid.NewString,
	}
}

// Clone returns a deep copy safe to hand to callers
func (p *Profile) Clone() *Profile {
	out := *p
	out.Warehouse = append([]InventoryItem{}, p.Warehouse...)
	out.Loadout = append([]InventoryItem{}, p.Loadout...)
	return &out
}

// Buy purchases a catalog item into the warehouse. Buying the freedom
// contract ends the game in victory instead and returns a nil item.
func (p *Profile) Buy(rules *engine.RuleSet, itemID string) (*InventoryItem, error) {
	def, ok := rules.Item(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}

	if def.ID == engine.ItemFreedomContract {
		if p.HasWon {
			return nil, ErrAlreadyFree
		}
		cost := rules.FreedomCost
		if cost == 0 {
			cost = def.Cost
		}
		if p.Chips < cost {
			return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientChips, cost, p.Chips)
		}
		p.Chips -= cost
		p.HasWon = true
		return nil, nil
	}

	if p.Chips < def.Cost {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientChips, def.Cost, p.Chips)
	}
	p.Chips -= def.Cost

	item := InventoryItem{
		UID:       p.id(),
		ItemID:    def.ID,
		Name:      def.Name,
		Kind:      def.Kind,
		Soulbound: def.Soulbound,
	}
	p.Warehouse = append(p.Warehouse, item)
	return &item, nil
}

// Equip moves an item from the warehouse into the loadout
func (p *Profile) Equip(uid string) error {
	if p.ActiveTier != "" {
		return ErrRoundActive
	}
	idx := indexOf(p.Warehouse, uid)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotOwned, uid)
	}
	if len(p.Loadout) >= p.UnlockedSlots {
		return ErrLoadoutFull
	}
	item := p.Warehouse[idx]
	p.Warehouse = append(p.Warehouse[:idx:idx], p.Warehouse[idx+1:]...)
	p.Loadout = append(p.Loadout, item)
	return nil
}

// Unequip moves an item from the loadout back to the warehouse
func (p *Profile) Unequip(uid string) error {
	if p.ActiveTier != "" {
		return ErrRoundActive
	}
	idx := indexOf(p.Loadout, uid)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotOwned, uid)
	}
	item := p.Loadout[idx]
	p.Loadout = append(p.Loadout[:idx:idx], p.Loadout[idx+1:]...)
	p.Warehouse = append(p.Warehouse, item)
	return nil
}

// UnlockSlot buys the next loadout slot and returns what it cost
func (p *Profile) UnlockSlot(rules *engine.RuleSet) (int, error) {
	if p.UnlockedSlots >= rules.MaxLoadoutSlots || p.UnlockedSlots >= len(rules.SlotUnlockCosts) {
		return 0, ErrAllSlotsUnlocked
	}
	cost := rules.SlotUnlockCosts[p.UnlockedSlots]
	if p.Chips < cost {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficientChips, cost, p.Chips)
	}
	p.Chips -= cost
	p.UnlockedSlots++
	return cost, nil
}

// PrepareRound pays the tier cost, locks the loadout and derives the start
// parameters from it
func (p *Profile) PrepareRound(rules *engine.RuleSet, tierID string) (engine.StartParams, error) {
	if p.ActiveTier != "" {
		return engine.StartParams{}, ErrRoundActive
	}
	tier, ok := rules.Tier(tierID)
	if !ok {
		return engine.StartParams{}, fmt.Errorf("%w: %s", ErrUnknownTier, tierID)
	}
	if p.Chips < tier.Cost {
		return engine.StartParams{}, fmt.Errorf("%w: tier %s costs %d, have %d", ErrInsufficientChips, tier.ID, tier.Cost, p.Chips)
	}

	p.Chips -= tier.Cost
	p.ActiveTier = tier.ID

	return engine.StartParams{
		TierSlots:             tier.Slots,
		TierDeckSize:          tier.DeckSize,
		ExpansionBonus:        p.count(engine.ItemExpansionChip) * rules.ExpansionStep,
		IncludeJackpot:        p.has(engine.ItemJackpotAmulet),
		BaseSacrifices:        rules.BaseSacrifices,
		ExtraSacrificeGranted: p.has(engine.ItemExtraSacrifice),
		SmallBetGranted:       p.has(engine.ItemSmallBet),
		GogglesGranted:        p.has(engine.ItemVoidGoggles),
		BlindMultiplier:       rules.BlindMultiplier,
		SmallBetBonus:         rules.SmallBetBonus,
	}, nil
}

// CancelRound releases the active tier and refunds its cost. Used when a
// prepared round could not be started.
func (p *Profile) CancelRound(rules *engine.RuleSet) {
	if p.ActiveTier == "" {
		return
	}
	if tier, ok := rules.Tier(p.ActiveTier); ok {
		p.Chips += tier.Cost
	}
	p.ActiveTier = ""
}

// ApplyOutcome settles a finished round against the profile
func (p *Profile) ApplyOutcome(o engine.Outcome) error {
	if p.ActiveTier == "" {
		return ErrNoActiveRound
	}
	p.ActiveTier = ""

	if o.ConsumedExtraSacrifice {
		p.consume(engine.ItemExtraSacrifice)
	}
	if o.ConsumedGoggles {
		p.consume(engine.ItemVoidGoggles)
	}

	if o.Won {
		p.Chips += o.Profit
		p.Runs++
		if o.ConsumedSmallBet {
			p.consume(engine.ItemSmallBet)
		}
		return nil
	}

	kept := p.Loadout[:0:0]
	for _, it := range p.Loadout {
		if it.Soulbound {
			kept = append(kept, it)
		}
	}
	p.Loadout = kept
	return nil
}

// ApplyTutorialOutcome pays the training reward once
func (p *Profile) ApplyTutorialOutcome(rules *engine.RuleSet, won bool) int {
	if p.TutorialDone {
		return 0
	}
	p.TutorialDone = true
	if !won {
		return 0
	}
	p.Chips += rules.TutorialReward
	return rules.TutorialReward
}

// IsBankrupt reports whether no tier can be afforded and no round is running
func (p *Profile) IsBankrupt(rules *engine.RuleSet) bool {
	if p.ActiveTier != "" {
		return false
	}
	for _, t := range rules.Tiers {
		if t.Cost <= p.Chips {
			return false
		}
	}
	return true
}

func (p *Profile) has(itemID string) bool {
	return p.count(itemID) > 0
}

func (p *Profile) count(itemID string) int {
	n := 0
	for _, it := range p.Loadout {
		if it.ItemID == itemID {
			n++
		}
	}
	return n
}

// consume removes one loadout instance of the item
func (p *Profile) consume(itemID string) bool {
	for i, it := range p.Loadout {
		if it.ItemID == itemID {
			p.Loadout = append(p.Loadout[:i:i], p.Loadout[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Profile) id() string {
	if p.newID == nil {
		return uuid.NewString()
	}
	return p.newID()
}

func indexOf(items []InventoryItem, uid string) int {
	for i, it := range items {
		if it.UID == uid {
			return i
		}
	}
	return -1
}
