package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidateRuleSet validates a rule set for correctness and playability
func ValidateRuleSet(rules *RuleSet) error {
	if rules == nil {
		return fmt.Errorf("config validation: rule set is nil")
	}
	if rules.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if rules.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if rules.BaseSacrifices < 0 || rules.BaseSacrifices > MaxSacrifices {
		return fmt.Errorf("config validation: base_sacrifices must be between 0 and %d, got %d", MaxSacrifices, rules.BaseSacrifices)
	}
	if rules.TutorialSacrifices < 0 || rules.TutorialSacrifices > MaxSacrifices {
		return fmt.Errorf("config validation: tutorial_sacrifices must be between 0 and %d, got %d", MaxSacrifices, rules.TutorialSacrifices)
	}
	if rules.BlindMultiplier < 1 {
		return fmt.Errorf("config validation: blind_multiplier must be at least 1, got %d", rules.BlindMultiplier)
	}
	if rules.SmallBetBonus < 0 || rules.ExpansionStep < 0 || rules.TutorialReward < 0 {
		return fmt.Errorf("config validation: small_bet_bonus, expansion_step and tutorial_reward cannot be negative")
	}
	if rules.InitialChips < 0 {
		return fmt.Errorf("config validation: initial_chips cannot be negative, got %d", rules.InitialChips)
	}
	if rules.FreedomCost < 1 {
		return fmt.Errorf("config validation: freedom_cost must be positive, got %d", rules.FreedomCost)
	}

	// Loadout slots: one unlock cost per slot, first one free
	if rules.MaxLoadoutSlots < 1 {
		return fmt.Errorf("config validation: max_loadout_slots must be at least 1, got %d", rules.MaxLoadoutSlots)
	}
	if len(rules.SlotUnlockCosts) != rules.MaxLoadoutSlots {
		return fmt.Errorf("config validation: slot_unlock_costs must have %d entries to match max_loadout_slots, got %d",
			rules.MaxLoadoutSlots, len(rules.SlotUnlockCosts))
	}
	for i, c := range rules.SlotUnlockCosts {
		if c < 0 {
			return fmt.Errorf("config validation: slot_unlock_costs[%d] cannot be negative", i)
		}
	}

	// Tiers
	if len(rules.Tiers) == 0 {
		return fmt.Errorf("config validation: at least one tier is required")
	}
	seenTiers := make(map[string]bool)
	for i, t := range rules.Tiers {
		if t.ID == "" {
			return fmt.Errorf("config validation: tier %d is missing an id", i+1)
		}
		if seenTiers[t.ID] {
			return fmt.Errorf("config validation: duplicate tier id '%s'", t.ID)
		}
		seenTiers[t.ID] = true
		if t.Slots < MinSlots || t.Slots > MaxSlots {
			return fmt.Errorf("config validation: tier '%s' slots must be between %d and %d, got %d", t.ID, MinSlots, MaxSlots, t.Slots)
		}
		if t.DeckSize < MinDeckSize || t.DeckSize > MaxDeckSize {
			return fmt.Errorf("config validation: tier '%s' deck_size must be between %d and %d, got %d", t.ID, MinDeckSize, MaxDeckSize, t.DeckSize)
		}
		// A tier must be able to fill its row without any sacrifice
		if t.DeckSize < t.Slots {
			return fmt.Errorf("config validation: tier '%s' is unwinnable - deck_size %d is smaller than slots %d", t.ID, t.DeckSize, t.Slots)
		}
		if t.Cost < 0 {
			return fmt.Errorf("config validation: tier '%s' cost cannot be negative", t.ID)
		}
	}

	// Items
	seenItems := make(map[string]bool)
	hasFreedom := false
	for i, it := range rules.Items {
		if it.ID == "" {
			return fmt.Errorf("config validation: item %d is missing an id", i+1)
		}
		if seenItems[it.ID] {
			return fmt.Errorf("config validation: duplicate item id '%s'", it.ID)
		}
		seenItems[it.ID] = true
		switch it.Kind {
		case ItemConsumable, ItemPassive, ItemSoulbound:
		default:
			return fmt.Errorf("config validation: item '%s' has invalid kind '%s'", it.ID, it.Kind)
		}
		if it.Cost < 0 {
			return fmt.Errorf("config validation: item '%s' cost cannot be negative", it.ID)
		}
		if it.ID == ItemFreedomContract {
			hasFreedom = true
		}
	}
	if !hasFreedom {
		return fmt.Errorf("config validation: items must include '%s'", ItemFreedomContract)
	}

	return nil
}

// ParseRuleSet decodes a rule set, choosing YAML or JSON from the file extension
func ParseRuleSet(filename string, data []byte) (*RuleSet, error) {
	var rules RuleSet
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &rules); err != nil {
			return nil, err
		}
	}
	return &rules, nil
}

// LoadRuleSet loads and validates a rule set file
func LoadRuleSet(filename string) (*RuleSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	rules, err := ParseRuleSet(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule set '%s': %w", filename, err)
	}

	if err := ValidateRuleSet(rules); err != nil {
		return nil, err
	}

	return rules, nil
}

// DefaultRuleSet returns the built-in classic rules
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Name:               "classic",
		Description:        "Three tiers, the full shop and the original payouts",
		BaseSacrifices:     1,
		TutorialSacrifices: 3,
		BlindMultiplier:    DefaultBlindMultiplier,
		SmallBetBonus:      DefaultSmallBetBonus,
		ExpansionStep:      5,
		InitialChips:       40,
		FreedomCost:        800,
		MaxLoadoutSlots:    5,
		SlotUnlockCosts:    []int{0, 50, 100, 200, 500},
		TutorialReward:     50,
		Tiers: []TierConfig{
			{ID: "tier_1", Name: "Outer Rim", Subtext: "4 slots, 15 cards", Cost: 0, Slots: 4, DeckSize: 15},
			{ID: "tier_2", Name: "Deep Void", Subtext: "5 slots, 20 cards", Cost: 50, Slots: 5, DeckSize: 20},
			{ID: "tier_3", Name: "Abyss", Subtext: "6 slots, 30 cards", Cost: 100, Slots: 6, DeckSize: 30},
		},
		Items: []ItemDef{
			{ID: ItemFreedomContract, Name: "Freedom Contract", Description: "Buy your way out. Ends the game in victory.", Cost: 800, Kind: ItemSoulbound, Soulbound: true},
			{ID: ItemJackpotAmulet, Name: "Jackpot Amulet", Description: "Adds a 100 card to every deck.", Cost: 100, Kind: ItemPassive, Soulbound: true},
			{ID: ItemExpansionChip, Name: "Expansion Chip", Description: "Adds 5 cards to the deck.", Cost: 30, Kind: ItemPassive},
			{ID: ItemExtraSacrifice, Name: "Spare Sacrifice", Description: "One extra sacrifice for the round.", Cost: 5, Kind: ItemConsumable},
			{ID: ItemVoidGoggles, Name: "Void Goggles", Description: "Peek at the next two cards once.", Cost: 100, Kind: ItemConsumable},
			{ID: ItemSmallBet, Name: "Small Bet", Description: "Pays 50 extra chips on a win.", Cost: 30, Kind: ItemConsumable},
		},
	}
}
