package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidRuleSet() *RuleSet {
	rules := DefaultRuleSet()
	rules.Name = "Test Rules"
	rules.Description = "A valid test rule set"
	return rules
}

func TestValidateRuleSet(t *testing.T) {
	t.Run("valid rule set", func(t *testing.T) {
		if err := ValidateRuleSet(createValidRuleSet()); err != nil {
			t.Errorf("Expected valid rule set to pass validation, got: %v", err)
		}
	})

	t.Run("default rule set is valid", func(t *testing.T) {
		if err := ValidateRuleSet(DefaultRuleSet()); err != nil {
			t.Errorf("Expected default rule set to be valid, got: %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(r *RuleSet)
		wantErr string
	}{
		{"missing name", func(r *RuleSet) { r.Name = "" }, "name is required"},
		{"missing description", func(r *RuleSet) { r.Description = "" }, "description is required"},
		{"negative sacrifices", func(r *RuleSet) { r.BaseSacrifices = -1 }, "base_sacrifices"},
		{"zero multiplier", func(r *RuleSet) { r.BlindMultiplier = 0 }, "blind_multiplier"},
		{"unlock costs mismatch", func(r *RuleSet) { r.SlotUnlockCosts = []int{0} }, "slot_unlock_costs"},
		{"no tiers", func(r *RuleSet) { r.Tiers = nil }, "at least one tier"},
		{"duplicate tier", func(r *RuleSet) { r.Tiers = append(r.Tiers, r.Tiers[0]) }, "duplicate tier"},
		{"unwinnable tier", func(r *RuleSet) { r.Tiers[0].DeckSize = 2 }, "unwinnable"},
		{"too many slots", func(r *RuleSet) { r.Tiers[0].Slots = MaxSlots + 1 }, "slots must be between"},
		{"bad item kind", func(r *RuleSet) { r.Items[1].Kind = "magic" }, "invalid kind"},
		{"no freedom contract", func(r *RuleSet) { r.Items = r.Items[1:] }, ItemFreedomContract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := createValidRuleSet()
			tt.mutate(rules)
			err := ValidateRuleSet(rules)
			if err == nil {
				t.Fatalf("Expected validation error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadRuleSet(t *testing.T) {
	dir := t.TempDir()

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(dir, "rules.json")
		content := `{
			"name": "json rules",
			"description": "loaded from json",
			"base_sacrifices": 2,
			"tutorial_sacrifices": 3,
			"blind_multiplier": 4,
			"small_bet_bonus": 10,
			"expansion_step": 5,
			"initial_chips": 40,
			"freedom_cost": 500,
			"max_loadout_slots": 2,
			"slot_unlock_costs": [0, 25],
			"tutorial_reward": 50,
			"tiers": [{"id": "easy", "name": "Easy", "cost": 0, "slots": 3, "deck_size": 10}],
			"items": [{"id": "freedom_contract", "name": "Out", "description": "Leave", "cost": 500, "kind": "soulbound", "soulbound": true}]
		}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write rule set: %v", err)
		}

		rules, err := LoadRuleSet(path)
		if err != nil {
			t.Fatalf("Failed to load rule set: %v", err)
		}
		if rules.BlindMultiplier != 4 {
			t.Errorf("Expected blind multiplier 4, got %d", rules.BlindMultiplier)
		}
		if tier, ok := rules.Tier("easy"); !ok || tier.DeckSize != 10 {
			t.Errorf("Expected tier 'easy' with deck size 10, got %+v (found=%v)", tier, ok)
		}
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(dir, "rules.yaml")
		content := `name: yaml rules
description: loaded from yaml
base_sacrifices: 1
tutorial_sacrifices: 3
blind_multiplier: 5
small_bet_bonus: 50
expansion_step: 5
initial_chips: 40
freedom_cost: 800
max_loadout_slots: 1
slot_unlock_costs: [0]
tutorial_reward: 50
tiers:
  - id: only
    name: Only
    cost: 0
    slots: 4
    deck_size: 15
items:
  - id: freedom_contract
    name: Freedom
    description: Leave
    cost: 800
    kind: soulbound
    soulbound: true
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write rule set: %v", err)
		}

		rules, err := LoadRuleSet(path)
		if err != nil {
			t.Fatalf("Failed to load yaml rule set: %v", err)
		}
		if rules.Name != "yaml rules" {
			t.Errorf("Expected name 'yaml rules', got %q", rules.Name)
		}
		if len(rules.Tiers) != 1 || rules.Tiers[0].Slots != 4 {
			t.Errorf("Expected one tier with 4 slots, got %+v", rules.Tiers)
		}
	})

	t.Run("invalid file is rejected", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		if err := os.WriteFile(path, []byte(`{"name": "x"}`), 0644); err != nil {
			t.Fatalf("Failed to write rule set: %v", err)
		}
		if _, err := LoadRuleSet(path); err == nil {
			t.Error("Expected validation error for incomplete rule set")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRuleSet(filepath.Join(dir, "nope.json")); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}
