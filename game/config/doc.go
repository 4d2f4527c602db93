// Package config provides rule set management for the round engine.
//
// The config package handles:
//   - Loading rule sets from JSON or YAML files
//   - Validation through engine.ValidateRuleSet
//   - Default rule set selection
//   - Rule set discovery and listing
//
// Configuration Format:
//
// Rule sets live in the configs directory as .json, .yaml or .yml files.
// Each one defines:
//   - Tiers: slot count, deck size and entry cost
//   - Shop items and their kinds (consumable, passive, soulbound)
//   - Sacrifice budgets for regular rounds and the tutorial
//   - Payout knobs: blind multiplier and small bet bonus
//   - Meta economy: starting chips, freedom cost, loadout unlock costs
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rules, err := manager.LoadConfig("generous")
//	defaultRules := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default is classic when present, else the first valid file, else the
// built-in engine.DefaultRuleSet.
package config
