// Package validate lints rule-set files. It checks:
//   - JSON or YAML structure and required fields (engine.ValidateRuleSet)
//   - That a new player can afford at least one tier
//   - That the tutorial script can be completed with the configured sacrifices
//   - That the freedom contract price matches freedom_cost
//   - Shop items whose IDs the round engine does not know (warnings)
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/tutorial"
)

// Result captures the outcome of validating a single file.
// Errors make the file invalid; Warnings and Info are reported only.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

var knownItems = map[string]bool{
	engine.ItemFreedomContract: true,
	engine.ItemJackpotAmulet:   true,
	engine.ItemExpansionChip:   true,
	engine.ItemExtraSacrifice:  true,
	engine.ItemVoidGoggles:     true,
	engine.ItemSmallBet:        true,
}

// File loads and validates a single rule-set file
func File(path string) Result {
	result := Result{File: filepath.Base(path), Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	rules, err := engine.ParseRuleSet(path, data)
	if err != nil {
		result.fail("Invalid %s: %v", formatOf(path), err)
		return result
	}

	if err := engine.ValidateRuleSet(rules); err != nil {
		result.fail("%v", err)
		return result
	}

	checkPlayability(rules, &result)

	if result.Valid {
		result.Info = append(result.Info,
			fmt.Sprintf("Name: %s", rules.Name),
			fmt.Sprintf("Tiers: %d", len(rules.Tiers)),
			fmt.Sprintf("Items: %d", len(rules.Items)),
			fmt.Sprintf("Starting chips: %d, freedom at %d", rules.InitialChips, rules.FreedomCost),
		)
	}
	return result
}

// Dir validates every rule-set file in dir, sorted by name
func Dir(dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, f := range files {
		results = append(results, File(f))
	}
	return results, nil
}

// WriteReport prints a concise report and returns true when every file is valid
func WriteReport(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  ✓ "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warn := range result.Warnings {
			fmt.Fprintln(w, "  ⚠ "+warn)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No rule-set files found")
	case allValid:
		fmt.Fprintln(w, "✅ All rule sets are valid!")
	default:
		fmt.Fprintln(w, "❌ Some rule sets have errors")
	}
	return allValid
}

func checkPlayability(rules *engine.RuleSet, result *Result) {
	// The tutorial pays out before the first paid round
	budget := rules.InitialChips + rules.TutorialReward
	cheapest := -1
	for _, t := range rules.Tiers {
		if cheapest < 0 || t.Cost < cheapest {
			cheapest = t.Cost
		}
	}
	if cheapest > budget {
		result.fail("no tier is affordable: cheapest costs %d, a new player has at most %d", cheapest, budget)
	}

	needed := 0
	for _, step := range tutorial.DefaultScript() {
		if step.Required == engine.ActionSacrifice {
			needed++
		}
	}
	if rules.TutorialSacrifices < needed {
		result.fail("tutorial_sacrifices must be at least %d to finish the tutorial, got %d", needed, rules.TutorialSacrifices)
	}

	if def, ok := rules.Item(engine.ItemFreedomContract); ok && def.Cost != rules.FreedomCost {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("freedom_contract costs %d but freedom_cost is %d", def.Cost, rules.FreedomCost))
	}

	for _, it := range rules.Items {
		if !knownItems[it.ID] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("item '%s' has no effect in the round engine", it.ID))
		}
		if it.Kind == engine.ItemSoulbound && !it.Soulbound {
			result.Warnings = append(result.Warnings, fmt.Sprintf("item '%s' is kind soulbound but soulbound is false", it.ID))
		}
	}
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "YAML"
	default:
		return "JSON"
	}
}
