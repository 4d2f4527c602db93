// Command analyze plays simulated rounds against every tier of the rule sets
// in the configs directory and prints win rates and expected profit per tier.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/sim"
)

type options struct {
	path   string
	rounds int
	seed   int64
	bot    string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	files, err := ruleSetFiles(opts.path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no rule-set files found in %s", opts.path)
	}

	bot, err := sim.BotByName(opts.bot, opts.seed)
	if err != nil {
		return err
	}

	for _, file := range files {
		fmt.Fprintf(out, "\n=== Analyzing %s ===\n", filepath.Base(file))
		rules, err := engine.LoadRuleSet(file)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if err := analyzeRuleSet(out, rules, opts.rounds, opts.seed, bot); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
	return nil
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.StringVar(&opts.path, "config", "configs", "Rule-set file or directory")
	fs.IntVar(&opts.rounds, "rounds", 1000, "Rounds to simulate per tier")
	fs.Int64Var(&opts.seed, "seed", 1, "First seed")
	fs.StringVar(&opts.bot, "bot", "greedy", "Bot strategy (greedy, random)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.rounds < 1 {
		return opts, fmt.Errorf("rounds must be positive, got %d", opts.rounds)
	}
	return opts, nil
}

// ruleSetFiles expands path into the rule-set files it names
func ruleSetFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func analyzeRuleSet(out io.Writer, rules *engine.RuleSet, rounds int, seed int64, bot sim.Bot) error {
	fmt.Fprintf(out, "Name: %s\n", rules.Name)
	fmt.Fprintf(out, "Starting chips: %d (+%d from the tutorial)\n", rules.InitialChips, rules.TutorialReward)
	fmt.Fprintf(out, "Freedom: %d chips\n\n", rules.FreedomCost)

	stats, err := sim.SimulateRuleSet(rules, rounds, seed, bot)
	if err != nil {
		return err
	}
	if err := sim.WriteReport(out, rules, stats); err != nil {
		return err
	}

	for _, s := range stats {
		tier, _ := rules.Tier(s.TierID)
		if s.MeanProfit < float64(tier.Cost) {
			fmt.Fprintf(out, "⚠️  %s loses %.1f chips per round on average\n", s.TierID, float64(tier.Cost)-s.MeanProfit)
		}
	}
	return nil
}
