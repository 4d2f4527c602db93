// Package sim plays rounds with scripted bots to measure how a rule set's
// tiers behave and to shake out engine invariant violations.
package sim

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"text/tabwriter"

	"github.com/wricardo/mask-the-sequence/game/engine"
)

// DefaultMaxSteps bounds a single round. Every accepted action consumes a
// card or a sacrifice, so real rounds end far sooner.
const DefaultMaxSteps = 500

// Bot picks the next action for a snapshot
type Bot interface {
	Name() string
	ChooseAction(state engine.RoundState, params engine.StartParams) engine.Action
}

// ActionRecord is one step of a simulated round
type ActionRecord struct {
	Step   int
	Phase  engine.Phase
	Action engine.Action
}

// RoundReport is the result of one simulated round
type RoundReport struct {
	Seed    int64
	Outcome engine.Outcome
	Steps   int
	Actions []ActionRecord
}

// TierStats aggregates many rounds of one tier
type TierStats struct {
	TierID     string
	Bot        string
	Rounds     int
	Wins       int
	TotalSteps int
	MeanProfit float64
	MaxProfit  int
}

// WinRate is the fraction of rounds won
func (s TierStats) WinRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Rounds)
}

// PlayRound runs one round to completion with bot, checking engine
// invariants after every accepted action.
func PlayRound(params engine.StartParams, seed int64, bot Bot, maxSteps int) (RoundReport, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	report := RoundReport{Seed: seed}

	eng, err := engine.NewEngine(params, engine.NewRNG(seed))
	if err != nil {
		return report, err
	}

	for step := 0; step < maxSteps; step++ {
		if eng.IsOver() {
			break
		}
		before := eng.GetState()
		action := bot.ChooseAction(before, params)
		if _, err := eng.Do(action); err != nil {
			return report, failure(seed, step, before.Phase, report.Actions, fmt.Sprintf("%s refused: %v", action.Type, err))
		}
		report.Actions = append(report.Actions, ActionRecord{Step: step, Phase: before.Phase, Action: action})

		if err := checkInvariants(before, eng.GetState()); err != nil {
			return report, failure(seed, step, before.Phase, report.Actions, err.Error())
		}
	}

	outcome, ok := eng.Outcome()
	if !ok {
		return report, failure(seed, maxSteps, eng.GetPhase(), report.Actions, "round did not finish")
	}
	report.Outcome = outcome
	report.Steps = len(report.Actions)
	return report, nil
}

// SimulateTier plays rounds of one tier with consecutive seeds starting at seed
func SimulateTier(rules *engine.RuleSet, tierID string, rounds int, seed int64, bot Bot) (TierStats, error) {
	tier, ok := rules.Tier(tierID)
	if !ok {
		return TierStats{}, fmt.Errorf("unknown tier %q", tierID)
	}
	params := engine.StartParams{
		TierSlots:       tier.Slots,
		TierDeckSize:    tier.DeckSize,
		BaseSacrifices:  rules.BaseSacrifices,
		BlindMultiplier: rules.BlindMultiplier,
		SmallBetBonus:   rules.SmallBetBonus,
	}

	stats := TierStats{TierID: tierID, Bot: bot.Name()}
	totalProfit := 0
	for r := 0; r < rounds; r++ {
		report, err := PlayRound(params, seed+int64(r), bot, DefaultMaxSteps)
		if err != nil {
			return stats, err
		}
		stats.Rounds++
		stats.TotalSteps += report.Steps
		if report.Outcome.Won {
			stats.Wins++
			totalProfit += report.Outcome.Profit
			if report.Outcome.Profit > stats.MaxProfit {
				stats.MaxProfit = report.Outcome.Profit
			}
		}
	}
	if stats.Rounds > 0 {
		stats.MeanProfit = float64(totalProfit) / float64(stats.Rounds)
	}
	return stats, nil
}

// SimulateRuleSet runs every tier of a rule set
func SimulateRuleSet(rules *engine.RuleSet, rounds int, seed int64, bot Bot) ([]TierStats, error) {
	out := make([]TierStats, 0, len(rules.Tiers))
	for _, t := range rules.Tiers {
		stats, err := SimulateTier(rules, t.ID, rounds, seed, bot)
		if err != nil {
			return out, fmt.Errorf("tier %s: %w", t.ID, err)
		}
		out = append(out, stats)
	}
	return out, nil
}

// WriteReport prints a table of tier statistics. Costs come from rules.
func WriteReport(w io.Writer, rules *engine.RuleSet, stats []TierStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "TIER\tBOT\tCOST\tROUNDS\tWIN RATE\tMEAN PROFIT\tMAX PROFIT\tEV\n")
	for _, s := range stats {
		cost := 0
		if t, ok := rules.Tier(s.TierID); ok {
			cost = t.Cost
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f%%\t%.1f\t%d\t%+.1f\n",
			s.TierID, s.Bot, cost, s.Rounds, s.WinRate()*100, s.MeanProfit, s.MaxProfit, s.MeanProfit-float64(cost))
	}
	return tw.Flush()
}

func checkInvariants(before, after engine.RoundState) error {
	if len(before.Slots) != len(after.Slots) {
		return fmt.Errorf("slot row changed length %d -> %d", len(before.Slots), len(after.Slots))
	}
	for i := range before.Slots {
		b, a := before.Slots[i].State, after.Slots[i].State
		if b != engine.SlotEmpty && a == engine.SlotEmpty {
			return fmt.Errorf("slot %d returned to EMPTY from %s", i, b)
		}
		if b == engine.SlotOpen && a != engine.SlotOpen {
			return fmt.Errorf("open slot %d changed to %s", i, a)
		}
	}
	if after.Budget.Remaining < 0 {
		return fmt.Errorf("sacrifice budget below zero: %d", after.Budget.Remaining)
	}
	if after.Deck.Len() > before.Deck.Len() {
		return fmt.Errorf("deck grew from %d to %d", before.Deck.Len(), after.Deck.Len())
	}
	if after.Phase == engine.PhaseWon && !after.Slots.IsNonDecreasing() {
		return fmt.Errorf("round won with an unordered row")
	}
	return nil
}

func failure(seed int64, step int, phase engine.Phase, records []ActionRecord, reason string) error {
	tail := records
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	return fmt.Errorf("seed=%d step=%d phase=%s: %s (last actions: %v)", seed, step, phase, reason, tail)
}

// GreedyBot places each card where it fits best, sacrifices cards that fit
// nowhere and resolves blinds to the highest value that keeps the row ordered.
type GreedyBot struct{}

func (GreedyBot) Name() string { return "greedy" }

func (GreedyBot) ChooseAction(state engine.RoundState, params engine.StartParams) engine.Action {
	legal := engine.LegalActions(state)
	if len(legal) == 0 {
		return engine.Action{Type: engine.ActionAbandon}
	}

	if state.Phase == engine.PhaseRevelation {
		return bestResolve(state, legal)
	}

	maxValue := params.TierDeckSize + params.ExpansionBonus
	if state.Hand != nil {
		if slot := engine.BestSlotFor(state.Slots, state.Hand.Value, maxValue); slot >= 0 {
			return engine.Action{Type: engine.ActionPlace, Slot: slot}
		}
		if state.Budget.CanSpend() {
			return engine.Action{Type: engine.ActionSacrifice}
		}
	}

	// Nothing fits: gamble on a blind in the widest gap, else take the first legal move
	for _, a := range legal {
		if a.Type == engine.ActionCastBlind {
			return a
		}
	}
	return legal[0]
}

func bestResolve(state engine.RoundState, legal []engine.Action) engine.Action {
	sort.SliceStable(legal, func(i, j int) bool {
		return legal[i].Value > legal[j].Value
	})
	for _, a := range legal {
		if !engine.IsMoveDangerous(state.Slots, a.Slot, a.Value) {
			return a
		}
	}
	return legal[0]
}

// RandomBot picks uniformly among the legal actions
type RandomBot struct {
	rng *rand.Rand
}

// NewRandomBot creates a random bot with its own seeded source
func NewRandomBot(seed int64) *RandomBot {
	return &RandomBot{rng: rand.New(rand.NewSource(seed))}
}

func (b *RandomBot) Name() string { return "random" }

func (b *RandomBot) ChooseAction(state engine.RoundState, params engine.StartParams) engine.Action {
	legal := engine.LegalActions(state)
	if len(legal) == 0 {
		return engine.Action{Type: engine.ActionAbandon}
	}
	return legal[b.rng.Intn(len(legal))]
}

// BotByName returns a bot for the CLI
func BotByName(name string, seed int64) (Bot, error) {
	switch name {
	case "", "greedy":
		return GreedyBot{}, nil
	case "random":
		return NewRandomBot(seed), nil
	default:
		return nil, fmt.Errorf("unknown bot %q (use greedy or random)", name)
	}
}
