package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mask-the-sequence/game/engine"
)

func classicParams() engine.StartParams {
	return engine.StartParams{TierSlots: 4, TierDeckSize: 15, BaseSacrifices: 1}
}

func TestPlayRoundManySeeds(t *testing.T) {
	bots := []Bot{GreedyBot{}, NewRandomBot(7)}
	for _, bot := range bots {
		t.Run(bot.Name(), func(t *testing.T) {
			for seed := int64(1); seed <= 200; seed++ {
				report, err := PlayRound(classicParams(), seed, bot, DefaultMaxSteps)
				require.NoError(t, err)
				assert.NotZero(t, report.Steps)
				if !report.Outcome.Won {
					assert.Zero(t, report.Outcome.Profit, "lost rounds pay nothing")
				}
			}
		})
	}
}

func TestPlayRoundDeterministic(t *testing.T) {
	a, err := PlayRound(classicParams(), 42, GreedyBot{}, 0)
	require.NoError(t, err)
	b, err := PlayRound(classicParams(), 42, GreedyBot{}, 0)
	require.NoError(t, err)

	assert.Equal(t, a.Outcome, b.Outcome)
	assert.Equal(t, a.Actions, b.Actions)
}

func TestGreedyBeatsRandom(t *testing.T) {
	rules := engine.DefaultRuleSet()

	greedy, err := SimulateTier(rules, "tier_1", 300, 1, GreedyBot{})
	require.NoError(t, err)
	random, err := SimulateTier(rules, "tier_1", 300, 1, NewRandomBot(1))
	require.NoError(t, err)

	assert.Equal(t, 300, greedy.Rounds)
	assert.Greater(t, greedy.WinRate(), random.WinRate())
}

func TestSimulateTierUnknown(t *testing.T) {
	_, err := SimulateTier(engine.DefaultRuleSet(), "tier_9", 1, 1, GreedyBot{})
	assert.Error(t, err)
}

func TestSimulateRuleSetAndReport(t *testing.T) {
	rules := engine.DefaultRuleSet()

	stats, err := SimulateRuleSet(rules, 20, 5, GreedyBot{})
	require.NoError(t, err)
	require.Len(t, stats, len(rules.Tiers))

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, rules, stats))

	out := buf.String()
	assert.Contains(t, out, "WIN RATE")
	for _, tier := range rules.Tiers {
		assert.Contains(t, out, tier.ID)
	}
	assert.Equal(t, len(rules.Tiers)+1, strings.Count(out, "\n"))
}

func TestGreedyResolvesToOrderedValue(t *testing.T) {
	state := engine.RoundState{
		Slots: engine.SlotRow{
			{Index: 0, State: engine.SlotOpen, Value: 3},
			{Index: 1, State: engine.SlotBlindPending, BlindCandidates: []engine.Card{engine.NumberCard(4), engine.NumberCard(12)}},
			{Index: 2, State: engine.SlotOpen, Value: 9},
		},
		Phase: engine.PhaseRevelation,
	}

	action := GreedyBot{}.ChooseAction(state, classicParams())
	assert.Equal(t, engine.ActionResolveBlind, action.Type)
	assert.Equal(t, 1, action.Slot)
	assert.Equal(t, 4, action.Value, "12 would break the row")
}

func TestGreedySacrificesMisfit(t *testing.T) {
	hand := engine.NumberCard(2)
	state := engine.RoundState{
		Deck: engine.NewDeck(engine.NumberCard(7), engine.NumberCard(8)),
		Slots: engine.SlotRow{
			{Index: 0, State: engine.SlotOpen, Value: 5},
			{Index: 1, State: engine.SlotEmpty},
		},
		Hand:   &hand,
		Budget: engine.NewBudget(1, false),
		Phase:  engine.PhasePlaying,
	}

	action := GreedyBot{}.ChooseAction(state, classicParams())
	assert.Equal(t, engine.ActionSacrifice, action.Type)
}

func TestBotByName(t *testing.T) {
	bot, err := BotByName("", 1)
	require.NoError(t, err)
	assert.Equal(t, "greedy", bot.Name())

	bot, err = BotByName("random", 1)
	require.NoError(t, err)
	assert.Equal(t, "random", bot.Name())

	_, err = BotByName("oracle", 1)
	assert.Error(t, err)
}
