package engine

// SlotState represents the lifecycle position of a single slot
type SlotState string

const (
	SlotEmpty         SlotState = "EMPTY"
	SlotOpen          SlotState = "OPEN"
	SlotBlindPending  SlotState = "BLIND_PENDING"
	SlotBlindResolved SlotState = "BLIND_RESOLVED"
)

// Phase is the round controller state
type Phase string

const (
	PhasePlaying    Phase = "PLAYING"
	PhaseRevelation Phase = "REVELATION"
	PhaseWon        Phase = "WON"
	PhaseLost       Phase = "LOST"
)

// IsTerminal reports whether no further play actions are possible
func (p Phase) IsTerminal() bool {
	return p == PhaseWon || p == PhaseLost
}

// ActionType enumerates every player-initiated action the controller understands
type ActionType string

const (
	ActionPlace        ActionType = "place"
	ActionCastBlind    ActionType = "cast_blind"
	ActionSacrifice    ActionType = "sacrifice"
	ActionConfirmPeek  ActionType = "confirm_peek"
	ActionResolveBlind ActionType = "resolve_blind"
	ActionToggleVoid   ActionType = "toggle_void"
	ActionAbandon      ActionType = "abandon"
)

const (
	// Payout and deck constants
	DefaultBlindMultiplier = 5
	DefaultSmallBetBonus   = 50
	JackpotValue           = 100
	BlindDrawSize          = 2
	PeekSize               = 2

	// Validation constants
	MinSlots       = 1
	MaxSlots       = 12
	MinDeckSize    = 1
	MaxDeckSize    = 200
	MaxMessages    = 5
	MaxSacrifices  = 20
	MaxExpansion   = 100
	MaxHistorySize = 1000
)

// Card is a single immutable card. Equality for game logic is by Value.
type Card struct {
	ID        string `json:"id"`
	Value     int    `json:"value"`
	IsJackpot bool   `json:"is_jackpot,omitempty"`
}

// Slot is one position of the slot row
type Slot struct {
	Index           int       `json:"index"`
	State           SlotState `json:"state"`
	Value           int       `json:"value,omitempty"`
	BlindCandidates []Card    `json:"blind_candidates,omitempty"`
	SelectedValue   int       `json:"selected_value,omitempty"`
}

// Effective returns the value used for sequence verification
func (s Slot) Effective() int {
	if s.SelectedValue != 0 {
		return s.SelectedValue
	}
	return s.Value
}

// Action is a single player input addressed to the round controller.
// Slot is used by place, cast_blind and resolve_blind; Value by resolve_blind;
// UseBlind by confirm_peek.
type Action struct {
	Type     ActionType `json:"type"`
	Slot     int        `json:"slot"`
	Value    int        `json:"value,omitempty"`
	UseBlind bool       `json:"use_blind,omitempty"`
}

// TierConfig describes one selectable difficulty tier
type TierConfig struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Subtext  string `json:"subtext,omitempty" yaml:"subtext,omitempty"`
	Cost     int    `json:"cost" yaml:"cost"`
	Slots    int    `json:"slots" yaml:"slots"`
	DeckSize int    `json:"deck_size" yaml:"deck_size"`
}

// ItemKind classifies shop items
type ItemKind string

const (
	ItemConsumable ItemKind = "consumable"
	ItemPassive    ItemKind = "passive"
	ItemSoulbound  ItemKind = "soulbound"
)

// Well-known item identifiers whose effects the round engine consumes
const (
	ItemFreedomContract = "freedom_contract"
	ItemJackpotAmulet   = "jackpot_amulet"
	ItemExpansionChip   = "expansion_chip"
	ItemExtraSacrifice  = "extra_sacrifice"
	ItemVoidGoggles     = "void_goggles"
	ItemSmallBet        = "small_bet"
)

// ItemDef is a shop catalog entry
type ItemDef struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Cost        int      `json:"cost" yaml:"cost"`
	Kind        ItemKind `json:"kind" yaml:"kind"`
	Soulbound   bool     `json:"soulbound" yaml:"soulbound"`
}

// RuleSet is a complete game configuration: tiers, shop catalog and the
// constants that drive the meta layer.
type RuleSet struct {
	Name               string       `json:"name" yaml:"name"`
	Description        string       `json:"description" yaml:"description"`
	BaseSacrifices     int          `json:"base_sacrifices" yaml:"base_sacrifices"`
	TutorialSacrifices int          `json:"tutorial_sacrifices" yaml:"tutorial_sacrifices"`
	BlindMultiplier    int          `json:"blind_multiplier" yaml:"blind_multiplier"`
	SmallBetBonus      int          `json:"small_bet_bonus" yaml:"small_bet_bonus"`
	ExpansionStep      int          `json:"expansion_step" yaml:"expansion_step"`
	InitialChips       int          `json:"initial_chips" yaml:"initial_chips"`
	FreedomCost        int          `json:"freedom_cost" yaml:"freedom_cost"`
	MaxLoadoutSlots    int          `json:"max_loadout_slots" yaml:"max_loadout_slots"`
	SlotUnlockCosts    []int        `json:"slot_unlock_costs" yaml:"slot_unlock_costs"`
	TutorialReward     int          `json:"tutorial_reward" yaml:"tutorial_reward"`
	Tiers              []TierConfig `json:"tiers" yaml:"tiers"`
	Items              []ItemDef    `json:"items" yaml:"items"`
}

// Tier looks up a tier by id
func (r *RuleSet) Tier(id string) (TierConfig, bool) {
	for _, t := range r.Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return TierConfig{}, false
}

// Item looks up a catalog entry by id
func (r *RuleSet) Item(id string) (ItemDef, bool) {
	for _, it := range r.Items {
		if it.ID == id {
			return it, true
		}
	}
	return ItemDef{}, false
}

// StartParams is everything the session layer hands to a new round
type StartParams struct {
	TierSlots             int  `json:"tier_slots"`
	TierDeckSize          int  `json:"tier_deck_size"`
	ExpansionBonus        int  `json:"expansion_bonus"`
	IncludeJackpot        bool `json:"include_jackpot"`
	BaseSacrifices        int  `json:"base_sacrifices"`
	ExtraSacrificeGranted bool `json:"extra_sacrifice_granted"`
	SmallBetGranted       bool `json:"small_bet_granted"`
	GogglesGranted        bool `json:"goggles_granted"`

	// Zero selects the defaults
	BlindMultiplier int `json:"blind_multiplier,omitempty"`
	SmallBetBonus   int `json:"small_bet_bonus,omitempty"`
}

// Outcome is what crosses back to the session layer when a round exits
type Outcome struct {
	Won                    bool `json:"won"`
	Profit                 int  `json:"profit"`
	ConsumedExtraSacrifice bool `json:"consumed_extra_sacrifice"`
	ConsumedSmallBet       bool `json:"consumed_small_bet"`
	ConsumedGoggles        bool `json:"consumed_goggles"`
}

// Modifiers are the loadout effects active for the round
type Modifiers struct {
	ExtraSacrifice  bool `json:"extra_sacrifice"`
	SmallBet        bool `json:"small_bet"`
	Goggles         bool `json:"goggles"`
	Jackpot         bool `json:"jackpot"`
	BlindMultiplier int  `json:"blind_multiplier"`
	SmallBetBonus   int  `json:"small_bet_bonus"`
}

// HistoryEntry records one action submitted to an engine, accepted or not
type HistoryEntry struct {
	Number      int    `json:"number"`
	Action      Action `json:"action"`
	Accepted    bool   `json:"accepted"`
	Reason      string `json:"reason,omitempty"`
	PhaseBefore Phase  `json:"phase_before"`
	PhaseAfter  Phase  `json:"phase_after"`
	Hand        int    `json:"hand,omitempty"`
	DeckLeft    int    `json:"deck_left"`
	Timestamp   int64  `json:"timestamp"`
}
