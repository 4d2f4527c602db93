package service

import (
	"time"

	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/profile"
	"github.com/wricardo/mask-the-sequence/game/tutorial"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string           `json:"id"`
	ConfigName     string           `json:"config_name"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	RoundsPlayed   int              `json:"rounds_played"`
	Profile        *profile.Profile `json:"profile"`
	Round          *RoundInfo       `json:"round,omitempty"`
}

// RoundInfo is a client-facing view of the current round
type RoundInfo struct {
	SessionID    string             `json:"session_id"`
	Number       int                `json:"number"`
	TierID       string             `json:"tier_id"`
	Tutorial     bool               `json:"tutorial"`
	State        engine.RoundState  `json:"state"`
	LegalActions []engine.Action    `json:"legal_actions"`
	RiskySlots   []int              `json:"risky_slots,omitempty"`
	Step         *tutorial.Step     `json:"tutorial_step,omitempty"`
	StepIndex    int                `json:"tutorial_step_index,omitempty"`
	Settled      bool               `json:"settled"`
	Outcome      *engine.Outcome    `json:"outcome,omitempty"`
	Params       engine.StartParams `json:"params"`
}

// ActionResult contains the result of one player action
type ActionResult struct {
	Accepted   bool             `json:"accepted"`
	Dropped    bool             `json:"dropped,omitempty"`
	Message    string           `json:"message"`
	ReasonCode string           `json:"reason_code,omitempty"`
	Round      *RoundInfo       `json:"round"`
	Events     []GameEvent      `json:"events,omitempty"`
	Outcome    *engine.Outcome  `json:"outcome,omitempty"`
	Profile    *profile.Profile `json:"profile,omitempty"`
}

// PeekResult holds the goggles preview
type PeekResult struct {
	Cards   []engine.Card `json:"cards"`
	Message string        `json:"message"`
}

// EndRoundResult is returned when a player leaves a round
type EndRoundResult struct {
	Outcome   engine.Outcome   `json:"outcome"`
	Abandoned bool             `json:"abandoned"`
	Tutorial  bool             `json:"tutorial"`
	Reward    int              `json:"reward,omitempty"`
	Profile   *profile.Profile `json:"profile"`
}

// ProfileInfo wraps the profile with derived status flags
type ProfileInfo struct {
	Profile  *profile.Profile `json:"profile"`
	Bankrupt bool             `json:"bankrupt"`
	Victory  bool             `json:"victory"`
}

// CatalogInfo lists what the session's rule set offers
type CatalogInfo struct {
	ConfigName      string              `json:"config_name"`
	Tiers           []engine.TierConfig `json:"tiers"`
	Items           []engine.ItemDef    `json:"items"`
	FreedomCost     int                 `json:"freedom_cost"`
	NextUnlockCost  int                 `json:"next_unlock_cost,omitempty"`
	MaxLoadoutSlots int                 `json:"max_loadout_slots"`
}

// ShopResult is returned by purchases
type ShopResult struct {
	Message string                 `json:"message"`
	Item    *profile.InventoryItem `json:"item,omitempty"`
	Spent   int                    `json:"spent"`
	Profile *profile.Profile       `json:"profile"`
	Victory bool                   `json:"victory,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "action", "refused", "dropped", "phase", "won", "lost", "settled", "tutorial_step"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Slot      *int      `json:"slot,omitempty"`
}

// HistoryOptions configures action history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated action history
type HistoryResponse struct {
	Actions      []engine.HistoryEntry `json:"actions"`
	TotalActions int                   `json:"total_actions"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
	HasNext      bool                  `json:"has_next"`
	HasPrevious  bool                  `json:"has_previous"`
}

// ConfigInfo provides information about a rule set file
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Format      string `json:"format"`
	Tiers       int    `json:"tiers"`
	Items       int    `json:"items"`
}
