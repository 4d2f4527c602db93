package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/profile"
	"github.com/wricardo/mask-the-sequence/game/tutorial"
)

const (
	TutorialTierID            = "tutorial"
	defaultTutorialSacrifices = 3
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *zap.Logger
	newRNG   func(seed int64) engine.RNG
	now      func() time.Time
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
		newRNG: func(seed int64) engine.RNG {
			if seed == 0 {
				return engine.NewTimeSeededRNG()
			}
			return engine.NewRNG(seed)
		},
		now: time.Now,
	}
}

// getConfigID returns the config_id for a given rule set name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(rulesName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == rulesName {
				return cfg.ConfigID
			}
		}
	}
	if rulesName == "" {
		return "default"
	}
	return rulesName
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Debug("failed to record session access", zap.String("session", sessionID), zap.Error(err))
	}
	return sess, nil
}

// CreateSession creates a new game session with a fresh profile
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rules *engine.RuleSet
	var err error
	if configName != "" {
		rules, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: config '%s' not found. Available configs: %v", ErrInvalidRequest, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: config '%s' not found. Use /api/configs to list available configurations", ErrInvalidRequest, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		rules = s.configs.GetDefault()
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(rules.Name)
	}

	sess, err := s.sessions.Create("", configID, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created", zap.String("session", sess.ID), zap.String("config", configID))
	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session", sessionID))
	return nil
}

// StartRound pays for a tier and deals a new round from the session's loadout
func (s *gameServiceImpl) StartRound(ctx context.Context, sessionID, tierID string, seed int64) (*RoundInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Round != nil && !sess.Round.Settled {
		return nil, ErrRoundInProgress
	}

	params, err := sess.Profile.PrepareRound(sess.Rules, tierID)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(params, s.newRNG(seed))
	if err != nil {
		sess.Profile.CancelRound(sess.Rules)
		return nil, fmt.Errorf("failed to start round: %w", err)
	}

	sess.RoundsPlayed++
	sess.Round = &Round{
		Number:  sess.RoundsPlayed,
		TierID:  tierID,
		Engine:  eng,
		Started: s.now(),
	}

	s.logger.Info("round started",
		zap.String("session", sess.ID),
		zap.String("tier", tierID),
		zap.Int("slots", params.TierSlots),
		zap.Int("deck", params.TierDeckSize+params.ExpansionBonus),
		zap.Bool("jackpot", params.IncludeJackpot))

	return s.roundInfo(sess), nil
}

// StartTutorial deals the rigged training round behind the tutorial script
func (s *gameServiceImpl) StartTutorial(ctx context.Context, sessionID string) (*RoundInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Round != nil && !sess.Round.Settled {
		return nil, ErrRoundInProgress
	}

	sacrifices := sess.Rules.TutorialSacrifices
	if sacrifices == 0 {
		sacrifices = defaultTutorialSacrifices
	}
	eng, ic, err := tutorial.NewEngine(sacrifices)
	if err != nil {
		return nil, fmt.Errorf("failed to start tutorial: %w", err)
	}

	sess.RoundsPlayed++
	sess.Round = &Round{
		Number:   sess.RoundsPlayed,
		TierID:   TutorialTierID,
		Engine:   eng,
		Tutorial: ic,
		Started:  s.now(),
	}

	s.logger.Info("tutorial started", zap.String("session", sess.ID))
	return s.roundInfo(sess), nil
}

// Act submits one player action. Refusals are reported in the result, not as errors.
func (s *gameServiceImpl) Act(ctx context.Context, sessionID string, action engine.Action) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	round := sess.Round
	if round == nil {
		return nil, ErrNoRound
	}

	now := s.now()
	result := &ActionResult{}

	var res engine.Result
	accepted := true
	if round.IsTutorial() {
		res, accepted, err = round.Tutorial.Do(action)
	} else {
		res, err = round.Engine.Do(action)
	}

	switch {
	case !accepted:
		result.Dropped = true
		result.Message = "Follow the tutorial instruction"
		if step, ok := round.Tutorial.Current(); ok {
			result.Message = step.Text
		}
		result.Events = append(result.Events, GameEvent{Type: "dropped", Message: result.Message, Timestamp: now})
		s.logger.Debug("tutorial dropped action",
			zap.String("session", sess.ID),
			zap.String("action", string(action.Type)),
			zap.Int("slot", action.Slot))

	case err != nil:
		result.Message = engine.RefusalMessage(err)
		result.ReasonCode = ReasonCode(err)
		result.Events = append(result.Events, GameEvent{Type: "refused", Message: result.Message, Timestamp: now})
		s.logger.Debug("action refused",
			zap.String("session", sess.ID),
			zap.String("action", string(action.Type)),
			zap.Int("slot", action.Slot),
			zap.Bool("user_facing", engine.IsUserFacing(err)),
			zap.Error(err))

	default:
		result.Accepted = true
		for _, msg := range res.Messages {
			result.Events = append(result.Events, GameEvent{Type: "action", Message: msg, Timestamp: now, Slot: slotOf(action)})
		}
		if len(res.Messages) > 0 {
			result.Message = res.Messages[len(res.Messages)-1]
		}
		if res.PhaseChanged() {
			result.Events = append(result.Events, GameEvent{
				Type:      "phase",
				Message:   fmt.Sprintf("%s -> %s", res.PhaseBefore, res.Phase),
				Timestamp: now,
			})
		}
		if round.IsTutorial() {
			if step, ok := round.Tutorial.Current(); ok {
				result.Events = append(result.Events, GameEvent{Type: "tutorial_step", Message: step.Text, Timestamp: now})
			}
		}
		if events := s.settle(sess); len(events) > 0 {
			result.Events = append(result.Events, events...)
			result.Outcome = round.Outcome
			result.Profile = sess.Profile.Clone()
		}
	}

	result.Round = s.roundInfo(sess)
	return result, nil
}

// settle applies the outcome of a finished round to the profile exactly once
func (s *gameServiceImpl) settle(sess *Session) []GameEvent {
	round := sess.Round
	if round == nil || round.Settled || !round.Engine.IsOver() {
		return nil
	}
	outcome, _ := round.Engine.Outcome()
	now := s.now()

	var events []GameEvent
	if outcome.Won {
		events = append(events, GameEvent{Type: "won", Message: fmt.Sprintf("Round won. Profit: %d", outcome.Profit), Timestamp: now})
	} else {
		events = append(events, GameEvent{Type: "lost", Message: "Round lost", Timestamp: now})
	}

	if round.IsTutorial() {
		reward := sess.Profile.ApplyTutorialOutcome(sess.Rules, outcome.Won)
		round.Reward = reward
		events = append(events, GameEvent{Type: "settled", Message: fmt.Sprintf("Tutorial reward: %d", reward), Timestamp: now})
	} else if err := sess.Profile.ApplyOutcome(outcome); err != nil {
		s.logger.Warn("failed to apply outcome", zap.String("session", sess.ID), zap.Error(err))
	} else {
		events = append(events, GameEvent{Type: "settled", Message: fmt.Sprintf("Chips: %d", sess.Profile.Chips), Timestamp: now})
	}

	round.Settled = true
	round.Outcome = &outcome

	s.logger.Info("round settled",
		zap.String("session", sess.ID),
		zap.String("tier", round.TierID),
		zap.Bool("won", outcome.Won),
		zap.Int("profit", outcome.Profit),
		zap.Int("chips", sess.Profile.Chips))
	return events
}

// Peek previews the next two cards using the goggles charge
func (s *gameServiceImpl) Peek(ctx context.Context, sessionID string) (*PeekResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Round == nil {
		return nil, ErrNoRound
	}
	if sess.Round.IsTutorial() {
		return nil, engine.ErrNoGoggles
	}

	cards, err := sess.Round.Engine.Peek()
	if err != nil {
		return nil, err
	}
	return &PeekResult{
		Cards:   cards,
		Message: "Choose: treat them as a blind pair or sacrifice your hand",
	}, nil
}

// EndRound leaves the current round, abandoning it first when still live
func (s *gameServiceImpl) EndRound(ctx context.Context, sessionID string) (*EndRoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	round := sess.Round
	if round == nil {
		return nil, ErrNoRound
	}

	abandoned := false
	if !round.Engine.IsOver() {
		if _, err := round.Engine.Do(engine.Action{Type: engine.ActionAbandon}); err != nil {
			return nil, fmt.Errorf("failed to abandon round: %w", err)
		}
		abandoned = true
		s.logger.Info("round abandoned", zap.String("session", sess.ID), zap.String("tier", round.TierID))
	}

	s.settle(sess)

	result := &EndRoundResult{
		Abandoned: abandoned,
		Tutorial:  round.IsTutorial(),
		Reward:    round.Reward,
		Profile:   sess.Profile.Clone(),
	}
	if round.Outcome != nil {
		result.Outcome = *round.Outcome
	}

	sess.Round = nil
	return result, nil
}

// GetRound returns the current round view
func (s *gameServiceImpl) GetRound(ctx context.Context, sessionID string) (*RoundInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Round == nil {
		return nil, ErrNoRound
	}
	return s.roundInfo(sess), nil
}

// GetActionHistory returns paginated action history for the current round
func (s *gameServiceImpl) GetActionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Round == nil {
		return nil, ErrNoRound
	}

	history := sess.Round.Engine.GetHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var actions []engine.HistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			actions = append(actions, history[i])
		}
	} else if start < total {
		actions = history[start:end]
	}
	if actions == nil {
		actions = []engine.HistoryEntry{}
	}

	return &HistoryResponse{
		Actions:      actions,
		TotalActions: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// GetProfile returns the session's profile
func (s *gameServiceImpl) GetProfile(ctx context.Context, sessionID string) (*ProfileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.profileInfo(sess), nil
}

// GetCatalog lists tiers and shop items of the session's rule set
func (s *gameServiceImpl) GetCatalog(ctx context.Context, sessionID string) (*CatalogInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	rules := sess.Rules
	info := &CatalogInfo{
		ConfigName:      sess.ConfigName,
		Tiers:           append([]engine.TierConfig{}, rules.Tiers...),
		Items:           make([]engine.ItemDef, 0, len(rules.Items)),
		FreedomCost:     rules.FreedomCost,
		MaxLoadoutSlots: rules.MaxLoadoutSlots,
	}
	for _, it := range rules.Items {
		// the contract disappears from the shop once bought
		if it.ID == engine.ItemFreedomContract && sess.Profile.HasWon {
			continue
		}
		info.Items = append(info.Items, it)
	}
	if u := sess.Profile.UnlockedSlots; u < rules.MaxLoadoutSlots && u < len(rules.SlotUnlockCosts) {
		info.NextUnlockCost = rules.SlotUnlockCosts[u]
	}
	return info, nil
}

// Buy purchases an item from the shop
func (s *gameServiceImpl) Buy(ctx context.Context, sessionID, itemID string) (*ShopResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	before := sess.Profile.Chips
	item, err := sess.Profile.Buy(sess.Rules, itemID)
	if err != nil {
		return nil, err
	}

	result := &ShopResult{
		Item:    item,
		Spent:   before - sess.Profile.Chips,
		Profile: sess.Profile.Clone(),
	}
	if item == nil {
		result.Victory = true
		result.Message = "Freedom purchased. You are out."
	} else {
		result.Message = fmt.Sprintf("Bought %s", item.Name)
	}

	s.logger.Info("item bought",
		zap.String("session", sess.ID),
		zap.String("item", itemID),
		zap.Int("spent", result.Spent),
		zap.Bool("victory", result.Victory))
	return result, nil
}

// Equip moves an owned item into the loadout
func (s *gameServiceImpl) Equip(ctx context.Context, sessionID, itemUID string) (*ProfileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Profile.Equip(itemUID); err != nil {
		return nil, err
	}
	return s.profileInfo(sess), nil
}

// Unequip moves a loadout item back into the warehouse
func (s *gameServiceImpl) Unequip(ctx context.Context, sessionID, itemUID string) (*ProfileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Profile.Unequip(itemUID); err != nil {
		return nil, err
	}
	return s.profileInfo(sess), nil
}

// UnlockSlot buys the next loadout slot
func (s *gameServiceImpl) UnlockSlot(ctx context.Context, sessionID string) (*ShopResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	cost, err := sess.Profile.UnlockSlot(sess.Rules)
	if err != nil {
		return nil, err
	}
	return &ShopResult{
		Message: fmt.Sprintf("Loadout slot %d unlocked", sess.Profile.UnlockedSlots),
		Spent:   cost,
		Profile: sess.Profile.Clone(),
	}, nil
}

// ListConfigs returns all available rule sets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a rule set by name
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.RuleSet, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a rule set
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, rules *engine.RuleSet) error {
	return s.configs.SaveConfig(configName, rules)
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		RoundsPlayed:   sess.RoundsPlayed,
		Profile:        sess.Profile.Clone(),
	}
	if sess.Round != nil {
		info.Round = s.roundInfo(sess)
	}
	return info
}

func (s *gameServiceImpl) profileInfo(sess *Session) *ProfileInfo {
	return &ProfileInfo{
		Profile:  sess.Profile.Clone(),
		Bankrupt: sess.Profile.IsBankrupt(sess.Rules),
		Victory:  sess.Profile.HasWon,
	}
}

func (s *gameServiceImpl) roundInfo(sess *Session) *RoundInfo {
	round := sess.Round
	state := round.Engine.GetState()
	info := &RoundInfo{
		SessionID:    sess.ID,
		Number:       round.Number,
		TierID:       round.TierID,
		Tutorial:     round.IsTutorial(),
		State:        redact(state),
		LegalActions: round.Engine.LegalActions(),
		RiskySlots:   riskySlots(state),
		Settled:      round.Settled,
		Outcome:      round.Outcome,
		Params:       round.Engine.GetParams(),
	}
	if info.LegalActions == nil {
		info.LegalActions = []engine.Action{}
	}
	if round.IsTutorial() {
		info.StepIndex = round.Tutorial.Cursor()
		if step, ok := round.Tutorial.Current(); ok {
			info.Step = &step
		}
	}
	return info
}

// redact hides the blind candidates until the row is revealed
func redact(state engine.RoundState) engine.RoundState {
	if state.Phase != engine.PhasePlaying || !state.Slots.HasPendingBlind() {
		return state
	}
	state.Slots = state.Slots.Clone()
	for i := range state.Slots {
		if state.Slots[i].State == engine.SlotBlindPending {
			state.Slots[i].BlindCandidates = nil
		}
	}
	return state
}

// riskySlots lists the empty slots where the current hand would break the sequence
func riskySlots(state engine.RoundState) []int {
	if state.Phase != engine.PhasePlaying || state.Hand == nil {
		return nil
	}
	var out []int
	for _, i := range state.Slots.EmptyIndexes() {
		if engine.IsMoveDangerous(state.Slots, i, state.Hand.Value) {
			out = append(out, i)
		}
	}
	return out
}

func slotOf(a engine.Action) *int {
	switch a.Type {
	case engine.ActionPlace, engine.ActionCastBlind, engine.ActionResolveBlind:
		slot := a.Slot
		return &slot
	}
	return nil
}

// ReasonCode returns a machine-friendly code for an engine refusal
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, engine.ErrInsufficientCards):
		return "insufficient_cards"
	case errors.Is(err, engine.ErrInvalidChoice):
		return "invalid_choice"
	case errors.Is(err, engine.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, engine.ErrNoHand):
		return "no_hand"
	case errors.Is(err, engine.ErrNoSacrifices):
		return "no_sacrifices"
	case errors.Is(err, engine.ErrNoGoggles):
		return "no_goggles"
	case errors.Is(err, engine.ErrRoundOver):
		return "round_over"
	case errors.Is(err, engine.ErrUnknownAction):
		return "unknown_action"
	default:
		return "refused"
	}
}

// IsClientError reports whether err was caused by the request rather than the server
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNoRound) ||
		errors.Is(err, ErrRoundInProgress) ||
		errors.Is(err, profile.ErrInsufficientChips) ||
		errors.Is(err, profile.ErrUnknownItem) ||
		errors.Is(err, profile.ErrItemNotOwned) ||
		errors.Is(err, profile.ErrLoadoutFull) ||
		errors.Is(err, profile.ErrAllSlotsUnlocked) ||
		errors.Is(err, profile.ErrUnknownTier) ||
		errors.Is(err, profile.ErrRoundActive) ||
		errors.Is(err, profile.ErrAlreadyFree) ||
		errors.Is(err, engine.ErrNoGoggles) ||
		errors.Is(err, engine.ErrInsufficientCards) ||
		errors.Is(err, engine.ErrWrongPhase) ||
		errors.Is(err, engine.ErrRoundOver) ||
		errors.Is(err, engine.ErrInvalidSlot) ||
		errors.Is(err, engine.ErrInvalidChoice) ||
		errors.Is(err, engine.ErrNoHand) ||
		errors.Is(err, engine.ErrNoSacrifices) ||
		errors.Is(err, engine.ErrUnknownAction)
}
