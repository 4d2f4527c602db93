package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/profile"
	"github.com/wricardo/mask-the-sequence/game/tutorial"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoRound         = errors.New("no round in this session")
	ErrRoundInProgress = errors.New("a round is still in progress")
	ErrInvalidRequest  = errors.New("invalid request")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Round Operations
	StartRound(ctx context.Context, sessionID, tierID string, seed int64) (*RoundInfo, error)
	StartTutorial(ctx context.Context, sessionID string) (*RoundInfo, error)
	Act(ctx context.Context, sessionID string, action engine.Action) (*ActionResult, error)
	Peek(ctx context.Context, sessionID string) (*PeekResult, error)
	EndRound(ctx context.Context, sessionID string) (*EndRoundResult, error)
	GetRound(ctx context.Context, sessionID string) (*RoundInfo, error)
	GetActionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Profile and Shop
	GetProfile(ctx context.Context, sessionID string) (*ProfileInfo, error)
	GetCatalog(ctx context.Context, sessionID string) (*CatalogInfo, error)
	Buy(ctx context.Context, sessionID, itemID string) (*ShopResult, error)
	Equip(ctx context.Context, sessionID, itemUID string) (*ProfileInfo, error)
	Unequip(ctx context.Context, sessionID, itemUID string) (*ProfileInfo, error)
	UnlockSlot(ctx context.Context, sessionID string) (*ShopResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.RuleSet, error)
	SaveConfig(ctx context.Context, configName string, rules *engine.RuleSet) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configName string, rules *engine.RuleSet) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configName string, rules *engine.RuleSet) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles rule set loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.RuleSet, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.RuleSet
	SaveConfig(name string, rules *engine.RuleSet) error
}

// Session represents an active player session: one profile and at most one
// current round.
type Session struct {
	ID             string
	ConfigName     string
	Rules          *engine.RuleSet
	Profile        *profile.Profile
	Round          *Round
	RoundsPlayed   int
	CreatedAt      time.Time

	// Unix nanoseconds; written by the session manager while service
	// readers hold only a read lock
	lastAccessed atomic.Int64
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.lastAccessed.Store(t.UnixNano())
}

// LastAccessedAt returns the time of the most recent access
func (s *Session) LastAccessedAt() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}

// Round is the live or finished round of a session
type Round struct {
	Number   int
	TierID   string
	Engine   *engine.GameEngine
	Tutorial *tutorial.Interceptor
	Settled  bool
	Outcome  *engine.Outcome
	Reward   int
	Started  time.Time
}

// IsTutorial reports whether the round runs behind the tutorial script
func (r *Round) IsTutorial() bool {
	return r.Tutorial != nil
}
