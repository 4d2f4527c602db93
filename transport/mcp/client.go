package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/profile"
	"github.com/wricardo/mask-the-sequence/game/service"
	"github.com/wricardo/mask-the-sequence/game/tutorial"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

const instructions = `Mask the Sequence - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Fill every slot of the row with cards so that the values never decrease from
left to right. Win rounds to earn chips, spend chips in the shop, and buy the
Freedom Contract to win the game.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage sessions
- start_tutorial: scripted first round that pays a one-time reward
- start_round: pay a tier's cost and deal a round
- act: submit one action (place, cast_blind, sacrifice, confirm_peek, resolve_blind, toggle_void, abandon)
- peek: preview the next two deck cards (requires Void Goggles)
- round_state / history: inspect the current round
- end_round: leave the round (abandons it if still live)
- profile / catalog / buy / equip / unequip / unlock_slot: the meta game
- list_configs: available rule sets
- game_instructions: full rules

NOTE: the 'intent' parameter on act serves as rubber duck debugging - explain your reasoning!`

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Mask the Sequence",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)

	c.registerTools()
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new game session with optional rule set selection"),
		mcp.WithString("config_id", mcp.Description("Rule set to use (optional, see list_configs)")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active game sessions"),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionParam(),
	), c.handleGetSession)

	// Rounds
	c.mcpServer.AddTool(mcp.NewTool("start_round",
		mcp.WithDescription("Pay a tier's cost and start a new round"),
		sessionParam(),
		mcp.WithString("tier_id", mcp.Required(), mcp.Description("Tier to play, see catalog")),
		mcp.WithNumber("seed", mcp.Description("Shuffle seed for a reproducible deck (optional)")),
	), c.handleStartRound)

	c.mcpServer.AddTool(mcp.NewTool("start_tutorial",
		mcp.WithDescription("Start the scripted tutorial round. Only the highlighted action is accepted at each step."),
		sessionParam(),
	), c.handleStartTutorial)

	c.mcpServer.AddTool(mcp.NewTool("act",
		mcp.WithDescription("Submit one action to the current round"),
		sessionParam(),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Enum(
				string(engine.ActionPlace),
				string(engine.ActionCastBlind),
				string(engine.ActionSacrifice),
				string(engine.ActionConfirmPeek),
				string(engine.ActionResolveBlind),
				string(engine.ActionToggleVoid),
				string(engine.ActionAbandon),
			),
			mcp.Description("Action to perform"),
		),
		mcp.WithNumber("slot", mcp.Description("Target slot for place, cast_blind and resolve_blind (0-based)")),
		mcp.WithNumber("value", mcp.Description("Chosen candidate value for resolve_blind")),
		mcp.WithBoolean("use_blind", mcp.Description("confirm_peek: true to cast blind with the peeked cards, false to sacrifice")),
		mcp.WithString("intent", mcp.Description("Brief explanation of why you chose this action")),
	), c.handleAct)

	c.mcpServer.AddTool(mcp.NewTool("peek",
		mcp.WithDescription("Preview the next two deck cards without drawing them. Requires Void Goggles."),
		sessionParam(),
	), c.handlePeek)

	c.mcpServer.AddTool(mcp.NewTool("round_state",
		mcp.WithDescription("Get the current round: slots, hand, budget and legal actions"),
		sessionParam(),
	), c.handleRoundState)

	c.mcpServer.AddTool(mcp.NewTool("end_round",
		mcp.WithDescription("Leave the current round. A live round is abandoned and counts as lost."),
		sessionParam(),
	), c.handleEndRound)

	c.mcpServer.AddTool(mcp.NewTool("history",
		mcp.WithDescription("Get the action history of the current round with pagination"),
		sessionParam(),
		mcp.WithNumber("page", mcp.Description("Page number (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Actions per page (default 20, max 100)")),
		mcp.WithString("order", mcp.Enum("asc", "desc"), mcp.Description("Sort order (default desc)")),
	), c.handleHistory)

	// Profile and shop
	c.mcpServer.AddTool(mcp.NewTool("profile",
		mcp.WithDescription("Get chips, inventory and loadout"),
		sessionParam(),
	), c.handleProfile)

	c.mcpServer.AddTool(mcp.NewTool("catalog",
		mcp.WithDescription("List tiers and shop items for the session's rule set"),
		sessionParam(),
	), c.handleCatalog)

	c.mcpServer.AddTool(mcp.NewTool("buy",
		mcp.WithDescription("Buy a shop item into the warehouse"),
		sessionParam(),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Catalog item ID")),
	), c.handleBuy)

	c.mcpServer.AddTool(mcp.NewTool("equip",
		mcp.WithDescription("Move an owned item from the warehouse into the loadout"),
		sessionParam(),
		mcp.WithString("uid", mcp.Required(), mcp.Description("Inventory item UID")),
	), c.handleEquip)

	c.mcpServer.AddTool(mcp.NewTool("unequip",
		mcp.WithDescription("Move an item from the loadout back to the warehouse"),
		sessionParam(),
		mcp.WithString("uid", mcp.Required(), mcp.Description("Inventory item UID")),
	), c.handleUnequip)

	c.mcpServer.AddTool(mcp.NewTool("unlock_slot",
		mcp.WithDescription("Pay to unlock the next loadout slot"),
		sessionParam(),
	), c.handleUnlockSlot)

	// Configuration and help
	c.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available rule sets"),
	), c.handleListConfigs)

	c.mcpServer.AddTool(mcp.NewTool("game_instructions",
		mcp.WithDescription("Get the complete game rules and strategy notes"),
	), c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp apiError
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// toolArgs collects every argument any tool accepts
type toolArgs struct {
	SessionID string `mapstructure:"session_id"`
	ConfigID  string `mapstructure:"config_id"`
	TierID    string `mapstructure:"tier_id"`
	Seed      int64  `mapstructure:"seed"`
	Type      string `mapstructure:"type"`
	Slot      int    `mapstructure:"slot"`
	Value     int    `mapstructure:"value"`
	UseBlind  bool   `mapstructure:"use_blind"`
	Intent    string `mapstructure:"intent"`
	Page      int    `mapstructure:"page"`
	Limit     int    `mapstructure:"limit"`
	Order     string `mapstructure:"order"`
	ItemID    string `mapstructure:"item_id"`
	UID       string `mapstructure:"uid"`
}

// decodeArgs decodes tool arguments leniently so "2" and 2 both work
func decodeArgs(request mcp.CallToolRequest) (toolArgs, error) {
	var args toolArgs
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &args,
	})
	if err != nil {
		return args, err
	}
	if err := decoder.Decode(request.GetArguments()); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// argsWithSession decodes arguments and requires a session ID
func argsWithSession(request mcp.CallToolRequest) (toolArgs, *mcp.CallToolResult) {
	args, err := decodeArgs(request)
	if err != nil {
		return args, mcp.NewToolResultError(err.Error())
	}
	if args.SessionID == "" {
		return args, mcp.NewToolResultError("session_id is required")
	}
	return args, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]string{}
	if args.ConfigID != "" {
		body["config_id"] = args.ConfigID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		chips := 0
		if s.Profile != nil {
			chips = s.Profile.Chips
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Chips: %d, Rounds: %d, Created: %s)\n",
			s.ID, s.ConfigName, chips, s.RoundsPlayed, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(args.SessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleStartRound(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}
	if args.TierID == "" {
		return mcp.NewToolResultError("tier_id is required"), nil
	}

	body := map[string]interface{}{"tier_id": args.TierID}
	if args.Seed != 0 {
		body["seed"] = args.Seed
	}

	var round roundView
	if err := c.apiCall(ctx, "POST", sessionPath(args.SessionID, "/round"), body, &round); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Round started.\n\n" + formatRound(&round)), nil
}

func (c *Client) handleStartTutorial(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var round roundView
	if err := c.apiCall(ctx, "POST", sessionPath(args.SessionID, "/tutorial"), nil, &round); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Tutorial started.\n\n" + formatRound(&round)), nil
}

func (c *Client) handleAct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}
	if args.Type == "" {
		return mcp.NewToolResultError("type is required"), nil
	}

	action := engine.Action{
		Type:     engine.ActionType(args.Type),
		Slot:     args.Slot,
		Value:    args.Value,
		UseBlind: args.UseBlind,
	}

	var result actionView
	if err := c.apiCall(ctx, "POST", sessionPath(args.SessionID, "/actions"), action, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(action, &result)), nil
}

func (c *Client) handlePeek(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var result service.PeekResult
	if err := c.apiCall(ctx, "GET", sessionPath(args.SessionID, "/peek"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	values := make([]string, 0, len(result.Cards))
	for _, card := range result.Cards {
		values = append(values, formatCard(card))
	}
	text := fmt.Sprintf("Next cards: [%s]\n", strings.Join(values, ", "))
	if result.Message != "" {
		text += result.Message + "\n"
	}
	text += "Commit with act type=confirm_peek use_blind=true|false.\n"
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleRoundState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var round roundView
	if err := c.apiCall(ctx, "GET", sessionPath(args.SessionID, "/round"), nil, &round); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRound(&round)), nil
}

func (c *Client) handleEndRound(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var result service.EndRoundResult
	if err := c.apiCall(ctx, "POST", sessionPath(args.SessionID, "/round/end"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	switch {
	case result.Abandoned:
		b.WriteString("Round abandoned (counts as lost).\n")
	case result.Outcome.Won:
		fmt.Fprintf(&b, "Round won. Profit: %d\n", result.Outcome.Profit)
	default:
		b.WriteString("Round lost.\n")
	}
	if result.Tutorial && result.Reward > 0 {
		fmt.Fprintf(&b, "Tutorial reward: %d\n", result.Reward)
	}
	if result.Profile != nil {
		b.WriteString(formatProfile(result.Profile))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}

	query := url.Values{}
	if args.Page > 0 {
		query.Set("page", fmt.Sprint(args.Page))
	}
	if args.Limit > 0 {
		query.Set("limit", fmt.Sprint(args.Limit))
	}
	if args.Order != "" {
		query.Set("order", args.Order)
	}

	path := sessionPath(args.SessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var info service.ProfileInfo
	if err := c.apiCall(ctx, "GET", sessionPath(args.SessionID, "/profile"), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := formatProfile(info.Profile)
	if info.Victory {
		text += "You bought your freedom. The game is won.\n"
	} else if info.Bankrupt {
		text += "Bankrupt: no affordable tier remains.\n"
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var catalog service.CatalogInfo
	if err := c.apiCall(ctx, "GET", sessionPath(args.SessionID, "/catalog"), nil, &catalog); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCatalog(&catalog)), nil
}

func (c *Client) handleBuy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}
	if args.ItemID == "" {
		return mcp.NewToolResultError("item_id is required"), nil
	}

	var result service.ShopResult
	body := map[string]string{"item_id": args.ItemID}
	if err := c.apiCall(ctx, "POST", sessionPath(args.SessionID, "/shop/buy"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatShopResult(&result)), nil
}

func (c *Client) handleEquip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.loadoutCall(ctx, request, "/loadout/equip")
}

func (c *Client) handleUnequip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.loadoutCall(ctx, request, "/loadout/unequip")
}

func (c *Client) loadoutCall(ctx context.Context, request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}
	if args.UID == "" {
		return mcp.NewToolResultError("uid is required"), nil
	}

	var info service.ProfileInfo
	body := map[string]string{"uid": args.UID}
	if err := c.apiCall(ctx, "POST", sessionPath(args.SessionID, suffix), body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatProfile(info.Profile)), nil
}

func (c *Client) handleUnlockSlot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := argsWithSession(request)
	if errResult != nil {
		return errResult, nil
	}

	var result service.ShopResult
	if err := c.apiCall(ctx, "POST", sessionPath(args.SessionID, "/loadout/unlock"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatShopResult(&result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Rule Sets:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- %s: %s (%d tiers, %d items, %s)\n", cfg.ConfigID, cfg.Name, cfg.Tiers, cfg.Items, cfg.Format)
		if cfg.Description != "" {
			fmt.Fprintf(&b, "  %s\n", cfg.Description)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `Mask the Sequence - Complete Instructions

GAME OBJECTIVE:
Each round deals you a row of empty slots and a shuffled deck numbered 1..N.
Fill every slot so that the values never decrease from left to right (ties are
fine). A filled, ordered row wins the round and pays its profit in chips.

ROUND FLOW:
1. You always hold one card in hand, drawn from the front of the deck.
2. place slot=i puts the hand card into empty slot i face up and draws a new hand.
3. cast_blind slot=i draws the next two deck cards face down into slot i and
   then draws a new hand. Casting needs at least two cards in the deck.
4. sacrifice discards the hand card and draws a fresh one. The budget is small.
5. When every slot is filled the round moves to REVELATION if any blind slot is
   still face down. Pick one of its two candidates with resolve_blind slot=i value=v.
6. After the last blind is resolved the row is verified. Non-decreasing wins.
7. If the hand and deck both run out before the row is full, the round is lost.

PROFIT:
- Face-up cards pay their value.
- Resolved blind cards pay their chosen value times the blind multiplier (5 by default).
- Small Bet adds a flat bonus to a winning round.

ITEMS:
- Extra Sacrifice: one more sacrifice for the round.
- Void Goggles: peek at the next two deck cards, then confirm_peek use_blind=true
  to cast them blind or use_blind=false to sacrifice. The charge is spent on confirm.
- Expansion Chip: more cards in the deck.
- Jackpot Amulet: shuffles a 100-value jackpot card into the deck.
- Soulbound items survive a lost round. Everything else in the loadout is lost.

STRATEGY NOTES:
- The risky_slots list in round_state marks placements that would leave too
  few cards to finish the row in order.
- Low cards belong on the left and high cards on the right. A middle card in
  an edge slot narrows every later choice.
- Blind slots pay five times as much but you only learn the candidates at the end.
  Cast them where either candidate is likely to fit.
- Keep one sacrifice in reserve for the last slot.

META GAME:
- Tiers cost chips to enter. Losing forfeits the entry fee.
- Buy the Freedom Contract from the shop to win the game.
- The tutorial pays a one-time reward and costs nothing.

Good luck keeping the sequence in order!`

// Wire views. The deck is serialized as a count only, so rounds are decoded
// into local mirrors rather than engine.RoundState.

type stateView struct {
	Deck struct {
		Remaining int `json:"remaining"`
	} `json:"deck"`
	Slots     engine.SlotRow   `json:"slots"`
	Hand      *engine.Card     `json:"hand"`
	Budget    engine.Budget    `json:"budget"`
	Phase     engine.Phase     `json:"phase"`
	Modifiers engine.Modifiers `json:"modifiers"`
	Messages  []string         `json:"messages"`
}

type roundView struct {
	SessionID    string          `json:"session_id"`
	Number       int             `json:"number"`
	TierID       string          `json:"tier_id"`
	Tutorial     bool            `json:"tutorial"`
	State        stateView       `json:"state"`
	LegalActions []engine.Action `json:"legal_actions"`
	RiskySlots   []int           `json:"risky_slots"`
	Step         *tutorial.Step  `json:"tutorial_step"`
	Settled      bool            `json:"settled"`
	Outcome      *engine.Outcome `json:"outcome"`
}

type actionView struct {
	Accepted   bool                `json:"accepted"`
	Dropped    bool                `json:"dropped"`
	Message    string              `json:"message"`
	ReasonCode string              `json:"reason_code"`
	Round      *roundView          `json:"round"`
	Events     []service.GameEvent `json:"events"`
	Outcome    *engine.Outcome     `json:"outcome"`
	Profile    *profile.Profile    `json:"profile"`
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nRounds played: %d\n", session.ID, session.ConfigName, session.RoundsPlayed)
	if session.Profile != nil {
		b.WriteString(formatProfile(session.Profile))
	}
	if session.Round != nil {
		fmt.Fprintf(&b, "Active round: #%d (%s), phase %s\n", session.Round.Number, session.Round.TierID, session.Round.State.Phase)
	}
	return b.String()
}

func formatCard(card engine.Card) string {
	if card.IsJackpot {
		return fmt.Sprintf("%d*", card.Value)
	}
	return fmt.Sprint(card.Value)
}

func formatSlot(slot engine.Slot) string {
	switch slot.State {
	case engine.SlotOpen:
		return fmt.Sprintf("[%d]", slot.Value)
	case engine.SlotBlindPending:
		if len(slot.BlindCandidates) == 2 {
			return fmt.Sprintf("[?%d/%d]", slot.BlindCandidates[0].Value, slot.BlindCandidates[1].Value)
		}
		return "[??]"
	case engine.SlotBlindResolved:
		return fmt.Sprintf("[%dx]", slot.Effective())
	default:
		return "[ ]"
	}
}

func formatRound(round *roundView) string {
	var b strings.Builder
	st := round.State

	if round.Tutorial {
		b.WriteString("Tutorial round\n")
	} else {
		fmt.Fprintf(&b, "Round #%d (%s)\n", round.Number, round.TierID)
	}
	fmt.Fprintf(&b, "Phase: %s\n", st.Phase)

	cells := make([]string, len(st.Slots))
	for i, slot := range st.Slots {
		cells[i] = formatSlot(slot)
	}
	fmt.Fprintf(&b, "Slots: %s\n", strings.Join(cells, " "))

	if st.Hand != nil {
		fmt.Fprintf(&b, "Hand: %s\n", formatCard(*st.Hand))
	} else {
		b.WriteString("Hand: none\n")
	}
	fmt.Fprintf(&b, "Deck: %d cards left\n", st.Deck.Remaining)
	fmt.Fprintf(&b, "Sacrifices: %d\n", st.Budget.Remaining)

	var mods []string
	if st.Modifiers.Goggles {
		mods = append(mods, "goggles")
	}
	if st.Modifiers.ExtraSacrifice {
		mods = append(mods, "extra sacrifice")
	}
	if st.Modifiers.SmallBet {
		mods = append(mods, "small bet")
	}
	if st.Modifiers.Jackpot {
		mods = append(mods, "jackpot")
	}
	if len(mods) > 0 {
		fmt.Fprintf(&b, "Modifiers: %s\n", strings.Join(mods, ", "))
	}

	if len(round.RiskySlots) > 0 {
		fmt.Fprintf(&b, "Risky slots for the hand: %v\n", round.RiskySlots)
	}

	if round.Step != nil {
		fmt.Fprintf(&b, "Tutorial: %s\n", round.Step.Text)
	}

	if len(round.LegalActions) > 0 {
		b.WriteString("Legal actions: ")
		b.WriteString(formatActions(round.LegalActions))
		b.WriteString("\n")
	}

	if round.Outcome != nil {
		b.WriteString(formatOutcome(round.Outcome))
	}

	for _, msg := range st.Messages {
		fmt.Fprintf(&b, "> %s\n", msg)
	}

	return b.String()
}

func formatActions(actions []engine.Action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		switch a.Type {
		case engine.ActionPlace, engine.ActionCastBlind:
			parts = append(parts, fmt.Sprintf("%s(%d)", a.Type, a.Slot))
		case engine.ActionResolveBlind:
			parts = append(parts, fmt.Sprintf("%s(%d=%d)", a.Type, a.Slot, a.Value))
		case engine.ActionConfirmPeek:
			parts = append(parts, fmt.Sprintf("%s(blind=%t)", a.Type, a.UseBlind))
		default:
			parts = append(parts, string(a.Type))
		}
	}
	return strings.Join(parts, ", ")
}

func formatOutcome(outcome *engine.Outcome) string {
	if outcome.Won {
		return fmt.Sprintf("Outcome: WON, profit %d\n", outcome.Profit)
	}
	return "Outcome: LOST\n"
}

func formatActionResult(action engine.Action, result *actionView) string {
	var b strings.Builder

	switch {
	case result.Dropped:
		fmt.Fprintf(&b, "✗ %s ignored by the tutorial: %s\n", action.Type, result.Message)
	case !result.Accepted:
		fmt.Fprintf(&b, "✗ %s refused (%s): %s\n", action.Type, result.ReasonCode, result.Message)
	default:
		fmt.Fprintf(&b, "✓ %s accepted", action.Type)
		if result.Message != "" {
			fmt.Fprintf(&b, ": %s", result.Message)
		}
		b.WriteString("\n")
	}

	if result.Outcome != nil {
		b.WriteString(formatOutcome(result.Outcome))
		if result.Profile != nil {
			fmt.Fprintf(&b, "Chips now: %d\n", result.Profile.Chips)
		}
	}

	if result.Round != nil {
		b.WriteString("\n")
		b.WriteString(formatRound(result.Round))
	}

	return b.String()
}

func formatProfile(p *profile.Profile) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Chips: %d | Runs: %d | Loadout slots: %d\n", p.Chips, p.Runs, p.UnlockedSlots)
	if len(p.Loadout) > 0 {
		b.WriteString("Loadout:\n")
		for _, it := range p.Loadout {
			fmt.Fprintf(&b, "  - %s (%s) uid=%s\n", it.Name, it.ItemID, it.UID)
		}
	}
	if len(p.Warehouse) > 0 {
		b.WriteString("Warehouse:\n")
		for _, it := range p.Warehouse {
			fmt.Fprintf(&b, "  - %s (%s) uid=%s\n", it.Name, it.ItemID, it.UID)
		}
	}
	return b.String()
}

func formatCatalog(catalog *service.CatalogInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule set: %s\n\nTiers:\n", catalog.ConfigName)
	for _, t := range catalog.Tiers {
		fmt.Fprintf(&b, "  - %s: %s (cost %d, %d slots, deck %d)\n", t.ID, t.Name, t.Cost, t.Slots, t.DeckSize)
	}
	b.WriteString("\nShop:\n")
	for _, it := range catalog.Items {
		fmt.Fprintf(&b, "  - %s: %s (cost %d, %s)\n", it.ID, it.Name, it.Cost, it.Kind)
	}
	if catalog.NextUnlockCost > 0 {
		fmt.Fprintf(&b, "\nNext loadout slot: %d chips\n", catalog.NextUnlockCost)
	}
	return b.String()
}

func formatShopResult(result *service.ShopResult) string {
	var b strings.Builder
	if result.Message != "" {
		b.WriteString(result.Message + "\n")
	}
	if result.Item != nil {
		fmt.Fprintf(&b, "Received %s uid=%s\n", result.Item.Name, result.Item.UID)
	}
	fmt.Fprintf(&b, "Spent: %d\n", result.Spent)
	b.WriteString(formatProfile(result.Profile))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action History (Page %d/%d, %d total):\n\n", history.Page, history.TotalPages, history.TotalActions)
	for _, entry := range history.Actions {
		mark := "✓"
		if !entry.Accepted {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s", entry.Number, mark, formatActions([]engine.Action{entry.Action}))
		if entry.PhaseBefore != entry.PhaseAfter {
			fmt.Fprintf(&b, " %s -> %s", entry.PhaseBefore, entry.PhaseAfter)
		}
		if entry.Reason != "" {
			fmt.Fprintf(&b, " (%s)", entry.Reason)
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		b.WriteString("\nMore actions available on the next page.\n")
	}
	return b.String()
}
