package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mask-the-sequence/game/config"
	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/profile"
	"github.com/wricardo/mask-the-sequence/game/service"
	"github.com/wricardo/mask-the-sequence/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server. hub may be nil when no live updates are wanted.
func NewServer(gameService service.GameService, hub *websocket.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// Unified sessions for multi-session view (must be before {id} pattern)
	api.HandleFunc("/sessions/unified", s.handleUnifiedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Round operations
	api.HandleFunc("/sessions/{id}/round", s.handleStartRound).Methods("POST")
	api.HandleFunc("/sessions/{id}/round", s.handleGetRound).Methods("GET")
	api.HandleFunc("/sessions/{id}/round/end", s.handleEndRound).Methods("POST")
	api.HandleFunc("/sessions/{id}/tutorial", s.handleStartTutorial).Methods("POST")
	api.HandleFunc("/sessions/{id}/actions", s.handleAct).Methods("POST")
	api.HandleFunc("/sessions/{id}/peek", s.handlePeek).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Profile and shop
	api.HandleFunc("/sessions/{id}/profile", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/sessions/{id}/catalog", s.handleGetCatalog).Methods("GET")
	api.HandleFunc("/sessions/{id}/shop/buy", s.handleBuy).Methods("POST")
	api.HandleFunc("/sessions/{id}/loadout/equip", s.handleEquip).Methods("POST")
	api.HandleFunc("/sessions/{id}/loadout/unequip", s.handleUnequip).Methods("POST")
	api.HandleFunc("/sessions/{id}/loadout/unlock", s.handleUnlockSlot).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"error": message, "code": status})
}

// statusFor maps service, profile and engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrNoRound),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRoundInProgress),
		errors.Is(err, profile.ErrRoundActive),
		errors.Is(err, profile.ErrAlreadyFree),
		errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrRoundOver),
		errors.Is(err, engine.ErrNoGoggles),
		errors.Is(err, engine.ErrInsufficientCards):
		return http.StatusConflict
	case errors.Is(err, profile.ErrInsufficientChips):
		return http.StatusPaymentRequired
	case errors.Is(err, config.ErrInvalidConfig),
		service.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	respondError(w, status, err.Error())
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

func (s *Server) broadcastRound(sessionID string, round *service.RoundInfo) {
	if s.hub != nil && round != nil {
		s.hub.BroadcastRound(sessionID, round)
	}
}

func (s *Server) broadcastEvent(sessionID, event string, data interface{}) {
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, event, data)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Support both new and old parameter names, but prefer config_id
	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Round Handlers

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		TierID string `json:"tier_id"`
		Seed   int64  `json:"seed,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TierID == "" {
		respondError(w, http.StatusBadRequest, "tier_id is required")
		return
	}

	round, err := s.service.StartRound(r.Context(), sessionID, req.TierID, req.Seed)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.broadcastRound(sessionID, round)
	respondJSON(w, http.StatusCreated, round)
}

func (s *Server) handleStartTutorial(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	round, err := s.service.StartTutorial(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.broadcastRound(sessionID, round)
	respondJSON(w, http.StatusCreated, round)
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	round, err := s.service.GetRound(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, round)
}

func (s *Server) handleAct(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var action engine.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if action.Type == "" {
		respondError(w, http.StatusBadRequest, "action type is required")
		return
	}

	result, err := s.service.Act(r.Context(), sessionID, action)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.broadcastRound(sessionID, result.Round)
	if result.Outcome != nil {
		s.broadcastEvent(sessionID, "round_settled", result.Outcome)
	}

	s.logger.Info("action",
		zap.String("session", sessionID),
		zap.String("type", string(action.Type)),
		zap.Int("slot", action.Slot),
		zap.Bool("accepted", result.Accepted),
		zap.Bool("dropped", result.Dropped),
		zap.String("reason", result.ReasonCode))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePeek(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Peek(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleEndRound(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.EndRound(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.broadcastEvent(sessionID, "round_ended", result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetActionHistory(r.Context(), sessionID, opts)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Profile and Shop Handlers

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetProfile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.service.GetCatalog(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		ItemID string `json:"item_id"`
	}
	if err := decodeBody(r, &req); err != nil || req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	result, err := s.service.Buy(r.Context(), sessionID, req.ItemID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if result.Victory {
		s.broadcastEvent(sessionID, "victory", result.Profile)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	s.handleLoadout(w, r, s.service.Equip)
}

func (s *Server) handleUnequip(w http.ResponseWriter, r *http.Request) {
	s.handleLoadout(w, r, s.service.Unequip)
}

func (s *Server) handleLoadout(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID, uid string) (*service.ProfileInfo, error)) {
	var req struct {
		UID string `json:"uid"`
	}
	if err := decodeBody(r, &req); err != nil || req.UID == "" {
		respondError(w, http.StatusBadRequest, "uid is required")
		return
	}

	info, err := op(r.Context(), mux.Vars(r)["id"], req.UID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleUnlockSlot(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.UnlockSlot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := mux.Vars(r)["name"]

	rules, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rules)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var rules engine.RuleSet

	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if rules.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(rules.Name), " ", "_"))
	if err := s.service.SaveConfig(r.Context(), configID, &rules); err != nil {
		s.respondServiceError(w, r, fmt.Errorf("failed to save config: %w", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// Unified Sessions Handler

func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var sessions []*service.SessionInfo

	if sessionIDs := query.Get("sessionIds"); sessionIDs != "" {
		for _, id := range strings.Split(sessionIDs, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if session, err := s.service.GetSession(r.Context(), id); err == nil {
				sessions = append(sessions, session)
			}
		}
	} else {
		allSessions, err := s.service.ListSessions(r.Context())
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		configName := query.Get("configName")
		for _, session := range allSessions {
			if configName == "" || session.ConfigName == configName {
				sessions = append(sessions, session)
			}
		}
	}

	configName := ""
	if len(sessions) > 0 {
		configName = sessions[0].ConfigName
	}

	entries := make([]map[string]interface{}, 0, len(sessions))
	for _, session := range sessions {
		entry := map[string]interface{}{
			"session_id":    session.ID,
			"config_name":   session.ConfigName,
			"chips":         session.Profile.Chips,
			"runs":          session.Profile.Runs,
			"victory":       session.Profile.HasWon,
			"rounds_played": session.RoundsPlayed,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessedAt,
		}
		if session.Round != nil {
			entry["tier_id"] = session.Round.TierID
			entry["phase"] = session.Round.State.Phase
		}
		entries = append(entries, entry)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"config_name": configName,
		"sessions":    entries,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
