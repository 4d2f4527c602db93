// Package service provides the business logic layer for the round engine.
//
// The service package implements:
//   - Multi-session management, one profile per session
//   - Rule set loading through a ConfigManager
//   - Round lifecycle: paid tiers, the scripted tutorial, abandoning
//   - Settlement of finished rounds into the profile
//   - The shop and loadout operations
//   - Paginated action history
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager stores sessions. ConfigManager loads and lists rule sets.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. A session holds at most one round. Player actions are applied
// through the round's engine, or through the tutorial interceptor when the
// round is the training round. Engine refusals are not service errors: Act
// reports them in ActionResult with a reason code and leaves the round as it
// was. The first transition into a terminal phase settles the round into the
// profile exactly once.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, logger)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	round, err := gameService.StartRound(ctx, info.ID, "tier_1", 0)
//	res, err := gameService.Act(ctx, info.ID, engine.Action{Type: engine.ActionPlace, Slot: 0})
//
// A seed of zero deals a time-seeded deck; any other seed deals the same
// deck every time.
package service
