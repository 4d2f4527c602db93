// Package api provides HTTP REST API handlers for the round engine.
//
// The api package implements:
//   - Session management endpoints
//   - Round control (start, act, peek, end, history)
//   - Profile, shop and loadout endpoints
//   - Configuration listing, loading and saving
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (sort, order, limit)
//   - GET /api/sessions/unified - Multi-session overview
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Rounds:
//   - POST /api/sessions/{id}/round - Start a paid round ({"tier_id": "tier_1", "seed": 7})
//   - GET /api/sessions/{id}/round - Current round view
//   - POST /api/sessions/{id}/tutorial - Start the scripted tutorial round
//   - POST /api/sessions/{id}/actions - Submit one action
//   - GET /api/sessions/{id}/peek - Preview the next deck cards (needs goggles)
//   - POST /api/sessions/{id}/round/end - Leave the round, abandoning it if live
//   - GET /api/sessions/{id}/history - Paginated action history
//
// Profile and Shop:
//   - GET /api/sessions/{id}/profile
//   - GET /api/sessions/{id}/catalog
//   - POST /api/sessions/{id}/shop/buy ({"item_id": "void_goggles"})
//   - POST /api/sessions/{id}/loadout/equip ({"uid": "..."})
//   - POST /api/sessions/{id}/loadout/unequip ({"uid": "..."})
//   - POST /api/sessions/{id}/loadout/unlock
//
// Configuration:
//   - GET /api/configs - List available rule sets
//   - GET /api/configs/{name} - Get one rule set
//   - POST /api/configs - Save a rule set
//
// Actions are sent as POST with JSON body:
//
//	{
//	  "type": "place|cast_blind|sacrifice|confirm_peek|resolve_blind|toggle_void|abandon",
//	  "slot": 2,           // place, cast_blind, resolve_blind
//	  "value": 10,         // resolve_blind
//	  "use_blind": false   // confirm_peek
//	}
//
// A refused action is not an HTTP error. The response is 200 with
// "accepted": false and a "reason_code" such as "invalid_slot" or
// "no_sacrifices". Actions dropped by the tutorial carry "dropped": true.
//
// Usage:
//
//	server := api.NewServer(gameService, hub, logger)
//	http.ListenAndServe(":8080", server)
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message",
//	  "code": 409
//	}
//
// Missing sessions and rounds map to 404, conflicting round state to 409,
// unaffordable purchases to 402 and other bad requests to 400.
package api
