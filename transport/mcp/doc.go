// Package mcp exposes the round engine to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes one REST request
// against a running api.Server, and the JSON response is rendered as text
// an agent can read.
//
// MCP Tools:
//   - create_session, get_session, list_sessions
//   - start_tutorial, start_round, end_round
//   - act: place, cast_blind, sacrifice, confirm_peek, resolve_blind, toggle_void, abandon
//   - peek: goggles preview of the next two cards
//   - round_state, history
//   - profile, catalog, buy, equip, unequip, unlock_slot
//   - list_configs, game_instructions
//
// Arguments are decoded with mapstructure in weakly typed mode, so agents
// may send numbers as strings.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the main server forwards POST /mcp bodies to HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
