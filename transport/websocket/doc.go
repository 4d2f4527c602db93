// Package websocket pushes round updates to spectators of a session.
//
// A central Hub owns every connection, grouped by session ID. Clients
// connect with ?session=<id> and only listen: inbound frames are read to
// keep the connection alive and otherwise discarded. Actions go through the
// REST API, which calls BroadcastRound or BroadcastEvent afterwards.
//
// Outgoing messages are JSON:
//
//	{"session_id": "abc1", "event": "round_update", "round": {...}}
//	{"session_id": "abc1", "event": "round_settled", "data": {...}}
//
// Slow clients whose send buffer fills up are dropped rather than allowed
// to stall the hub.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Run returns when ctx is cancelled, closing every client.
package websocket
