// Package session provides in-memory session storage for the round engine.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs
//   - Case-insensitive lookup
//   - Expiry of idle sessions
//
// Core Types:
//
// Manager implements service.SessionManager. Each session it creates carries a
// fresh profile built from the session's rule set. Rounds are attached later
// by the service layer.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters drawn from crypto/rand. A caller may
// also supply its own ID; lookups ignore case.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "classic", rules)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	sessions := manager.List()
//
// Cleanup:
//
// Sessions are dropped explicitly with Delete or in bulk with
// CleanupExpiredSessions. Nothing is written to disk.
package session
