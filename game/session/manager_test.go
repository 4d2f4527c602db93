package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/service"
)

func createTestConfig() *engine.RuleSet {
	rules := engine.DefaultRuleSet()
	rules.Name = "Test Config"
	return rules
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "classic", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Profile == nil {
			t.Fatal("Expected profile to be initialized")
		}
		if session.Profile.Chips != config.InitialChips {
			t.Errorf("Expected %d starting chips, got %d", config.InitialChips, session.Profile.Chips)
		}
		if session.Round != nil {
			t.Error("Expected no round on a new session")
		}
		if session.ConfigName != "classic" {
			t.Errorf("Expected config name 'classic', got '%s'", session.ConfigName)
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "classic", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character session ID, got %d characters", len(session.ID))
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", "classic", config)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", "classic", config)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		invalidConfig := createTestConfig()
		invalidConfig.Tiers = nil
		_, err := manager.Create("invalid-test", "bad", invalidConfig)
		if !errors.Is(err, service.ErrInvalidRequest) {
			t.Errorf("Expected ErrInvalidRequest for invalid config, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("a/b", "classic", config)
		if err != ErrInvalidSessionID {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, _ := manager.Create("get-test", "classic", createTestConfig())

	t.Run("get existing session", func(t *testing.T) {
		session, err := manager.Get("get-test")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if session != created {
			t.Error("Expected the created session")
		}
	})

	t.Run("case-insensitive get", func(t *testing.T) {
		session, err := manager.Get("GET-TEST")
		if err != nil {
			t.Fatalf("Failed to get session with different case: %v", err)
		}
		if session.ID != created.ID {
			t.Errorf("Expected same session regardless of case")
		}
	})

	t.Run("get non-existent session", func(t *testing.T) {
		_, err := manager.Get("non-existent")
		if !errors.Is(err, service.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	first, err := manager.GetOrCreate("new-session", "classic", config)
	if err != nil {
		t.Fatalf("Failed to get or create session: %v", err)
	}
	first.Profile.Chips = 7

	second, err := manager.GetOrCreate("new-session", "classic", config)
	if err != nil {
		t.Fatalf("Failed to get existing session: %v", err)
	}
	if second.Profile.Chips != 7 {
		t.Error("Expected the existing session to be returned")
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()
	manager.Create("delete-test", "classic", config)

	t.Run("delete existing session", func(t *testing.T) {
		if err := manager.Delete("delete-test"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if _, err := manager.Get("delete-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted")
		}
	})

	t.Run("delete non-existent session", func(t *testing.T) {
		if err := manager.Delete("non-existent"); err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("case-insensitive delete", func(t *testing.T) {
		manager.Create("case-test", "classic", config)
		if err := manager.Delete("CASE-TEST"); err != nil {
			t.Fatalf("Failed to delete with different case: %v", err)
		}
		if _, err := manager.Get("case-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted regardless of case")
		}
	})
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	for i := 1; i <= 3; i++ {
		manager.Create(fmt.Sprintf("list-%d", i), "classic", config)
	}

	sessions := manager.List()
	if len(sessions) != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(sessions))
	}

	found := make(map[string]bool)
	for _, s := range sessions {
		found[s.ID] = true
	}
	for i := 1; i <= 3; i++ {
		if !found[fmt.Sprintf("list-%d", i)] {
			t.Errorf("Session list-%d not found in list", i)
		}
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	active, _ := manager.Create("active", "classic", config)
	expired, _ := manager.Create("expired", "classic", config)

	// Simulate expired session
	expired.Touch(time.Now().Add(-2 * time.Hour))
	active.Touch(time.Now())

	deleted := manager.CleanupExpiredSessions(1 * time.Hour)
	if deleted != 1 {
		t.Errorf("Expected 1 session to be deleted, got %d", deleted)
	}

	if _, err := manager.Get("expired"); err != ErrSessionNotFound {
		t.Error("Expected expired session to be deleted")
	}
	if _, err := manager.Get("active"); err != nil {
		t.Error("Expected active session to still exist")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return base }

	session, _ := manager.Create("access-test", "classic", createTestConfig())
	if !session.LastAccessedAt().Equal(base) {
		t.Fatalf("Expected creation time %v, got %v", base, session.LastAccessedAt())
	}

	manager.now = func() time.Time { return base.Add(time.Minute) }
	if err := manager.UpdateLastAccessed("ACCESS-TEST"); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}

	updated, _ := manager.Get("access-test")
	if !updated.LastAccessedAt().After(base) {
		t.Error("Expected LastAccessedAt to be updated")
	}

	if err := manager.UpdateLastAccessed("missing"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_Exists(t *testing.T) {
	manager := NewManager()
	manager.Create("exists-test", "classic", createTestConfig())

	if !manager.sessionExists("exists-test") {
		t.Error("Expected session to exist")
	}
	if !manager.sessionExists("EXISTS-TEST") {
		t.Error("Expected session to exist regardless of case")
	}
	if manager.sessionExists("non-existent") {
		t.Error("Expected session not to exist")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("conc-%d", id%20)
			if _, err := manager.Create(sessionID, "classic", config); err != nil && err != ErrSessionAlreadyExists {
				errs <- err
			}
			manager.UpdateLastAccessed(sessionID)
			manager.Get(sessionID)
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}

	if manager.Count() != 20 {
		t.Errorf("Expected 20 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	session1, _ := manager.Create("iso-1", "classic", config)
	session2, _ := manager.Create("iso-2", "classic", config)

	session1.Profile.Chips = 999

	if session2.Profile.Chips != config.InitialChips {
		t.Error("Session 2 should not be affected by session 1 changes")
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	generatedIDs := make(map[string]bool)

	for i := 0; i < 50; i++ {
		session, err := manager.Create("", "classic", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		if generatedIDs[session.ID] {
			t.Errorf("Duplicate session ID generated: %s", session.ID)
		}
		generatedIDs[session.ID] = true

		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %d", len(session.ID))
		}
	}
}
