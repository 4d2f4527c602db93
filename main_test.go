package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mask-the-sequence/api"
	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/sim"
	"github.com/wricardo/mask-the-sequence/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version != "1.0.0" {
		t.Errorf("Expected version 1.0.0, got %s", Version)
	}
	if AppName != "Mask the Sequence Server" {
		t.Errorf("Expected app name 'Mask the Sequence Server', got %s", AppName)
	}
}

func TestSettingsDefaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "CONFIG_DIR", "DEBUG", "NGROK_ENABLED", "NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN", "NGROK_DOMAIN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	settings, err := loadSettings(newCommand())
	if err != nil {
		t.Fatalf("loadSettings failed: %v", err)
	}
	if settings.Addr() != "localhost:8080" {
		t.Errorf("Expected localhost:8080, got %s", settings.Addr())
	}
	if settings.ConfigDir != "configs" {
		t.Errorf("Expected configs, got %s", settings.ConfigDir)
	}
	if settings.Debug || settings.NgrokEnabled {
		t.Error("Expected debug and ngrok to be off by default")
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9090")
	t.Setenv("CONFIG_DIR", "/etc/maskseq")
	t.Setenv("NGROK_ENABLED", "1")
	t.Setenv("NGROK_AUTHTOKEN", "")
	t.Setenv("NGROK_AUTH_TOKEN", "alt-token")

	settings, err := loadSettings(newCommand())
	if err != nil {
		t.Fatalf("loadSettings failed: %v", err)
	}
	if settings.Addr() != "0.0.0.0:9090" {
		t.Errorf("Expected 0.0.0.0:9090, got %s", settings.Addr())
	}
	if settings.ConfigDir != "/etc/maskseq" {
		t.Errorf("Expected /etc/maskseq, got %s", settings.ConfigDir)
	}
	if !settings.NgrokEnabled {
		t.Error("Expected NGROK_ENABLED=1 to enable ngrok")
	}
	if settings.AuthToken() != "alt-token" {
		t.Errorf("Expected the underscore token to be used, got %q", settings.AuthToken())
	}
}

func TestSettingsInvalidEnv(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	if _, err := loadSettings(newCommand()); err == nil {
		t.Error("Expected error for invalid PORT")
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONFIG_DIR", "from-env")

	var got Settings
	cmd := newCommand()
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		s, err := loadSettings(c)
		got = s
		return err
	}
	if err := cmd.Run(context.Background(), []string{"maskseq", "--port", "7070"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got.Port != 7070 {
		t.Errorf("Expected flag port 7070, got %d", got.Port)
	}
	if got.ConfigDir != "from-env" {
		t.Errorf("Expected env config dir, got %s", got.ConfigDir)
	}
}

func TestCommandTree(t *testing.T) {
	cmd := newCommand()
	for _, name := range []string{"server", "mcp", "validate", "analyze"} {
		if cmd.Command(name) == nil {
			t.Errorf("Expected subcommand %q", name)
		}
	}
	if cmd.Command("stdio-mcp") == nil {
		t.Error("Expected stdio-mcp alias for mcp")
	}
}

func TestInitializeServices(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	gameService, sessions, err := initializeServices("configs", zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	if gameService == nil || sessions == nil {
		t.Fatal("Expected service and session manager")
	}

	info, err := gameService.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sessions.Count() != 1 {
		t.Errorf("Expected 1 session, got %d (created %s)", sessions.Count(), info.ID)
	}
}

func TestInitializeServicesInvalidDir(t *testing.T) {
	if _, _, err := initializeServices(filepath.Join(t.TempDir(), "missing"), zap.NewNop()); err == nil {
		t.Error("Expected error for missing config directory")
	}
}

func TestMCPEndpoint(t *testing.T) {
	gameService, _, err := initializeServices(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	apiServer := api.NewServer(gameService, nil, zap.NewNop())
	backend := httptest.NewServer(apiServer)
	defer backend.Close()

	router := newRouter(apiServer, mcp.NewClient(backend.URL))

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /mcp, got %d", rr.Code)
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	req = httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON-RPC response: %v", err)
	}
	if !strings.Contains(rr.Body.String(), "start_round") {
		t.Errorf("Expected start_round in tool list, got %s", rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected API routes behind the router, got %d for /health", rr.Code)
	}
}

func TestStartInternalServer(t *testing.T) {
	gameService, _, err := initializeServices(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	baseURL, err := startInternalServer(ctx, gameService, zap.NewNop())
	if err != nil {
		t.Fatalf("startInternalServer failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !apiAvailable(baseURL) {
		if time.Now().After(deadline) {
			t.Fatalf("Internal server at %s never became available", baseURL)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestAnalyzeRuleSet(t *testing.T) {
	var sb strings.Builder
	if err := analyzeRuleSet(&sb, engine.DefaultRuleSet(), 10, 1, sim.GreedyBot{}); err != nil {
		t.Fatalf("analyzeRuleSet failed: %v", err)
	}
	if !strings.Contains(sb.String(), "=== classic ===") || !strings.Contains(sb.String(), "tier_2") {
		t.Errorf("Unexpected report:\n%s", sb.String())
	}
}
