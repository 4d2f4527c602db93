// Command maskseq runs the Mask the Sequence round engine.
//
// Subcommands:
//   - server (default): REST API, WebSocket feed and an /mcp HTTP endpoint
//   - mcp: MCP stdio server, backed by a running API or an internal one
//   - validate: lint the rule sets in the config directory
//   - analyze: simulate rounds per tier and print win rates
//
// Settings come from the environment (and an optional .env file); flags
// override them. ngrok tunneling is available for development access.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mask-the-sequence/api"
	"github.com/wricardo/mask-the-sequence/game/config"
	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/service"
	"github.com/wricardo/mask-the-sequence/game/session"
	"github.com/wricardo/mask-the-sequence/game/sim"
	"github.com/wricardo/mask-the-sequence/transport/mcp"
	"github.com/wricardo/mask-the-sequence/transport/websocket"
	"github.com/wricardo/mask-the-sequence/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Mask the Sequence Server"
)

const (
	cleanupInterval = time.Hour
	sessionMaxAge   = 24 * time.Hour
	externalAPIURL  = "http://localhost:8080"
)

// Settings is the process configuration read from the environment
type Settings struct {
	Host           string `env:"HOST" envDefault:"localhost"`
	Port           int    `env:"PORT" envDefault:"8080"`
	ConfigDir      string `env:"CONFIG_DIR" envDefault:"configs"`
	Debug          bool   `env:"DEBUG"`
	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	// NGROK_AUTH_TOKEN is accepted as well
	NgrokAuthTokenAlt string `env:"NGROK_AUTH_TOKEN"`
	NgrokDomain       string `env:"NGROK_DOMAIN"`
}

// Addr is the host:port the HTTP server binds to
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthToken returns whichever ngrok token variable is set
func (s Settings) AuthToken() string {
	if s.NgrokAuthToken != "" {
		return s.NgrokAuthToken
	}
	return s.NgrokAuthTokenAlt
}

func main() {
	// Missing .env is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "maskseq",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host (env HOST)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port (env PORT)"},
			&cli.StringFlag{Name: "config-dir", Usage: "Directory containing rule sets (env CONFIG_DIR)"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging (env DEBUG)"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (env NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (env NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (env NGROK_DOMAIN)"},
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run the HTTP server with API, WebSocket and MCP endpoint",
				Action:  runServerCommand,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run an MCP stdio server, starting an internal HTTP API if none is running",
				Action:  runMCPCommand,
			},
			{
				Name:   "validate",
				Usage:  "Validate every rule set in the config directory",
				Action: runValidateCommand,
			},
			{
				Name:  "analyze",
				Usage: "Simulate rounds for every tier of every rule set",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "rounds", Value: 1000, Usage: "Rounds per tier"},
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "First seed"},
					&cli.StringFlag{Name: "bot", Value: "greedy", Usage: "Bot strategy (greedy, random)"},
				},
				Action: runAnalyzeCommand,
			},
		},
	}
}

// loadSettings reads the environment and applies any flags that were set
func loadSettings(cmd *cli.Command) (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parse env: %w", err)
	}

	if cmd.IsSet("host") {
		s.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("config-dir") {
		s.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("debug") {
		s.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		s.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		s.NgrokAuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		s.NgrokDomain = cmd.String("ngrok-domain")
	}
	return s, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func setup(cmd *cli.Command) (Settings, *zap.Logger, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return settings, nil, err
	}
	logger, err := newLogger(settings.Debug)
	if err != nil {
		return settings, nil, fmt.Errorf("create logger: %w", err)
	}
	return settings, logger, nil
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	settings, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "server"))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameService, sessions, err := initializeServices(settings.ConfigDir, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	go sessionCleanupRoutine(ctx, sessions, logger)

	return runHTTPServer(ctx, settings, gameService, logger)
}

// newRouter combines the API server and the /mcp endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer serves the API, WebSocket hub and /mcp until ctx is done.
// With ngrok enabled the same router is also served through a tunnel.
func runHTTPServer(ctx context.Context, settings Settings, gameService service.GameService, logger *zap.Logger) error {
	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	apiServer := api.NewServer(gameService, hub, logger.Named("api"))

	addr := settings.Addr()
	mainRouter := newRouter(apiServer, mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("api", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>"),
			zap.String("mcp", "http://"+addr+"/mcp"))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if settings.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, settings, mainRouter, logger.Named("ngrok"))
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server stopped")
	return runErr
}

func runNgrokTunnel(ctx context.Context, settings Settings, handler http.Handler, logger *zap.Logger) {
	authToken := settings.AuthToken()
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if settings.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.NgrokDomain))
		logger.Info("using custom ngrok domain", zap.String("domain", settings.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	// Serve returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("api", url+"/api"),
		zap.String("mcp", url+"/mcp"))

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// initializeServices wires the config and session managers into the game service
func initializeServices(configDir string, logger *zap.Logger) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	gameService := service.NewGameService(sessionManager, configManager, logger.Named("service"))
	return gameService, sessionManager, nil
}

// sessionCleanupRoutine prunes sessions idle for longer than sessionMaxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, logger *zap.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

// runMCPCommand serves MCP over stdio. It reuses an API already listening on
// localhost:8080 and otherwise starts one on a random loopback port.
// Logs go to stderr; stdout belongs to the protocol.
func runMCPCommand(ctx context.Context, cmd *cli.Command) error {
	settings, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL := externalAPIURL
	if !apiAvailable(baseURL) {
		logger.Info("no external API server found, starting internal HTTP server")

		gameService, sessions, err := initializeServices(settings.ConfigDir, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		go sessionCleanupRoutine(ctx, sessions, logger)

		baseURL, err = startInternalServer(ctx, gameService, logger)
		if err != nil {
			return err
		}
	}

	logger.Info("MCP stdio server ready", zap.String("api", baseURL))
	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// startInternalServer serves the API on 127.0.0.1:0 and returns its base URL
func startInternalServer(ctx context.Context, gameService service.GameService, logger *zap.Logger) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub, logger.Named("api"))}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("internal HTTP server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	return "http://" + listener.Addr().String(), nil
}

func runValidateCommand(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Validating rule sets in %s\n", settings.ConfigDir)
	results, err := validate.Dir(settings.ConfigDir)
	if err != nil {
		return err
	}
	if !validate.WriteReport(os.Stdout, results) {
		return cli.Exit("validation failed", 1)
	}
	return nil
}

func runAnalyzeCommand(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	rounds := int(cmd.Int("rounds"))
	seed := cmd.Int64("seed")
	bot, err := sim.BotByName(cmd.String("bot"), seed)
	if err != nil {
		return err
	}

	configs, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return err
	}
	infos, err := configs.ListConfigs()
	if err != nil {
		return err
	}

	for _, info := range infos {
		rules, err := configs.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Printf("%s: %v\n", info.ConfigID, err)
			continue
		}
		if err := analyzeRuleSet(os.Stdout, rules, rounds, seed, bot); err != nil {
			return err
		}
	}
	return nil
}

func analyzeRuleSet(w io.Writer, rules *engine.RuleSet, rounds int, seed int64, bot sim.Bot) error {
	fmt.Fprintf(w, "\n=== %s ===\n", rules.Name)
	stats, err := sim.SimulateRuleSet(rules, rounds, seed, bot)
	if err != nil {
		return err
	}
	return sim.WriteReport(w, rules, stats)
}
