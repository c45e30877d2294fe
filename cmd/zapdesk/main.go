// ABOUTME: Entry point for the zapdesk CRM server
// ABOUTME: Serves the dashboard API over a sqlite-backed store

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/zapdesk/zapdesk/internal/api"
	"github.com/zapdesk/zapdesk/internal/auth"
	"github.com/zapdesk/zapdesk/internal/config"
	"github.com/zapdesk/zapdesk/internal/conversation"
	"github.com/zapdesk/zapdesk/internal/directory"
	"github.com/zapdesk/zapdesk/internal/instance"
	"github.com/zapdesk/zapdesk/internal/metrics"
	"github.com/zapdesk/zapdesk/internal/seed"
	"github.com/zapdesk/zapdesk/internal/session"
	"github.com/zapdesk/zapdesk/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                      _           _
 ______ _ _ __   __| | ___  ___| | __
|_  / _' | '_ \ / _' |/ _ \/ __| |/ /
 / / (_| | |_) | (_| |  __/\__ \   <
/___\__,_| .__/ \__,_|\___||___/_|\_\
         |_|
`

// getConfigPath returns the path to the server config file.
// Priority: ZAPDESK_CONFIG env var > XDG_CONFIG_HOME/zapdesk/server.yaml > ~/.config/zapdesk/server.yaml
func getConfigPath() string {
	if envPath := os.Getenv("ZAPDESK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "server.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "zapdesk", "server.yaml")
}

// getDataPath returns the path to the zapdesk data directory.
// Priority: XDG_DATA_HOME/zapdesk > ~/.local/share/zapdesk
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "zapdesk")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: zapdesk <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve            Start the CRM server")
		fmt.Println("  init             Create a config file with a generated secret")
		fmt.Println("  seed [file]      Load demo data (or a YAML fixture) into the database")
		fmt.Println("  health           Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "seed":
		err = runSeed(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	green := color.New(color.FgGreen)
	green.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()

	logger.Info("starting zapdesk",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"database", cfg.Database.Path,
	)

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if cfg.Seed.Path != "" {
		if err := applySeedIfEmpty(ctx, cfg.Seed.Path, st, logger); err != nil {
			return err
		}
	}

	sessions := session.New(st, st, logger)
	sessions.RestoreOnStart(ctx)

	broadcaster := conversation.NewBroadcaster(logger)
	defer broadcaster.Close()

	srv := api.New(api.Options{
		Sessions:      sessions,
		Conversations: conversation.New(st, broadcaster, logger),
		Team:          directory.New(st, logger),
		Instances:     instance.New(st, logger),
		Stats:         metrics.New(st, logger),
		Users:         st,
		Verifier:      auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
		TokenTTL:      cfg.Auth.TokenTTL,
		CORSOrigins:   cfg.Server.CORSOrigins,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// applySeedIfEmpty loads the fixture only into a fresh database so demo
// data never clobbers real conversations on restart.
func applySeedIfEmpty(ctx context.Context, path string, st *store.SQLiteStore, logger *slog.Logger) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("checking existing users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}

	fixture, err := seed.Load(path)
	if err != nil {
		return fmt.Errorf("loading seed fixture: %w", err)
	}
	if err := seed.Apply(ctx, fixture, st, logger); err != nil {
		return fmt.Errorf("applying seed fixture: %w", err)
	}
	return nil
}

func runInit() error {
	configPath := getConfigPath()
	dataPath := getDataPath()
	dbPath := filepath.Join(dataPath, "zapdesk.db")

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if _, err := os.Stat(configPath); err == nil {
		yellow.Printf("  config already exists: %s\n", configPath)
		return nil
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	configContent := fmt.Sprintf(`# zapdesk configuration
# Generated by zapdesk init

server:
  http_addr: "localhost:8080"
  cors_origins:
    - "http://localhost:5173"

database:
  path: "%s"

auth:
  jwt_secret: "%s"
  token_ttl: "168h"

logging:
  level: "info"
  format: "text"
`, dbPath, jwtSecret)

	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	green.Printf("  ✓ Created config: %s\n", configPath)
	green.Printf("  ✓ Database path:  %s\n", dbPath)
	fmt.Println()
	fmt.Println("Next: zapdesk seed && zapdesk serve")
	return nil
}

// runSeed loads demo data into the configured database. An optional file
// argument points at a YAML fixture; without it the built-in demo dataset
// is used.
func runSeed(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var fixture *seed.Fixture
	if len(os.Args) > 2 {
		fixture, err = seed.Load(os.Args[2])
		if err != nil {
			return fmt.Errorf("loading fixture: %w", err)
		}
	} else {
		fixture = seed.Default()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	logger := setupLogger(cfg.Logging)
	if err := seed.Apply(ctx, fixture, st, logger); err != nil {
		return fmt.Errorf("applying fixture: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Seeded %d users, %d chats, %d messages, %d instances\n",
		len(fixture.Users), len(fixture.Chats), len(fixture.Messages), len(fixture.Instances))
	return nil
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/api/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
