// pawtine-mcp serves the routine tools to MCP clients over stdio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Zaphkiel07/Pawtine2/internal/config"
	"github.com/Zaphkiel07/Pawtine2/internal/mcptools"
	"github.com/Zaphkiel07/Pawtine2/internal/routines"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
)

const version = "0.3.0"

var cli struct {
	Version kong.VersionFlag
	User    string `help:"Owner ID the tools act for. Defaults to DEMO_USER_ID." env:"PAWTINE_MCP_USER"`
	Store   string `help:"Store driver override (memory, sqlite, postgres)."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("pawtine-mcp"),
		kong.Description("Pawtine routine tools for MCP clients (stdio)"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	// stdout carries the MCP protocol, so logs go to stderr.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pawtine-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}
	if cli.Store != "" {
		if err := os.Setenv("STORE_DRIVER", cli.Store); err != nil {
			return fmt.Errorf("set store driver: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	userID := cli.User
	if userID == "" {
		userID = cfg.DemoUser
	}
	if userID == "" {
		return fmt.Errorf("no owner: pass --user or set DEMO_USER_ID")
	}

	repo, err := store.Open(context.Background(), cfg, schedule.SystemClock)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	svc := routines.NewService(repo, routines.WithClock(schedule.SystemClock))
	s := mcptools.NewServer(svc, userID, version)

	slog.Info("MCP server ready", "user_id", userID, "backend", repo.Backend())
	return server.ServeStdio(s)
}
