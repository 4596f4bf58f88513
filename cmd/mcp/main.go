package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/host"
	announcemcp "github.com/urmzd/announce/pkg/mcp"
	"github.com/urmzd/announce/pkg/publish"
	"github.com/urmzd/announce/pkg/scheduler"
	"github.com/urmzd/announce/pkg/speech"
	"github.com/urmzd/announce/pkg/template"
)

func main() {
	// Logging must go to stderr — stdout is the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/announce/announce.db)")
	storePath := flag.String("store", "", "Path to announcement store file (default: next to the database)")
	flag.Parse()

	ctx := context.Background()

	// Open database
	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	// Run migrations
	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Bootstrap if needed (first run)
	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap database")
		}
		log.Info().Msg("Database bootstrapped successfully")
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if *storePath == "" {
		*storePath = filepath.Join(filepath.Dir(database.Path()), "announcements.json")
	}
	store := announce.NewStore(*storePath)
	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize announcement store")
	}

	// Announcements spoken over MCP are rendered in-process; published
	// values land in the registry only.
	resolver := host.NewResolver(database.States(), database.Variables())
	publisher := publish.NewRegistry(database.States())
	sched := scheduler.New(store, database.Devices(), database.States(), resolver,
		template.NewEngine(), publisher, cfg.Profile.ID)

	// Create and start MCP server
	mcpServer := announcemcp.NewServer(store, sched, database.Devices(), database.Variables(), speech.Noop{}, cfg.Profile.ID)

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
