package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/api"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/host"
	"github.com/urmzd/announce/pkg/publish"
	"github.com/urmzd/announce/pkg/scheduler"
	"github.com/urmzd/announce/pkg/speech"
	"github.com/urmzd/announce/pkg/template"
)

// @title           Announce API
// @version         1.0
// @description     REST API for templated spoken and displayed announcements

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

func main() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/announce/announce.db)")
	storePath := flag.String("store", "", "Path to announcement store file (default: next to the database)")
	mqttBroker := flag.String("mqtt", "", "MQTT broker URL for mirroring published states (optional)")
	mqttPrefix := flag.String("mqtt-prefix", "announce", "MQTT topic prefix")
	speechCmd := flag.String("speech-cmd", "", "Text-to-speech command (default: platform speech command)")
	silent := flag.Bool("silent", false, "Log spoken announcements instead of speaking them")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// Load configuration
	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("profile", cfg.Profile.Name).
		Str("timezone", cfg.Timezone()).
		Str("api_address", cfg.APIAddress()).
		Dur("poll_interval", cfg.PollInterval()).
		Msg("Configuration loaded")

	// Open the announcement store and bring it in line with the registry
	if *storePath == "" {
		*storePath = filepath.Join(filepath.Dir(database.Path()), "announcements.json")
	}
	store := announce.NewStore(*storePath)
	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize announcement store")
	}
	log.Info().Str("path", store.Path()).Msg("Announcement store opened")

	devices, err := database.Devices().ListByType(ctx, cfg.Profile.ID, db.DeviceTypeAnnouncements)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list announcement devices")
	}
	keys := make([]int64, 0, len(devices))
	for _, d := range devices {
		keys = append(keys, d.ID)
	}
	if err := store.Reconcile(ctx, keys); err != nil {
		log.Fatal().Err(err).Msg("Failed to reconcile announcement store")
	}

	// Publish into the registry, optionally mirrored over MQTT
	var publisher publish.Publisher = publish.NewRegistry(database.States())
	if *mqttBroker != "" {
		mqttPub, err := publish.NewMQTT(publish.MQTTConfig{
			Broker:      *mqttBroker,
			TopicPrefix: *mqttPrefix,
		})
		if err != nil {
			log.Warn().Err(err).Str("broker", *mqttBroker).Msg("MQTT unavailable, publishing to registry only")
		} else {
			defer mqttPub.Close()
			publisher = publish.Multi{publisher, mqttPub}
		}
	}

	var speaker speech.Speaker = speech.NewCommand(*speechCmd)
	if *silent {
		speaker = speech.Noop{}
	}

	resolver := host.NewResolver(database.States(), database.Variables())
	engine := template.NewEngine()

	sched := scheduler.New(store, database.Devices(), database.States(), resolver, engine, publisher,
		cfg.Profile.ID, scheduler.WithInterval(cfg.PollInterval()))
	go sched.Run(ctx)

	// Create and start API router
	router := api.NewRouter(store, sched, database, speaker, cfg.Profile.ID)

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		cancel()
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
		os.Exit(0)
	}()

	// Start server
	addr := cfg.APIAddress()
	log.Info().Str("address", addr).Msg("Starting API server")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
