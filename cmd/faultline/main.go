package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/faultline-hq/faultline/internal/config"
	"github.com/faultline-hq/faultline/internal/core/event"
	"github.com/faultline-hq/faultline/internal/core/grouping"
	"github.com/faultline-hq/faultline/internal/eventstore/postgres"
	"github.com/faultline-hq/faultline/internal/eventstore/snuba"
	"github.com/faultline-hq/faultline/internal/migrations"
	"github.com/faultline-hq/faultline/internal/nodestore"
	"github.com/faultline-hq/faultline/internal/normalize"
	"github.com/faultline-hq/faultline/internal/options"
)

func main() {
	configPath := flag.String("config", "faultline.yaml", "Path to configuration file")
	projectID := flag.Int64("project", 0, "Project id")
	eventID := flag.String("event", "", "Event id (32-char hex)")
	backend := flag.String("backend", "postgres", "Event backend: postgres or snuba")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *projectID == 0 || *eventID == "" {
		slog.Error("Both -project and -event are required")
		os.Exit(1)
	}

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	options.Set(options.RenormalizeSampleRate, cfg.Store.RenormalizeSampleRate)

	ctx := context.Background()

	// 2. Initialize Storage (PostgreSQL)
	adapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer adapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(adapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Nodestore
	var nodes nodestore.Store
	switch cfg.Nodestore.Backend {
	case "memory":
		nodes = nodestore.NewMemoryStore()
	default:
		pgNodes, err := nodestore.NewPostgresStore(adapter.DB())
		if err != nil {
			slog.Error("Failed to initialize nodestore", "error", err)
			os.Exit(1)
		}
		defer pgNodes.Close()
		nodes = pgNodes
	}

	// 4. Wire the event dependency bundle
	deps := event.Deps{
		Nodes:      nodes,
		Groups:     adapter,
		Projects:   adapter,
		Grouper:    grouping.NewResolver(),
		Normalizer: &normalize.StoreNormalizer{},
	}
	adapter.Bind(deps)

	// 5. Fetch the event from the requested backend
	e, err := fetchEvent(ctx, cfg, adapter, deps, *backend, *projectID, *eventID)
	if err != nil {
		slog.Error("Failed to fetch event",
			"backend", *backend,
			"project_id", *projectID,
			"event_id", *eventID,
			"error", err)
		os.Exit(1)
	}

	// 6. Render the normalized representation
	dict, err := e.AsDict(ctx)
	if err != nil {
		slog.Error("Failed to serialize event", "error", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dict); err != nil {
		slog.Error("Failed to encode output", "error", err)
		os.Exit(1)
	}
}

func fetchEvent(
	ctx context.Context,
	cfg *config.Config,
	adapter *postgres.Adapter,
	deps event.Deps,
	backend string,
	projectID int64,
	eventID string,
) (*event.Event, error) {
	switch backend {
	case "postgres":
		return adapter.GetByID(ctx, projectID, eventID)
	case "snuba":
		client, err := snuba.NewClient(ctx, snuba.Options{
			Addr:         cfg.Snuba.Addr,
			Database:     cfg.Snuba.Database,
			Username:     cfg.Snuba.Username,
			Password:     cfg.Snuba.Password,
			MaxOpenConns: cfg.Snuba.MaxOpenConns,
			MaxIdleConns: cfg.Snuba.MaxIdleConns,
		})
		if err != nil {
			return nil, err
		}
		defer client.Close()

		store := snuba.NewStore(client, deps, cfg.Retention.Days)
		return store.GetEvent(ctx, projectID, eventID)
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}
}
