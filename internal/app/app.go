// Package app assembles the pricing service components from configuration.
// The HTTP server and the CLI share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vutto/pricing-service/config"
	"github.com/vutto/pricing-service/internal/catalog"
	"github.com/vutto/pricing-service/internal/database"
	"github.com/vutto/pricing-service/internal/inventory"
	"github.com/vutto/pricing-service/internal/marginconfig"
	"github.com/vutto/pricing-service/internal/notify"
	"github.com/vutto/pricing-service/internal/pricing"
	"github.com/vutto/pricing-service/internal/revision"
	"github.com/vutto/pricing-service/internal/storage"
)

// App holds the wired components.
type App struct {
	Config *config.Config

	Pool  *pgxpool.Pool
	SQL   *sql.DB
	Redis *redis.Client

	Catalog   *catalog.Store
	Margins   *marginconfig.Store
	Inventory *inventory.Cache
	Checker   *inventory.Checker
	Engine    *pricing.Engine
	Notifier  notify.Notifier
	Revisions *revision.Service
	Scanner   *revision.Scanner
}

// New connects to the databases and builds every component.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := log.With().Str("component", "app").Logger()

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}

	a := &App{Config: cfg}

	if err := database.Connect(ctx, database.PoolConfig{
		URL:             dbURL,
		MaxConns:        cfg.Database.MaxConnections,
		MinConns:        cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.Pool = database.Pool()

	sqlDB, err := database.OpenSQL(ctx, dbURL, cfg.Database.MaxConnections)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.SQL = sqlDB

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		a.Redis = redis.NewClient(opts)
	}

	a.Catalog = catalog.NewStore(a.Pool)

	marginOpts := []marginconfig.Option{
		marginconfig.WithKeys(cfg.Pricing.MarginConfigKey, cfg.Pricing.RolesConfigKey),
	}
	if cfg.Storage.Type == "local" && cfg.Storage.BasePath != "" {
		archive, err := storage.NewLocalStorage(cfg.Storage.BasePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create margin archive: %w", err)
		}
		marginOpts = append(marginOpts, marginconfig.WithArchive(archive))
	}
	a.Margins = marginconfig.NewStore(a.Pool, marginOpts...)

	source, err := inventorySource(ctx, cfg.Inventory)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Inventory = inventory.NewCache(inventory.NewBreakerSource(source, inventory.DefaultBreakerConfig()), a.snapshotStore())
	a.Checker = inventory.NewChecker(a.Catalog, a.Inventory)

	pcfg := &pricing.Config{
		MaxKm:                cfg.Pricing.MaxKm,
		MinYear:              cfg.Pricing.MinYear,
		DefaultMonth:         cfg.Pricing.DefaultMonth,
		AggregateConcurrency: cfg.Pricing.AggregateConcurrency,
		ExcludedPace:         cfg.Pricing.ExcludedPace,
	}
	if err := pcfg.Validate(); err != nil {
		a.Close()
		return nil, err
	}
	a.Engine = pricing.NewEngine(a.Catalog, a.Margins, a.Checker, pcfg)

	a.Notifier, err = notify.New(ctx, cfg.Alerts)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	a.Revisions = revision.NewService(revision.NewStore(a.SQL), a.Engine, a.Notifier, cfg.Revision.MinPriceDifference)
	a.Scanner = revision.NewScanner(a.Revisions, revision.ScanConfig{
		StaleListingDays: cfg.Revision.StaleListingDays,
		AlertPeriodDays:  cfg.Revision.AlertPeriodDays,
	})

	logger.Info().
		Str("inventory_source", cfg.Inventory.Source).
		Str("snapshot_store", cfg.Inventory.SnapshotStore).
		Str("alerts", cfg.Alerts.Channel).
		Bool("redis", a.Redis != nil).
		Msg("Components initialized")

	return a, nil
}

func inventorySource(ctx context.Context, cfg config.InventoryConfig) (inventory.Source, error) {
	switch cfg.Source {
	case "file":
		return inventory.FileSource{Path: cfg.FilePath}, nil
	default:
		src, err := inventory.NewSheetsSource(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.SheetRange)
		if err != nil {
			return nil, fmt.Errorf("failed to create inventory source: %w", err)
		}
		return src, nil
	}
}

func (a *App) snapshotStore() inventory.SnapshotStore {
	cfg := a.Config.Inventory
	switch cfg.SnapshotStore {
	case "memory":
		return inventory.NewMemorySnapshotStore(cfg.DefaultTTL)
	case "redis":
		if a.Redis != nil {
			return inventory.NewRedisSnapshotStore(a.Redis, cfg.CacheKey, cfg.DefaultTTL)
		}
		log.Warn().Msg("Redis snapshot store requested without redis, using postgres")
	}
	return inventory.NewPostgresSnapshotStore(a.Pool, cfg.CacheKey, cfg.CacheTimeKey, cfg.DefaultTTL)
}

// Close releases every connection held by the app.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if a.SQL != nil {
		if err := a.SQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	database.Close()
	return errors.Join(errs...)
}
