// Package main provides the tracker binary: an interactive console for
// running a tabletop combat encounter.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/initiative/internal/bestiary"
	"github.com/cory-johannsen/initiative/internal/config"
	"github.com/cory-johannsen/initiative/internal/console"
	"github.com/cory-johannsen/initiative/internal/encounter"
	"github.com/cory-johannsen/initiative/internal/game/ability"
	"github.com/cory-johannsen/initiative/internal/game/combatant"
	"github.com/cory-johannsen/initiative/internal/game/condition"
	"github.com/cory-johannsen/initiative/internal/game/dice"
	"github.com/cory-johannsen/initiative/internal/game/initiative"
	"github.com/cory-johannsen/initiative/internal/game/roster"
	"github.com/cory-johannsen/initiative/internal/observability"
	"github.com/cory-johannsen/initiative/internal/scripting"
	"github.com/cory-johannsen/initiative/internal/server"
	"github.com/cory-johannsen/initiative/internal/snapshot"
	"github.com/cory-johannsen/initiative/internal/storage/postgres"
)

// scriptInstructionLimit bounds each house-rule hook call.
const scriptInstructionLimit = 100_000

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = defaults and TRACKER_ environment")
	color := flag.Bool("color", true, "colorize console output")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	catalog := condition.Default()
	if cfg.Tracker.ConditionsDir != "" {
		if catalog, err = condition.LoadDirectory(cfg.Tracker.ConditionsDir); err != nil {
			logger.Fatal("loading conditions", zap.String("dir", cfg.Tracker.ConditionsDir), zap.Error(err))
		}
	}

	roller := dice.NewRoller(dice.NewCryptoSource(), logger)
	store := roster.NewStore(logger, roster.WithDefaults(combatant.Defaults{
		HP: cfg.Tracker.DefaultHP,
		AC: cfg.Tracker.DefaultAC,
	}))

	engineOpts := []initiative.Option{initiative.WithDisplayDuration(cfg.Tracker.RollDisplay)}
	if cfg.Tracker.ScriptsDir != "" {
		hooks := scripting.NewHooks(roller, scriptInstructionLimit, logger)
		defer hooks.Close()
		if err := hooks.LoadDir(cfg.Tracker.ScriptsDir); err != nil {
			logger.Fatal("loading scripts", zap.String("dir", cfg.Tracker.ScriptsDir), zap.Error(err))
		}
		if hooks.Has(scripting.InitiativeBonusHook) {
			engineOpts = append(engineOpts, initiative.WithBonus(hooks.InitiativeBonus))
		}
	}
	engine := initiative.NewEngine(store, roller, logger, engineOpts...)

	source, err := newBestiary(cfg.Bestiary, logger)
	if err != nil {
		logger.Fatal("configuring bestiary", zap.Error(err))
	}

	snapshots, closeStore, err := newSnapshotStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("configuring storage", zap.Error(err))
	}
	defer closeStore()

	lines := console.NewLineReader(os.Stdin)
	tracker := encounter.New(encounter.Deps{
		Store:         store,
		Engine:        engine,
		Confirmer:     console.NewPrompter(lines, os.Stdout),
		Bestiary:      source,
		Snapshots:     snapshots,
		AutosaveDelay: cfg.Storage.AutosaveDebounce,
		Logger:        logger,
	})
	if err := tracker.Load(ctx); err != nil {
		logger.Fatal("restoring encounter", zap.Error(err))
	}

	con := console.New(tracker, lines, os.Stdout, logger,
		console.WithCatalog(catalog),
		console.WithDisplay(ability.DisplayPolicy{Placeholder: cfg.Tracker.AbilityPlaceholder}),
		console.WithColor(*color),
	)

	logger.Info("tracker ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("bestiary", cfg.Bestiary.Source),
		zap.Int("combatants", store.Len()),
		zap.Int("turn", tracker.Turn()),
		zap.Duration("elapsed", time.Since(start)),
	)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("console", &server.FuncService{
		StartFn: func() error { return con.Run(ctx) },
		StopFn:  cancel,
	})
	runErr := lifecycle.Run(ctx)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := tracker.Close(closeCtx); err != nil {
		logger.Error("saving encounter", zap.Error(err))
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("console stopped", zap.Error(runErr))
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

func newBestiary(cfg config.BestiaryConfig, logger *zap.Logger) (bestiary.Source, error) {
	switch cfg.Source {
	case config.BestiaryAPI:
		return bestiary.NewHTTPSource(cfg.BaseURL, cfg.Timeout, logger), nil
	case config.BestiaryLocal:
		src, err := bestiary.LoadLocalSource(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return nil, nil
}

func newSnapshotStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (snapshot.Store, func(), error) {
	if cfg.Storage.Driver != config.DriverPostgres {
		return snapshot.NewFileStore(cfg.Storage.Path), func() {}, nil
	}
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("encounter", cfg.Storage.Encounter),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	return postgres.NewSnapshotRepository(pool.DB()).Encounter(cfg.Storage.Encounter), pool.Close, nil
}
