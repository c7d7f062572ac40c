package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"transport-tracker/internal/config"
	"transport-tracker/internal/db"
	"transport-tracker/internal/fleet"
	"transport-tracker/internal/route"
	"transport-tracker/internal/scenario"
)

// world is everything a session is built from.
type world struct {
	scenario *scenario.Scenario
	routes   *route.Table
	fleet    *fleet.Fleet
	seed     uint64
}

func scenarioFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "scenario",
		Usage: "scenario YAML file (overrides SCENARIO_FILE; empty uses the built-in demo)",
	}
}

// loadWorld reads the scenario, takes routes from Postgres when a database
// is configured, and generates the fleet. Any invalid route or assignment
// aborts the whole load.
func loadWorld(ctx context.Context, cfg *config.Config, scenarioFile string) (*world, error) {
	sc, err := scenario.Load(scenarioFile)
	if err != nil {
		return nil, err
	}

	var table *route.Table
	if cfg.DatabaseURL != "" {
		table, err = routesFromDB(ctx, cfg)
	} else {
		table, err = sc.RouteTable()
	}
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	f, err := fleet.Generate(sc.FleetConfig(), table, rng, frameInterval(cfg))
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("scenario", sc.Name).
		Int("routes", table.Len()).
		Int("vehicles", f.Len()).
		Uint64("seed", seed).
		Msg("world loaded")
	return &world{scenario: sc, routes: table, fleet: f, seed: seed}, nil
}

func routesFromDB(ctx context.Context, cfg *config.Config) (*route.Table, error) {
	dsn := cfg.DatabaseURL
	if cfg.RoutesDB != "" {
		var err error
		dsn, err = db.WithDBName(dsn, cfg.RoutesDB)
		if err != nil {
			return nil, fmt.Errorf("compose DSN: %w", err)
		}
	}
	sqlDB, err := db.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	routes, err := db.LoadRoutes(ctx, sqlDB)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	log.Info().Int("routes", len(routes)).Msg("routes loaded from database")
	return route.NewTable(routes...)
}

func frameInterval(cfg *config.Config) time.Duration {
	if cfg.FrameInterval <= 0 {
		return 16 * time.Millisecond
	}
	return cfg.FrameInterval
}
