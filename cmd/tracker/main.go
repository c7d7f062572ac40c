package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"transport-tracker/internal/config"
	"transport-tracker/internal/logging"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	app := &cli.App{
		Name:        "tracker",
		Usage:       "live transport map: vehicles moving along routes",
		Description: "Simulates a fleet on closed-loop routes and keeps a map view in sync with it.",

		Commands: []*cli.Command{
			runCommand(cfg),
			checkCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}
