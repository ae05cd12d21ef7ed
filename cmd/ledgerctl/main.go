// Command ledgerctl manages the ledger from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"persacc/internal/cli"
	"persacc/internal/config"
	"persacc/internal/database"
	"persacc/internal/events"
	"persacc/internal/logger"
	"persacc/internal/server"
)

func main() {
	// Only warnings reach stderr unless LOG_LEVEL says otherwise.
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "warn")
	}
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	cmdr := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmdr.Register(cmdr.HelpCommand(), "")
	cmdr.Register(cmdr.FlagsCommand(), "")
	cmdr.Register(cmdr.CommandsCommand(), "")
	cli.NewApp(open).Register(cmdr)

	flag.Parse()
	os.Exit(int(cmdr.Execute(context.Background())))
}

// open loads the configuration, migrates the database and wires the services.
func open() (server.Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return server.Services{}, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return server.Services{}, nil, err
	}
	if err := dbManager.RunMigrations(); err != nil {
		dbManager.Close()
		return server.Services{}, nil, err
	}

	publisher, err := events.NewPublisher(cfg.AMQP, logger.Named("events"))
	if err != nil {
		dbManager.Close()
		return server.Services{}, nil, err
	}

	closeFn := func() {
		if err := publisher.Close(); err != nil {
			logger.Get().Warnw("Failed to close event publisher", "error", err)
		}
		if err := dbManager.Close(); err != nil {
			logger.Get().Warnw("Failed to close database", "error", err)
		}
	}
	return server.NewServices(dbManager.DB(), cfg.Ledger, publisher), closeFn, nil
}
