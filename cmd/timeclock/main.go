package main

import (
	"context"
	"os"

	"github.com/cmlabs-hris/timeclock/internal/pkg/log"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	cmd := newCommand()

	ctx := context.Background()
	logger := log.New("timeclock", log.ParseLevel(os.Getenv("TIMECLOCK_APP_LOG_LEVEL")))
	ctx = log.IntoContext(ctx, logger.With("command", cmd.Name))

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Error(errorMessage(err), "error", err)
		os.Exit(-1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "timeclock",
		Usage:   "offline-first employee time clock",
		Version: version,
		Description: `Configuration is read from the environment (and an optional .env file):

  TIMECLOCK_STORE_DRIVER    sqlite or postgres
  TIMECLOCK_STORE_PATH      sqlite database file
  TIMECLOCK_SYNC_REMOTE     gist or dir
  TIMECLOCK_SYNC_TOKEN      GitHub token used for gist sync
  TIMECLOCK_GEO_PROVIDER    none, static or http
  TIMECLOCK_JWT_SECRET      signing key for admin sessions (serve only)`,
		Commands: []*cli.Command{
			serveCommand(),
			clockCommand(),
			shiftsCommand(),
			branchCommand(),
			employeeCommand(),
			reportCommand(),
			syncCommand(),
			cleanupCommand(),
			pinCommand(),
		},
	}
}
