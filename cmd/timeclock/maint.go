package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock/internal/app"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func cleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "delete shifts clocked in more than --days ago",
		Flags: []cli.Flag{
			pinFlag(),
			&cli.IntFlag{Name: "days", Usage: "retention window in days, defaults to TIMECLOCK_RETENTION_DAYS"},
		},
		Action: adminAction(cleanup),
	}
}

func cleanup(ctx context.Context, cmd *cli.Command, a *app.App) error {
	days := a.Config.RetentionDays
	if cmd.IsSet("days") {
		days = int(cmd.Int("days"))
	}

	deleted, err := a.Ledger.PurgeOlderThan(ctx, days)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Deleted %s shifts older than %d days.\n", humanize.Comma(deleted), days)
	return nil
}

func pinCommand() *cli.Command {
	return &cli.Command{
		Name:  "pin",
		Usage: "manage the admin PIN",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "replace the admin PIN, --pin is the current one",
				ArgsUsage: "<new-pin>",
				Flags:     []cli.Flag{pinFlag()},
				Action:    adminAction(setPIN),
			},
		},
	}
}

func setPIN(ctx context.Context, cmd *cli.Command, a *app.App) error {
	pin := cmd.Args().First()
	if pin == "" {
		return errors.New("missing new-pin argument")
	}
	if err := a.Master.SetPIN(ctx, pin); err != nil {
		return err
	}
	fmt.Fprintln(stdout(cmd), "Admin PIN updated.")
	return nil
}
