package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/app"
	"github.com/cmlabs-hris/timeclock/internal/config"
	"github.com/cmlabs-hris/timeclock/internal/pkg/errkind"
	"github.com/cmlabs-hris/timeclock/internal/pkg/log"
	"github.com/urfave/cli/v3"
)

type appAction func(ctx context.Context, cmd *cli.Command, a *app.App) error

// withApp loads configuration, builds the application for the duration of
// one command and closes it afterwards.
func withApp(action appAction, opts ...app.Option) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := config.Load(ctx)
		if err != nil {
			return err
		}

		a, err := app.New(ctx, cfg, log.FromContext(ctx), opts...)
		if err != nil {
			return err
		}
		defer a.Close()

		return action(ctx, cmd, a)
	}
}

// adminAction wraps action behind the admin PIN. The first PIN ever given
// becomes the admin PIN.
func adminAction(action appAction) cli.ActionFunc {
	return withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
		pin := cmd.String("pin")
		if pin == "" {
			return errors.New("admin PIN required, pass --pin or set TIMECLOCK_ADMIN_PIN")
		}
		created, err := a.Master.Unlock(ctx, pin)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintln(stdout(cmd), "Admin PIN set.")
		}
		return action(ctx, cmd, a)
	})
}

// pinFlag returns a new flag on each call; cli keeps parsed state on the flag.
func pinFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "pin",
		Usage:   "admin PIN",
		Sources: cli.EnvVars("TIMECLOCK_ADMIN_PIN"),
	}
}

func stdout(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

// errorMessage prefers the user-facing message of a known error kind.
func errorMessage(err error) string {
	if errkind.Of(err) == errkind.Internal {
		return err.Error()
	}
	return errkind.Message(err)
}

// idArg parses the n-th positional argument as a record ID.
func idArg(cmd *cli.Command, n int, name string) (int64, error) {
	raw := cmd.Args().Get(n)
	if raw == "" {
		return 0, fmt.Errorf("missing %s argument", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// optionalID returns a pointer to a positive int64 flag, or nil when unset.
func optionalID(cmd *cli.Command, name string) (*int64, error) {
	if !cmd.IsSet(name) {
		return nil, nil
	}
	id := int64(cmd.Int(name))
	if id <= 0 {
		return nil, fmt.Errorf("--%s must be a positive number", name)
	}
	return &id, nil
}

// optionalCoords returns the --lat/--lng pair when both are given.
func optionalCoords(cmd *cli.Command) (lat, lng *float64, err error) {
	latSet, lngSet := cmd.IsSet("lat"), cmd.IsSet("lng")
	if latSet != lngSet {
		return nil, nil, errors.New("--lat and --lng must be given together")
	}
	if !latSet {
		return nil, nil, nil
	}
	la, ln := cmd.Float("lat"), cmd.Float("lng")
	return &la, &ln, nil
}

// parseSince accepts RFC3339 timestamps or plain dates (UTC midnight).
func parseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --since %q, use YYYY-MM-DD or RFC3339", raw)
	}
	return &t, nil
}

func coordFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{Name: "lat", Usage: "latitude in decimal degrees"},
		&cli.FloatFlag{Name: "lng", Usage: "longitude in decimal degrees"},
	}
}
