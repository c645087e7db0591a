package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cmlabs-hris/timeclock/internal/app"
	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/urfave/cli/v3"
)

func syncCommand() *cli.Command {
	targets := []string{snapshot.ConfigTarget.Name, snapshot.ShiftsTarget.Name}
	return &cli.Command{
		Name:  "sync",
		Usage: "exchange snapshots with the remote store",
		Commands: []*cli.Command{
			{
				Name:      "push",
				Usage:     "upload local collections to a sync target",
				ArgsUsage: "<" + strings.Join(targets, "|") + ">",
				Flags: []cli.Flag{
					pinFlag(),
					&cli.StringFlag{Name: "description", Usage: "remote document description"},
				},
				Action: adminAction(pushTarget),
			},
			{
				Name:      "pull",
				Usage:     "replace local collections with a sync target's snapshot",
				ArgsUsage: "<" + strings.Join(targets, "|") + ">",
				Flags:     []cli.Flag{pinFlag()},
				Action:    adminAction(pullTarget),
			},
			{
				Name:  "configure",
				Usage: "set the sync token or remembered target IDs",
				Flags: []cli.Flag{
					pinFlag(),
					&cli.StringFlag{Name: "token", Usage: "sync token, empty to remove it"},
					&cli.StringSliceFlag{Name: "target", Usage: "remembered target as name=id, empty id to forget"},
				},
				Action: adminAction(configureSync),
			},
			{
				Name:   "status",
				Usage:  "show the sync configuration",
				Flags:  []cli.Flag{pinFlag()},
				Action: adminAction(syncStatus),
			},
		},
	}
}

func targetArg(cmd *cli.Command) (string, error) {
	name := cmd.Args().First()
	if name == "" {
		return "", errors.New("missing target argument")
	}
	return name, nil
}

func pushTarget(ctx context.Context, cmd *cli.Command, a *app.App) error {
	name, err := targetArg(cmd)
	if err != nil {
		return err
	}

	result, err := a.Sync.PushTarget(ctx, name, cmd.String("description"))
	if err != nil {
		return err
	}

	verb := "Updated"
	if result.Created {
		verb = "Created"
	}
	fmt.Fprintf(stdout(cmd), "%s %s snapshot %s.\n", verb, name, result.TargetID)
	return nil
}

func pullTarget(ctx context.Context, cmd *cli.Command, a *app.App) error {
	name, err := targetArg(cmd)
	if err != nil {
		return err
	}

	snap, err := a.Sync.PullTarget(ctx, name)
	if err != nil {
		return err
	}

	w := stdout(cmd)
	fmt.Fprintf(w, "Pulled %s snapshot.\n", name)
	for _, c := range snap.Collections() {
		fmt.Fprintf(w, "  %s: %d\n", c, snap.Count(c))
	}
	return nil
}

func configureSync(ctx context.Context, cmd *cli.Command, a *app.App) error {
	var req snapshot.ConfigureRequest
	if cmd.IsSet("token") {
		token := cmd.String("token")
		req.Token = &token
	}
	for _, pair := range cmd.StringSlice("target") {
		name, id, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid --target %q, use name=id", pair)
		}
		if req.Targets == nil {
			req.Targets = map[string]string{}
		}
		req.Targets[strings.TrimSpace(name)] = strings.TrimSpace(id)
	}

	settings, err := a.Sync.Configure(ctx, req)
	if err != nil {
		return err
	}
	return printSettings(cmd, settings)
}

func syncStatus(ctx context.Context, cmd *cli.Command, a *app.App) error {
	settings, err := a.Sync.Settings(ctx)
	if err != nil {
		return err
	}
	return printSettings(cmd, settings)
}

func printSettings(cmd *cli.Command, s snapshot.SyncSettings) error {
	w := stdout(cmd)
	token := "not configured"
	if s.TokenConfigured {
		token = "configured"
	}
	fmt.Fprintf(w, "Device: %s\nToken: %s\n", s.DeviceID, token)

	if len(s.Targets) == 0 {
		fmt.Fprintln(w, "Targets: none")
		return nil
	}
	names := make([]string, 0, len(s.Targets))
	for name := range s.Targets {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := newTable(w, "TARGET", "ID")
	for _, name := range names {
		row(tw, name, s.Targets[name])
	}
	return tw.Flush()
}
