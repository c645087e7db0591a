package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/app"
	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func clockCommand() *cli.Command {
	return &cli.Command{
		Name:  "clock",
		Usage: "clock employees in and out",
		Commands: []*cli.Command{
			{
				Name:      "in",
				Usage:     "open a shift",
				ArgsUsage: "<employee-id>",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "branch", Usage: "branch ID, defaults to the employee's branch"},
				}, coordFlags()...),
				Action: withApp(clockIn),
			},
			{
				Name:      "out",
				Usage:     "close the open shift",
				ArgsUsage: "<employee-id>",
				Flags:     coordFlags(),
				Action:    withApp(clockOut),
			},
			{
				Name:      "status",
				Usage:     "show whether an employee is clocked in",
				ArgsUsage: "<employee-id>",
				Action:    withApp(clockStatus),
			},
		},
	}
}

func clockIn(ctx context.Context, cmd *cli.Command, a *app.App) error {
	employeeID, err := idArg(cmd, 0, "employee-id")
	if err != nil {
		return err
	}
	branchID, err := optionalID(cmd, "branch")
	if err != nil {
		return err
	}
	lat, lng, err := optionalCoords(cmd)
	if err != nil {
		return err
	}

	outcome, err := a.Attendance.ClockIn(ctx, shift.ClockInRequest{
		EmployeeID: employeeID,
		BranchID:   branchID,
		Latitude:   lat,
		Longitude:  lng,
	})
	if err != nil {
		return err
	}

	w := stdout(cmd)
	fmt.Fprintf(w, "Clocked in employee #%d at %s (shift #%d).\n",
		employeeID, outcome.Event.ClockIn.Local().Format("15:04"), outcome.Event.ID)
	printSync(w, outcome)
	return nil
}

func clockOut(ctx context.Context, cmd *cli.Command, a *app.App) error {
	employeeID, err := idArg(cmd, 0, "employee-id")
	if err != nil {
		return err
	}
	lat, lng, err := optionalCoords(cmd)
	if err != nil {
		return err
	}

	outcome, err := a.Attendance.ClockOut(ctx, shift.ClockOutRequest{
		EmployeeID: employeeID,
		Latitude:   lat,
		Longitude:  lng,
	})
	if err != nil {
		return err
	}

	w := stdout(cmd)
	worked := "-"
	if d, ok := outcome.Event.Duration(); ok {
		worked = hoursFmt(d.Hours())
	}
	fmt.Fprintf(w, "Clocked out employee #%d after %s (shift #%d).\n", employeeID, worked, outcome.Event.ID)
	printSync(w, outcome)
	return nil
}

func printSync(w io.Writer, o attendance.Outcome) {
	switch {
	case o.Synced:
		fmt.Fprintln(w, "Shift synced.")
	case o.SyncError != nil:
		fmt.Fprintf(w, "Saved locally, sync failed: %s\n", errorMessage(o.SyncError))
	}
}

func clockStatus(ctx context.Context, cmd *cli.Command, a *app.App) error {
	employeeID, err := idArg(cmd, 0, "employee-id")
	if err != nil {
		return err
	}

	status, err := a.Attendance.CurrentStatus(ctx, employeeID)
	if err != nil {
		return err
	}

	w := stdout(cmd)
	if status != shift.StatusIn {
		fmt.Fprintf(w, "%s, next action: %s\n", status, status.NextAction())
		return nil
	}

	open, err := a.Ledger.List(ctx, shift.ShiftFilter{EmployeeID: &employeeID, OpenOnly: true, Limit: 1})
	if err != nil {
		return err
	}
	if len(open) == 0 {
		fmt.Fprintf(w, "%s, next action: %s\n", status, status.NextAction())
		return nil
	}
	fmt.Fprintf(w, "%s since %s, next action: %s\n", status, humanize.Time(open[0].ClockIn), status.NextAction())
	return nil
}

func shiftsCommand() *cli.Command {
	return &cli.Command{
		Name:  "shifts",
		Usage: "list recorded shifts, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "employee", Usage: "only this employee"},
			&cli.BoolFlag{Name: "open", Usage: "only open shifts"},
			&cli.StringFlag{Name: "since", Usage: "only shifts clocked in at or after this date"},
			&cli.IntFlag{Name: "limit", Usage: "maximum number of shifts", Value: 50},
		},
		Action: withApp(listShifts),
	}
}

func listShifts(ctx context.Context, cmd *cli.Command, a *app.App) error {
	employeeID, err := optionalID(cmd, "employee")
	if err != nil {
		return err
	}
	since, err := parseSince(cmd.String("since"))
	if err != nil {
		return err
	}

	events, err := a.Ledger.List(ctx, shift.ShiftFilter{
		EmployeeID: employeeID,
		OpenOnly:   cmd.Bool("open"),
		Since:      since,
		Limit:      int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	w := stdout(cmd)
	if len(events) == 0 {
		fmt.Fprintln(w, "No shifts recorded.")
		return nil
	}

	tw := newTable(w, "ID", "EMPLOYEE", "BRANCH", "CLOCK IN", "CLOCK OUT", "HOURS")
	for _, e := range events {
		hours := "open"
		if d, ok := e.Duration(); ok {
			hours = hoursFmt(d.Hours())
		}
		row(tw,
			e.ID,
			e.EmployeeID,
			optional(e.BranchID, func(id int64) string { return strconv.FormatInt(id, 10) }),
			timeFmt(e.ClockIn),
			optional(e.ClockOut, func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") }),
			hours,
		)
	}
	return tw.Flush()
}
