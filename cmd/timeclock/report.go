package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cmlabs-hris/timeclock/internal/app"
	"github.com/cmlabs-hris/timeclock/internal/domain/report"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "summarize hours, short shifts and geofence violations",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "employee", Usage: "only this employee"},
			&cli.StringFlag{Name: "since", Usage: "only shifts clocked in at or after this date"},
			&cli.FloatFlag{Name: "threshold", Usage: "short shift threshold in hours"},
			&cli.StringFlag{Name: "xlsx", Usage: "write the report to this spreadsheet instead"},
		},
		Action: withApp(runReport),
	}
}

func runReport(ctx context.Context, cmd *cli.Command, a *app.App) error {
	employeeID, err := optionalID(cmd, "employee")
	if err != nil {
		return err
	}
	since, err := parseSince(cmd.String("since"))
	if err != nil {
		return err
	}
	req := report.SummaryRequest{
		EmployeeID:     employeeID,
		Since:          since,
		ThresholdHours: cmd.Float("threshold"),
	}

	if path := cmd.String("xlsx"); path != "" {
		return exportReport(ctx, cmd, a, req, path)
	}

	summary, err := a.Reports.Summary(ctx, req)
	if err != nil {
		return err
	}
	return printSummary(cmd, summary)
}

func exportReport(ctx context.Context, cmd *cli.Command, a *app.App, req report.SummaryRequest, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := a.Reports.ExportXLSX(ctx, req, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Wrote %s (%s).\n", path, humanize.Bytes(uint64(info.Size())))
	return nil
}

func printSummary(cmd *cli.Command, s report.Summary) error {
	w := stdout(cmd)

	fmt.Fprintln(w, "Hours worked")
	if len(s.Hours) == 0 {
		fmt.Fprintln(w, "  no completed shifts")
	} else {
		tw := newTable(w, "ID", "EMPLOYEE", "BRANCH", "HOURS")
		for _, r := range s.Hours {
			row(tw, r.EmployeeID, r.EmployeeName, r.BranchName, hoursFmt(r.Hours))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\nShort shifts (under %sh)\n", humanize.Ftoa(s.ThresholdHours))
	if len(s.ShortShifts) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		tw := newTable(w, "SHIFT", "EMPLOYEE", "CLOCK IN", "HOURS")
		for _, r := range s.ShortShifts {
			row(tw, r.ShiftID, r.EmployeeName, r.ClockIn.Local().Format("2006-01-02 15:04"), hoursFmt(r.Hours))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nOutside geofence")
	if len(s.OutOfBounds) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		tw := newTable(w, "SHIFT", "EMPLOYEE", "BRANCH", "EVENT", "AT", "DISTANCE")
		for _, r := range s.OutOfBounds {
			row(tw, r.ShiftID, r.EmployeeName, r.BranchName, r.Flag, r.At.Local().Format("2006-01-02 15:04"),
				humanize.Comma(int64(r.DistanceMeters))+"m")
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\nOpen shifts: %d\n", s.OpenShifts)
	return nil
}
