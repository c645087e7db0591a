package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cmlabs-hris/timeclock/internal/app"
	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/urfave/cli/v3"
)

func branchCommand() *cli.Command {
	return &cli.Command{
		Name:  "branch",
		Usage: "manage branches",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "create a branch",
				Flags: append([]cli.Flag{
					pinFlag(),
					&cli.StringFlag{Name: "name", Usage: "branch name", Required: true},
					&cli.FloatFlag{Name: "radius", Usage: "geofence radius in meters"},
				}, coordFlags()...),
				Action: adminAction(addBranch),
			},
			{
				Name:   "list",
				Usage:  "list branches",
				Action: withApp(listBranches),
			},
			{
				Name:      "rm",
				Usage:     "delete a branch, employees keep a dangling reference",
				ArgsUsage: "<branch-id>",
				Flags:     []cli.Flag{pinFlag()},
				Action:    adminAction(removeBranch),
			},
		},
	}
}

func addBranch(ctx context.Context, cmd *cli.Command, a *app.App) error {
	lat, lng, err := optionalCoords(cmd)
	if err != nil {
		return err
	}
	req := branch.CreateBranchRequest{
		Name:      cmd.String("name"),
		Latitude:  lat,
		Longitude: lng,
	}
	if cmd.IsSet("radius") {
		radius := cmd.Float("radius")
		req.RadiusMeters = &radius
	}

	created, err := a.Master.CreateBranch(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Created branch #%d %q.\n", created.ID, created.Name)
	return nil
}

func listBranches(ctx context.Context, cmd *cli.Command, a *app.App) error {
	branches, err := a.Master.ListBranches(ctx)
	if err != nil {
		return err
	}

	w := stdout(cmd)
	if len(branches) == 0 {
		fmt.Fprintln(w, "No branches.")
		return nil
	}

	tw := newTable(w, "ID", "NAME", "LOCATION", "RADIUS")
	for _, b := range branches {
		location := "-"
		if b.Geofenced {
			location = fmt.Sprintf("%.5f, %.5f", *b.Latitude, *b.Longitude)
		}
		row(tw, b.ID, b.Name, location, strconv.FormatFloat(b.RadiusMeters, 'f', -1, 64)+"m")
	}
	return tw.Flush()
}

func removeBranch(ctx context.Context, cmd *cli.Command, a *app.App) error {
	id, err := idArg(cmd, 0, "branch-id")
	if err != nil {
		return err
	}
	if err := a.Master.DeleteBranch(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Deleted branch #%d.\n", id)
	return nil
}

func employeeCommand() *cli.Command {
	return &cli.Command{
		Name:  "employee",
		Usage: "manage employees",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "create an employee",
				Flags: []cli.Flag{
					pinFlag(),
					&cli.StringFlag{Name: "name", Usage: "employee name", Required: true},
					&cli.IntFlag{Name: "branch", Usage: "home branch ID"},
				},
				Action: adminAction(addEmployee),
			},
			{
				Name:   "list",
				Usage:  "list employees",
				Action: withApp(listEmployees),
			},
			{
				Name:      "rm",
				Usage:     "delete an employee, their shifts are kept",
				ArgsUsage: "<employee-id>",
				Flags:     []cli.Flag{pinFlag()},
				Action:    adminAction(removeEmployee),
			},
		},
	}
}

func addEmployee(ctx context.Context, cmd *cli.Command, a *app.App) error {
	branchID, err := optionalID(cmd, "branch")
	if err != nil {
		return err
	}

	created, err := a.Master.CreateEmployee(ctx, employee.CreateEmployeeRequest{
		Name:     cmd.String("name"),
		BranchID: branchID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Created employee #%d %q (%s).\n", created.ID, created.Name, created.BranchName)
	return nil
}

func listEmployees(ctx context.Context, cmd *cli.Command, a *app.App) error {
	employees, err := a.Master.ListEmployees(ctx)
	if err != nil {
		return err
	}

	w := stdout(cmd)
	if len(employees) == 0 {
		fmt.Fprintln(w, "No employees.")
		return nil
	}

	tw := newTable(w, "ID", "NAME", "BRANCH")
	for _, e := range employees {
		row(tw, e.ID, e.Name, e.BranchName)
	}
	return tw.Flush()
}

func removeEmployee(ctx context.Context, cmd *cli.Command, a *app.App) error {
	id, err := idArg(cmd, 0, "employee-id")
	if err != nil {
		return err
	}
	if err := a.Master.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Deleted employee #%d.\n", id)
	return nil
}
