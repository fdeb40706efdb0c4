package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/cli"
)

var CLI struct {
	Version  kong.VersionFlag
	File     string `help:"JSON export of the habits (GET /api/v1/habits)." type:"existingfile" short:"f" required:""`
	Timezone string `help:"IANA zone that defines calendar days." default:"UTC" env:"TIMEZONE"`

	Due    cli.DueCmd    `cmd:"" help:"List the habits due on a day."`
	Streak cli.StreakCmd `cmd:"" help:"Show current and highest streak of a habit."`
	Stats  cli.StatsCmd  `cmd:"" help:"Show lifetime stats of a habit."`
	Month  cli.MonthCmd  `cmd:"" help:"Show the month calendar."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habitctl"),
		kong.Description("Offline schedule and streak evaluation of a habit export"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	loc, err := time.LoadLocation(CLI.Timezone)
	if err != nil {
		ctx.Fatalf("unknown timezone %q", CLI.Timezone)
	}

	habits, err := cli.LoadExport(CLI.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	appCtx := &cli.Context{
		Habits: habits,
		Loc:    loc,
		Out:    os.Stdout,
		Now:    time.Now,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
