package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/analysis-merger/internal/history"
	"github.com/dtnitsch/analysis-merger/internal/merge"
	dbpkg "github.com/dtnitsch/analysis-merger/pkg/db"
	"github.com/dtnitsch/analysis-merger/pkg/help"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	commands := []*cli.Command{merge.Command()}
	commands = append(commands, history.Commands()...)
	commands = append(commands, &cli.Command{
		Name:  "quickstart",
		Usage: "Print a YAML quick start guide",
		Action: func(c *cli.Context) error {
			fmt.Fprint(c.App.Writer, help.ColdstartYAML)
			return nil
		},
	})

	return &cli.App{
		Name:  "analysis-merger",
		Usage: "Merge per-file text analysis documents into a single report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Run history database",
				Value:   dbpkg.DefaultDBName,
				EnvVars: []string{"ANALYSIS_MERGER_DB"},
			},
		},
		Commands: commands,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
