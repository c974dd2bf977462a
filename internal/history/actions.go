package history

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	dbpkg "github.com/dtnitsch/analysis-merger/pkg/db"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Commands returns the run history subcommands.
func Commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "runs",
			Usage: "List recent merge runs",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"n"},
					Usage:   "Number of runs to show (0 for all)",
					Value:   20,
				},
			},
			Action: RunsAction,
		},
		{
			Name:      "run",
			Usage:     "Show one merge run (latest when no ID is given)",
			ArgsUsage: "[run-id]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "format",
					Usage: "Output format: yaml or json",
					Value: "yaml",
				},
			},
			Action: RunAction,
		},
	}
}

// RunsAction prints a table of recent runs
func RunsAction(c *cli.Context) error {
	database, err := dbpkg.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "No runs found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"ID", "Created", "Sources", "OK", "Failed", "Output", "Size", "Properties"})
	for _, r := range runs {
		size := "-"
		if r.PersistError != "" {
			size = "write failed"
		} else if r.OutputSizeBytes > 0 {
			size = humanize.Bytes(uint64(r.OutputSizeBytes))
		}
		t.AppendRow(table.Row{
			r.RunID,
			humanize.Time(r.CreatedAt),
			r.SourceCount,
			r.SuccessCount,
			r.FailedCount,
			r.OutputPath,
			size,
			strings.Join(r.Properties, ", "),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d runs", len(runs))})
	t.Render()

	fmt.Fprintf(c.App.Writer, "\nHistory: %s\n", database.Path())
	fmt.Fprintf(c.App.Writer, "Tip: Use 'analysis-merger run <id>' to see details\n")
	return nil
}

// RunDetail is the printable form of a run and its sources.
type RunDetail struct {
	RunID           int64          `json:"run_id" yaml:"run_id"`
	RunUUID         string         `json:"run_uuid" yaml:"run_uuid"`
	CreatedAt       time.Time      `json:"created_at" yaml:"created_at"`
	ElapsedSeconds  float64        `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Output          string         `json:"output" yaml:"output"`
	OutputSizeBytes int64          `json:"output_size_bytes,omitempty" yaml:"output_size_bytes,omitempty"`
	PersistError    string         `json:"persist_error,omitempty" yaml:"persist_error,omitempty"`
	Properties      []string       `json:"properties" yaml:"properties"`
	Sources         []SourceDetail `json:"sources" yaml:"sources"`
}

type SourceDetail struct {
	Path   string `json:"path" yaml:"path"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunAction shows details for a specific run
func RunAction(c *cli.Context) error {
	format := c.String("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q (use yaml or json)", format)
	}

	database, err := dbpkg.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runID, err := runIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, sources, err := database.GetRun(runID)
	if err != nil {
		return err
	}

	detail := RunDetail{
		RunID:           run.RunID,
		RunUUID:         run.RunUUID,
		CreatedAt:       run.CreatedAt,
		ElapsedSeconds:  run.Elapsed.Seconds(),
		Output:          run.OutputPath,
		OutputSizeBytes: run.OutputSizeBytes,
		PersistError:    run.PersistError,
		Properties:      run.Properties,
		Sources:         make([]SourceDetail, 0, len(sources)),
	}
	for _, s := range sources {
		detail.Sources = append(detail.Sources, SourceDetail{Path: s.Path, Status: s.Status, Error: s.ErrorMessage})
	}

	var data []byte
	if format == "json" {
		data, err = json.MarshalIndent(detail, "", "  ")
	} else {
		data, err = yaml.Marshal(detail)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	fmt.Fprintln(c.App.Writer, strings.TrimRight(string(data), "\n"))
	return nil
}

// runIDOrLatest returns the run ID from args, or the latest run if not provided
func runIDOrLatest(c *cli.Context, database *dbpkg.DB) (int64, error) {
	if c.NArg() == 0 {
		return database.GetLatestRunID()
	}

	runID, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run ID: %s", c.Args().First())
	}
	return runID, nil
}
