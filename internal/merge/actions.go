package merge

import (
	"encoding/json"
	"fmt"

	"github.com/dtnitsch/analysis-merger/models"
	dbpkg "github.com/dtnitsch/analysis-merger/pkg/db"
	"github.com/dtnitsch/analysis-merger/pkg/logger"
	"github.com/dtnitsch/analysis-merger/pkg/merger"
	"github.com/dtnitsch/analysis-merger/pkg/storage"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Command returns the merge subcommand.
func Command() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Merge properties from several analysis documents into one",
		ArgsUsage: "[file.json ...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "files",
				Aliases: []string{"f"},
				Usage:   "Analysis documents to read, in order (comma-separated or repeated; globs allowed)",
			},
			&cli.StringSliceFlag{
				Name:    "properties",
				Aliases: []string{"p"},
				Usage:   "Properties to merge (default: the analyzer property list)",
			},
			&cli.StringSliceFlag{
				Name:    "top-methods",
				Aliases: []string{"m"},
				Usage:   "Top-N results to merge alongside the properties, e.g. topWords",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file; .json is appended when it has no extension",
				Value:   models.DefaultMergeOutput,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML merge config (sources, properties, top_methods, output)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Append structured logs to this file",
				Value: models.DefaultLogFile,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Summary format: json or yaml",
				Value: "json",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only report errors",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record this run in the history database",
			},
		},
		Action: MergeAction,
	}
}

// MergeAction merges the requested properties and prints a run summary.
// It fails when the configuration is invalid or the merged result could not be written.
// An invalid configuration is rejected before the log file is opened.
func MergeAction(c *cli.Context) error {
	format := c.String("format")
	if err := validateFormat(format); err != nil {
		return err
	}

	cfg, unmatched, err := buildConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid merge config: %w", err)
	}

	log, err := logger.New(logger.Options{
		Console: c.App.Writer,
		Errors:  c.App.ErrWriter,
		LogFile: c.String("log-file"),
		Quiet:   c.Bool("quiet"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	for _, pattern := range unmatched {
		log.Slog().Warn("glob pattern matched no files", "pattern", pattern)
	}

	store, err := storage.New("")
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	report, err := merger.New(store, store, log).Merge(cfg)
	if err != nil {
		return err
	}

	finalOutput := BuildSummary(report, store)
	log.Slog().Info("merge finished",
		"run_id", report.RunID,
		"output", report.Output,
		"successful", finalOutput.Stats.Successful,
		"failed", finalOutput.Stats.Failed,
	)

	if !c.Bool("no-history") {
		historyID, err := recordRun(c.String("db"), report, store)
		if err != nil {
			log.Slog().Warn("failed to record run history", "run_id", report.RunID, "error", err)
		} else {
			finalOutput.HistoryID = historyID
		}
	}

	var outputData []byte
	if format == "yaml" {
		outputData, err = yaml.Marshal(finalOutput)
	} else {
		outputData, err = json.MarshalIndent(finalOutput, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(outputData))

	if report.PersistErr != nil {
		return report.PersistErr
	}
	return nil
}

// BuildSummary converts a merge report into printable output.
func BuildSummary(report *merger.Report, store *storage.Storage) *FinalOutput {
	out := &FinalOutput{
		Status:     "success",
		RunID:      report.RunID,
		Output:     report.Output,
		Properties: report.Properties,
		Sources:    make([]SourceSummary, 0, len(report.Sources)),
		Stats: Stats{
			TotalSources:     len(report.Sources),
			Successful:       report.Succeeded(),
			Failed:           report.Failed(),
			TotalTimeSeconds: report.Elapsed.Seconds(),
		},
	}

	for _, s := range report.Sources {
		summary := SourceSummary{Source: s.Source, Status: dbpkg.SourceStatusOK}
		if !s.OK() {
			summary.Status = dbpkg.SourceStatusFailed
			summary.Error = s.Error.Error()
		}
		out.Sources = append(out.Sources, summary)
	}

	switch {
	case report.PersistErr != nil:
		out.Status = "failed"
		out.PersistError = report.PersistErr.Error()
	case out.Stats.Failed > 0:
		out.Status = "partial"
	}

	if report.PersistErr == nil {
		if stats, err := store.GetFileStats(report.Output); err == nil {
			out.OutputSize = humanize.Bytes(uint64(stats.SizeBytes))
		}
	}
	return out
}

func recordRun(dbPath string, report *merger.Report, store *storage.Storage) (int64, error) {
	database, err := dbpkg.Open(dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	run := dbpkg.Run{
		RunUUID:    report.RunID,
		CreatedAt:  report.StartedAt,
		Elapsed:    report.Elapsed,
		OutputPath: report.Output,
		Properties: report.Properties,
	}
	if report.PersistErr != nil {
		run.PersistError = report.PersistErr.Error()
	} else if stats, err := store.GetFileStats(report.Output); err == nil {
		run.OutputSizeBytes = stats.SizeBytes
	}

	sources := make([]dbpkg.RunSource, 0, len(report.Sources))
	for _, s := range report.Sources {
		src := dbpkg.RunSource{Path: s.Source, Status: dbpkg.SourceStatusOK}
		if !s.OK() {
			src.Status = dbpkg.SourceStatusFailed
			src.ErrorMessage = s.Error.Error()
		}
		sources = append(sources, src)
	}

	return database.InsertRun(run, sources)
}
