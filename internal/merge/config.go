package merge

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/analysis-merger/models"
	"github.com/urfave/cli/v2"
)

// buildConfig loads --config when given, then lets flags and positional
// arguments override it. It also returns the glob patterns that matched nothing.
func buildConfig(c *cli.Context) (models.MergeConfig, []string, error) {
	var cfg models.MergeConfig
	if path := c.String("config"); path != "" {
		loaded, err := models.LoadMergeConfig(path)
		if err != nil {
			return cfg, nil, err
		}
		cfg = loaded
	}

	files := append(splitList(c.StringSlice("files")), c.Args().Slice()...)
	if len(files) > 0 {
		cfg.SourceDocuments = files
	}
	var unmatched []string
	cfg.SourceDocuments, unmatched = expandSources(cfg.SourceDocuments)

	if c.IsSet("properties") {
		cfg.PropertyNames = splitList(c.StringSlice("properties"))
	} else if len(cfg.PropertyNames) == 0 {
		cfg.PropertyNames = append([]string(nil), models.DefaultProperties...)
	}
	if c.IsSet("top-methods") {
		cfg.TopMethods = splitList(c.StringSlice("top-methods"))
	}
	if c.IsSet("output") {
		cfg.OutputDestination = c.String("output")
	}

	return cfg, unmatched, nil
}

// splitList trims entries and drops empty ones.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// expandSources expands glob patterns in order. Patterns without matches, or
// malformed ones, are kept as-is so the reader reports them as unreadable.
func expandSources(patterns []string) (sources, unmatched []string) {
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			sources = append(sources, pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			unmatched = append(unmatched, pattern)
			sources = append(sources, pattern)
			continue
		}
		sources = append(sources, matches...)
	}
	return sources, unmatched
}

func validateFormat(format string) error {
	switch format {
	case "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported format %q (use json or yaml)", format)
	}
}
