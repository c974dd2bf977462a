// Package models defines data structures for configuration and merge requests.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMergeOutput = "merged.json"
	DefaultLogFile     = "log.txt"
)

// DefaultProperties are the analyzer properties merged when none are given.
var DefaultProperties = []string{
	"bigramFrequencies",
	"trigramFrequencies",
	"letterFrequencies",
	"meanWordSize",
	"medianWordSize",
	"wordFrequencies",
	"bigramPositions",
	"trigramPositions",
	"uniqueWords",
}

// DefaultTopMethods are the analyzer "top" results merged alongside the properties.
var DefaultTopMethods = []string{
	"topBigrams",
	"topTrigrams",
	"topWords",
}

var (
	ErrNoSources    = errors.New("no source documents provided")
	ErrNoProperties = errors.New("no properties provided")
)

// MergeConfig describes one merge: which documents, which properties, where to write.
type MergeConfig struct {
	SourceDocuments   []string `yaml:"sources"`
	PropertyNames     []string `yaml:"properties"`
	TopMethods        []string `yaml:"top_methods,omitempty"`
	OutputDestination string   `yaml:"output"`
}

// Properties returns the property names followed by the top methods.
func (c MergeConfig) Properties() []string {
	out := make([]string, 0, len(c.PropertyNames)+len(c.TopMethods))
	out = append(out, c.PropertyNames...)
	return append(out, c.TopMethods...)
}

// Validate checks the fields a merge cannot run without.
func (c MergeConfig) Validate() error {
	if len(c.SourceDocuments) == 0 {
		return ErrNoSources
	}
	if len(c.Properties()) == 0 {
		return ErrNoProperties
	}
	return nil
}

// Output returns the configured destination or the default merge output.
func (c MergeConfig) Output() string {
	if c.OutputDestination == "" {
		return DefaultMergeOutput
	}
	return c.OutputDestination
}

// LoadMergeConfig reads a YAML merge configuration. Relative source paths are
// resolved against the directory holding the config file.
func LoadMergeConfig(path string) (MergeConfig, error) {
	var cfg MergeConfig

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, src := range cfg.SourceDocuments {
		if !filepath.IsAbs(src) {
			cfg.SourceDocuments[i] = filepath.Join(dir, src)
		}
	}
	return cfg, nil
}
