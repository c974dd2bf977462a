// Package storage reads analysis documents from disk and writes merged results.
package storage

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dtnitsch/analysis-merger/models"
	"github.com/dtnitsch/analysis-merger/pkg/document"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed analysis-document.schema.json
var documentSchema []byte

// Storage resolves paths relative to BaseDir, or the working directory when BaseDir is empty.
type Storage struct {
	BaseDir string
	schema  *gojsonschema.Schema
}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// New returns a Storage rooted at baseDir.
func New(baseDir string) (*Storage, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile document schema: %w", err)
	}
	return &Storage{BaseDir: baseDir, schema: schema}, nil
}

func (s *Storage) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	base := s.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	return filepath.Join(base, path), nil
}

// Read loads a JSON analysis document. The top-level value must be an object.
func (s *Storage) Read(source string) (document.Value, error) {
	path, err := s.resolve(source)
	if err != nil {
		return document.Value{}, err
	}
	data, err := s.ReadFile(path)
	if err != nil {
		return document.Value{}, err
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return document.Value{}, fmt.Errorf("invalid JSON in %s: %w", source, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}
		return document.Value{}, fmt.Errorf("%s is not an analysis document: %s", source, strings.Join(msgs, "; "))
	}

	doc, err := document.Decode(data)
	if err != nil {
		return document.Value{}, fmt.Errorf("failed to decode %s: %w", source, err)
	}
	return doc, nil
}

// OutputPath applies the output naming policy: an empty destination becomes
// the default merge output, and a destination without an extension gets ".json".
func (s *Storage) OutputPath(destination string) (string, error) {
	if destination == "" {
		destination = models.DefaultMergeOutput
	}
	if filepath.Ext(destination) == "" {
		destination += ".json"
	}
	return s.resolve(destination)
}

// Write stores v as two-space indented JSON, creating parent directories and
// overwriting any existing file. It returns the path written.
func (s *Storage) Write(v document.Value, destination string) (string, error) {
	path, err := s.OutputPath(destination)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return path, fmt.Errorf("failed to marshal merged result: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return path, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := s.SaveFile(path, data); err != nil {
		return path, err
	}
	return path, nil
}

func (s *Storage) SaveFile(filePath string, content []byte) error {
	err := os.WriteFile(filePath, content, 0644)
	if err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}

	return nil
}

func (s *Storage) ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

// GetFileStats returns metadata about a file using os.Stat (no I/O overhead).
func (s *Storage) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}

	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}
