// Package merger combines analysis documents into a single merged report.
package merger

import (
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/analysis-merger/models"
	"github.com/dtnitsch/analysis-merger/pkg/document"
	"github.com/google/uuid"
)

// Reader loads one analysis document.
type Reader interface {
	Read(source string) (document.Value, error)
}

// Writer persists the merged document and returns where it was written.
type Writer interface {
	Write(v document.Value, destination string) (string, error)
}

// Log receives progress notifications and recoverable errors.
type Log interface {
	Notify(message string, important bool)
	RecordError(err error)
}

// SourceStatus records how reading one source document went.
type SourceStatus struct {
	Source string
	Error  error
}

func (s SourceStatus) OK() bool { return s.Error == nil }

// Report describes a finished merge.
type Report struct {
	RunID      string
	Sources    []SourceStatus
	Properties []string
	Output     string
	Result     document.Value
	PersistErr error
	StartedAt  time.Time
	Elapsed    time.Duration
}

// Succeeded counts sources that were read and parsed.
func (r *Report) Succeeded() int {
	n := 0
	for _, s := range r.Sources {
		if s.OK() {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int { return len(r.Sources) - r.Succeeded() }

// Merger reads source documents, merges the requested properties and hands
// the result to its Writer.
type Merger struct {
	reader Reader
	writer Writer
	log    Log
}

func New(reader Reader, writer Writer, log Log) *Merger {
	return &Merger{reader: reader, writer: writer, log: log}
}

// Merge runs one merge. Only configuration errors are returned. Unreadable
// sources are logged and skipped, and a failed write is logged and reported in
// Report.PersistErr.
func (m *Merger) Merge(cfg models.MergeConfig) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		err = fmt.Errorf("invalid merge config: %w", err)
		m.log.RecordError(err)
		return nil, err
	}

	properties := UniqueNames(cfg.Properties())
	report := &Report{
		RunID:      uuid.NewString(),
		Properties: properties,
		StartedAt:  time.Now(),
	}

	m.log.Notify(fmt.Sprintf("Result merger is starting\nBeginning merge of %s\n\nMerging properties: %s",
		strings.Join(cfg.SourceDocuments, ", "),
		strings.Join(properties, ", "),
	), true)

	docs := make([]document.Value, 0, len(cfg.SourceDocuments))
	for _, src := range cfg.SourceDocuments {
		doc, err := m.reader.Read(src)
		if err != nil {
			err = fmt.Errorf("failed to read %s: %w", src, err)
			m.log.RecordError(err)
			report.Sources = append(report.Sources, SourceStatus{Source: src, Error: err})
			continue
		}
		docs = append(docs, doc)
		report.Sources = append(report.Sources, SourceStatus{Source: src})
	}

	result := MergeProperties(docs, properties)
	merged, err := Flatten(result)
	if err != nil {
		m.log.RecordError(fmt.Errorf("failed to flatten merged result: %w", err))
		merged = result
	}
	report.Result = merged

	output, err := m.writer.Write(merged, cfg.Output())
	if err != nil {
		report.PersistErr = fmt.Errorf("failed to write merged result: %w", err)
		m.log.RecordError(report.PersistErr)
	}
	if output == "" {
		output = cfg.Output()
	}
	report.Output = output
	report.Elapsed = time.Since(report.StartedAt)

	m.log.Notify(fmt.Sprintf("Result merger finished\n\nProperties: %s\nResults file: %s",
		strings.Join(properties, ", "),
		output,
	), true)

	return report, nil
}
