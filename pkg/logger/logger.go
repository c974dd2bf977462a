// Package logger reports merge progress to the console and to a JSON log file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

// Options configures a Logger. Zero values write boxes to stdout and errors to stderr.
type Options struct {
	Console io.Writer
	Errors  io.Writer
	// LogFile receives structured JSON log lines, appended. Empty logs to Errors instead.
	LogFile string
	Quiet   bool
}

// Logger implements the merge Log collaborator.
type Logger struct {
	console io.Writer
	errs    io.Writer
	quiet   bool
	slog    *slog.Logger
	file    *os.File

	importantBox lipgloss.Style
	plainBox     lipgloss.Style
	errorLine    *color.Color
}

func New(opts Options) (*Logger, error) {
	l := &Logger{
		console: opts.Console,
		errs:    opts.Errors,
		quiet:   opts.Quiet,
		importantBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1).
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("6")),
		plainBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1).
			Foreground(lipgloss.Color("14")),
		errorLine: color.New(color.FgRed, color.Bold),
	}
	if l.console == nil {
		l.console = os.Stdout
	}
	if l.errs == nil {
		l.errs = os.Stderr
	}

	logLevel := slog.LevelInfo
	if opts.Quiet {
		logLevel = slog.LevelError
	}

	var sink io.Writer = l.errs
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Clean(opts.LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		sink = f
	}
	l.slog = slog.New(slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: logLevel}))

	return l, nil
}

// Slog exposes the structured logger for callers that log outside the merge.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Notify shows message in a box and records it. Important messages are highlighted.
func (l *Logger) Notify(message string, important bool) {
	l.slog.Info(message, "important", important)
	if l.quiet {
		return
	}

	box := l.plainBox
	if important {
		box = l.importantBox
	}
	fmt.Fprintln(l.console, box.Render(message))
}

// RecordError logs a recoverable error. It never stops the caller.
func (l *Logger) RecordError(err error) {
	if err == nil {
		return
	}
	l.slog.Error("merge error", "error", err.Error())
	l.errorLine.Fprintf(l.errs, "error: %v\n", err)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
