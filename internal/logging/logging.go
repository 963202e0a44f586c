// Package logging builds the structured loggers used across splitledger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Common field names.
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldPartyID     = "party_id"
	FieldChunkID     = "chunk_id"
	FieldExpenseID   = "expense_id"
	FieldParticipant = "participant"
	FieldPayer       = "payer"
	FieldCode        = "code"
	FieldAmount      = "amount_minor"
	FieldCount       = "count"
	FieldError       = "error"
)

// Components.
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentGit     = "git"
	ComponentCLI     = "cli"
)

// Config holds logger configuration. A nil Handler means text to Output
// (stderr when nil) at Level.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
	Output    io.Writer
	JSON      bool
}

// DefaultConfig logs info and above as text to stderr.
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp}
}

// New returns a logger that tags every record with the configured component.
func New(cfg Config) *slog.Logger {
	handler := cfg.Handler
	if handler == nil {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		opts := &slog.HandlerOptions{Level: cfg.Level}
		if cfg.JSON {
			handler = slog.NewJSONHandler(out, opts)
		} else {
			handler = slog.NewTextHandler(out, opts)
		}
	}
	logger := slog.New(handler)
	if cfg.Component != "" {
		logger = logger.With(FieldComponent, cfg.Component)
	}
	return logger
}

// WithComponent derives a logger for a sub-component.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With(FieldComponent, component)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
