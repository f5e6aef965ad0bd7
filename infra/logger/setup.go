package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process-wide log output used by New.
type Options struct {
	// Level is a zerolog level name. Empty keeps LOG_LEVEL.
	Level string `json:"level" yaml:"level"`
	// Format is "json" or "console". Empty keeps the APP_ENV choice.
	Format string `json:"format" yaml:"format"`
	// File, when set, receives a copy of every line and is rotated.
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults fills rotation settings when a file is configured.
func (o *Options) SetDefaults() {
	if o.File == "" {
		return
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 10
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 3
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 7
	}
}

// Validate checks the level and format names.
func (o Options) Validate() error {
	if o.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(o.Level)); err != nil {
			return fmt.Errorf("invalid log level %q", o.Level)
		}
	}
	switch o.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", o.Format)
	}
	return nil
}

var (
	mu       sync.RWMutex
	output   io.Writer
	minLevel string
)

// Configure installs the output for every logger created afterwards. The
// returned closer releases the log file, if any.
func Configure(o Options) (io.Closer, error) {
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return nil, err
	}
	var stdout io.Writer = os.Stdout
	format := o.Format
	if format == "" && strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		format = "console"
	}
	if format == "console" {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	var closer io.Closer = nopCloser{}
	w := stdout
	if o.File != "" {
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAgeDays,
		}
		w = io.MultiWriter(stdout, lj)
		closer = lj
	}
	lvl := o.Level
	if lvl == "" {
		lvl = os.Getenv("LOG_LEVEL")
	}
	mu.Lock()
	output, minLevel = w, lvl
	mu.Unlock()
	return closer, nil
}

func configured() (io.Writer, string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return output, minLevel, output != nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// reset drops the configured output. Used by tests.
func reset() {
	mu.Lock()
	output, minLevel = nil, ""
	mu.Unlock()
}
