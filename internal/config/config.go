// Package config provides configuration management for the labeller.
// Values come from defaults, then an optional YAML file, then environment
// variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort         = 8797
	DefaultLogLevel     = "info"
	DefaultDataDir      = ".tofu"
	DefaultSpacingMs    = 3000.0
	DefaultFFprobe      = "ffprobe"
	DefaultProbeTimeout = 15 * time.Second

	// Environment variable names
	EnvConfigPath = "TOFU_CONFIG_PATH"
	EnvPort       = "TOFU_PORT"
	EnvLogLevel   = "TOFU_LOG_LEVEL"
	EnvDataDir    = "TOFU_DATA_DIR"
	EnvSpacingMs  = "TOFU_SPACING_MS"
	EnvHeadless   = "TOFU_HEADLESS"
	EnvExportDir  = "TOFU_EXPORT_DIR"
	EnvFFprobe    = "TOFU_FFPROBE"

	// Database filename
	DBFilename = "tofu.db"
)

var ErrInvalidConfig = errors.New("invalid config")

// Binding is a shortcut declared in the config file.
type Binding struct {
	Combo string `yaml:"combo"`
	Label string `yaml:"label"`
}

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	SpacingMs() float64
	Headless() bool
	ExportDir() string
	FFprobePath() string
	ProbeTimeout() time.Duration
	Bindings() []Binding
}

type fileConfig struct {
	Port      *int      `yaml:"port"`
	LogLevel  string    `yaml:"log_level"`
	DataDir   string    `yaml:"data_dir"`
	SpacingMs *float64  `yaml:"spacing_ms"`
	Headless  *bool     `yaml:"headless"`
	ExportDir string    `yaml:"export_dir"`
	FFprobe   string    `yaml:"ffprobe"`
	Bindings  []Binding `yaml:"bindings"`
}

// EnvConfig holds the resolved configuration.
type EnvConfig struct {
	port      int
	logLevel  string
	dataDir   string
	spacingMs float64
	headless  bool
	exportDir string
	ffprobe   string
	bindings  []Binding
}

// New creates a new EnvConfig with defaults, the optional config file and
// environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:      DefaultPort,
		logLevel:  DefaultLogLevel,
		dataDir:   defaultDataDir(),
		spacingMs: DefaultSpacingMs,
		ffprobe:   DefaultFFprobe,
	}

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if s := os.Getenv(EnvSpacingMs); s != "" {
		spacing, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSpacingMs, err)
		}
		cfg.spacingMs = spacing
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if d := os.Getenv(EnvExportDir); d != "" {
		cfg.exportDir = d
	}

	if f := os.Getenv(EnvFFprobe); f != "" {
		cfg.ffprobe = f
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.Port != nil {
		c.port = *fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.DataDir != "" {
		c.dataDir = fc.DataDir
	}
	if fc.SpacingMs != nil {
		c.spacingMs = *fc.SpacingMs
	}
	if fc.Headless != nil {
		c.headless = *fc.Headless
	}
	if fc.ExportDir != "" {
		c.exportDir = fc.ExportDir
	}
	if fc.FFprobe != "" {
		c.ffprobe = fc.FFprobe
	}
	c.bindings = fc.Bindings
	return nil
}

// Validate checks ranges after all sources have been applied.
func (c *EnvConfig) Validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidConfig)
	}
	if c.spacingMs < 0 || math.IsNaN(c.spacingMs) || math.IsInf(c.spacingMs, 0) {
		return fmt.Errorf("%w: spacing must be a non-negative number of milliseconds", ErrInvalidConfig)
	}
	switch strings.ToLower(c.logLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.logLevel)
	}
	for i, b := range c.bindings {
		if strings.TrimSpace(b.Combo) == "" || strings.TrimSpace(b.Label) == "" {
			return fmt.Errorf("%w: binding %d needs both combo and label", ErrInvalidConfig, i+1)
		}
	}
	return nil
}

// Overrides carries command-line flag values. Zero values leave the
// current setting alone.
type Overrides struct {
	Port      int
	LogLevel  string
	DataDir   string
	ExportDir string
	Headless  bool
}

// Apply folds flag overrides into the config and revalidates.
func (c *EnvConfig) Apply(o Overrides) error {
	if o.Port != 0 {
		c.port = o.Port
	}
	if o.LogLevel != "" {
		c.logLevel = o.LogLevel
	}
	if o.DataDir != "" {
		c.dataDir = o.DataDir
	}
	if o.ExportDir != "" {
		c.exportDir = o.ExportDir
	}
	if o.Headless {
		c.headless = true
	}
	return c.Validate()
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// SpacingMs is the slack placed either side of a selected mark.
func (c *EnvConfig) SpacingMs() float64 {
	return c.spacingMs
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

// ExportDir defaults to an exports folder inside the data directory. The
// result is made absolute against the working directory.
func (c *EnvConfig) ExportDir() string {
	dir := c.exportDir
	if dir == "" {
		dir = filepath.Join(c.dataDir, "exports")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return DefaultProbeTimeout
}

// Bindings returns the shortcuts declared in the config file.
func (c *EnvConfig) Bindings() []Binding {
	out := make([]Binding, len(c.bindings))
	copy(out, c.bindings)
	return out
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
