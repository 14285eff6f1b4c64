package hippo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds every knob of the pipeline. Values are resolved in order:
// built-in defaults, then the YAML file, then HIPPO_* environment variables.
// Paths are always passed down to the fetcher, writers and validator as
// explicit parameters; nothing in this package reads them from a global.
type Config struct {
	// BaseURL is the batched-RPC endpoint serving per-ticker company data.
	BaseURL string `yaml:"base_url" default:"https://compoundeer.com/api/trpc/company.getByTicker" validate:"required,url"`
	// SessionToken, when set, is attached as the session cookie on every
	// request.
	SessionToken   string        `yaml:"session_token"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"30s" validate:"gt=0"`
	MaxRetries     int           `yaml:"max_retries" default:"3" validate:"gte=0,lte=10"`
	// Concurrency bounds the fetch fan-out. 1 means strictly sequential.
	Concurrency int `yaml:"concurrency" default:"4" validate:"gte=1,lte=64"`
	// RequestDelay is the fixed pause between requests of a single worker.
	RequestDelay time.Duration `yaml:"request_delay" default:"250ms" validate:"gte=0"`
	UserAgent    string        `yaml:"user_agent" default:"hippo/0.1.0" validate:"required"`

	Thresholds Thresholds `yaml:"thresholds"`
	Paths      Paths      `yaml:"paths"`
}

// Thresholds bound how much inconsistency a run tolerates before it is
// declared failed instead of merely warned about.
type Thresholds struct {
	// MaxNameMismatches is the number of mapping/record name mismatches
	// above which validation fails.
	MaxNameMismatches int `yaml:"max_name_mismatches" default:"10" validate:"gte=0"`
	// MinCompleteness is the minimal fraction of mapping entries that must
	// be present in every encoding.
	MinCompleteness float64 `yaml:"min_completeness" default:"0.8" validate:"gte=0,lte=1"`
}

// Paths locates the mapping input and the five output encodings of a run.
type Paths struct {
	Mapping string `yaml:"mapping" default:"data/mappings/ticker_mapping.json" validate:"required"`
	NDJSON  string `yaml:"ndjson" default:"data/json/company_details.ndjson" validate:"required"`
	JSON    string `yaml:"json" default:"data/json/company_details.json" validate:"required"`
	CSV     string `yaml:"csv" default:"data/csv/company_details.csv" validate:"required"`
	SQL     string `yaml:"sql" default:"data/sql/company_details.sql" validate:"required"`
	Parquet string `yaml:"parquet" default:"data/parquet/company_details.parquet" validate:"required"`
}

// EnsureDirs creates the parent directories of every configured path without
// touching existing data.
func (p Paths) EnsureDirs() error {
	for _, f := range []string{p.Mapping, p.NDJSON, p.JSON, p.CSV, p.SQL, p.Parquet} {
		if dir := filepath.Dir(f); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("cannot create directory for %q: %w", f, err)
			}
		}
	}
	return nil
}

// Outputs returns the output file locations keyed by encoding name.
func (p Paths) Outputs() Outputs {
	return Outputs{
		EncodingJSON:    p.JSON,
		EncodingNDJSON:  p.NDJSON,
		EncodingCSV:     p.CSV,
		EncodingSQL:     p.SQL,
		EncodingParquet: p.Parquet,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at path, and the HIPPO_* environment. An empty path means "defaults plus
// environment"; a missing file at a non-empty path is an error only when the
// path was explicitly given.
func LoadConfig(path string, explicit bool) (*Config, error) {
	cfg := new(Config)
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("cannot apply default configuration: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// Fall through to defaults.
		case err != nil:
			return nil, fmt.Errorf("cannot read config %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("cannot parse config %q: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides config values from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("HIPPO_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("HIPPO_SESSION_TOKEN"); v != "" {
		c.SessionToken = v
	}
	if v := os.Getenv("HIPPO_REQUEST_TIMEOUT"); v != "" {
		if d, err := parseSeconds(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := os.Getenv("HIPPO_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("HIPPO_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
	if v := os.Getenv("HIPPO_REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestDelay = d
		}
	}
	if v := os.Getenv("HIPPO_MAPPING"); v != "" {
		c.Paths.Mapping = v
	}
}

// parseSeconds accepts either a bare number of seconds ("30", "2.5") or a Go
// duration ("30s", "1m").
func parseSeconds(s string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
