package hippo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", false)
	require.NoError(t, err)

	assert.Equal(t, "https://compoundeer.com/api/trpc/company.getByTicker", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 10, cfg.Thresholds.MaxNameMismatches)
	assert.InDelta(t, 0.8, cfg.Thresholds.MinCompleteness, 1e-9)
	assert.Equal(t, "data/mappings/ticker_mapping.json", cfg.Paths.Mapping)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hippo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://example.test/api
max_retries: 7
request_delay: 1s
thresholds:
  max_name_mismatches: 2
paths:
  mapping: /tmp/custom_mapping.json
`), 0o644))

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api", cfg.BaseURL)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RequestDelay)
	assert.Equal(t, 2, cfg.Thresholds.MaxNameMismatches)
	assert.Equal(t, "/tmp/custom_mapping.json", cfg.Paths.Mapping)
	// untouched values keep their defaults
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "data/csv/company_details.csv", cfg.Paths.CSV)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	// implicit path: fall back to defaults
	cfg, err := LoadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxRetries)

	// explicit path: an error
	_, err = LoadConfig(missing, true)
	assert.Error(t, err)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("HIPPO_BASE_URL", "https://env.test/api")
	t.Setenv("HIPPO_SESSION_TOKEN", "secret-token")
	t.Setenv("HIPPO_REQUEST_TIMEOUT", "2.5")
	t.Setenv("HIPPO_MAX_RETRIES", "5")
	t.Setenv("HIPPO_CONCURRENCY", "8")
	t.Setenv("HIPPO_MAPPING", "/data/mapping.json")

	cfg, err := LoadConfig("", false)
	require.NoError(t, err)

	assert.Equal(t, "https://env.test/api", cfg.BaseURL)
	assert.Equal(t, "secret-token", cfg.SessionToken)
	assert.Equal(t, 2500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "/data/mapping.json", cfg.Paths.Mapping)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "negative retries", yaml: "max_retries: -1"},
		{name: "zero concurrency", yaml: "concurrency: 0"},
		{name: "completeness above one", yaml: "thresholds:\n  min_completeness: 1.5"},
		{name: "bad url", yaml: "base_url: not-a-url"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hippo.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))
			_, err := LoadConfig(path, true)
			assert.Error(t, err)
		})
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "30", want: 30 * time.Second},
		{in: "2.5", want: 2500 * time.Millisecond},
		{in: "45s", want: 45 * time.Second},
		{in: "1m", want: time.Minute},
	}
	for _, tc := range tests {
		got, err := parseSeconds(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	_, err := parseSeconds("soon")
	assert.Error(t, err)
}

func TestPathsOutputs(t *testing.T) {
	p := Paths{
		Mapping: "m.json", NDJSON: "a.ndjson", JSON: "a.json",
		CSV: "a.csv", SQL: "a.sql", Parquet: "a.parquet",
	}
	out := p.Outputs()
	assert.Equal(t, "a.json", out[EncodingJSON])
	assert.Equal(t, "a.ndjson", out[EncodingNDJSON])
	assert.Equal(t, "a.csv", out[EncodingCSV])
	assert.Equal(t, "a.sql", out[EncodingSQL])
	assert.Equal(t, "a.parquet", out[EncodingParquet])
}
