package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.UseNewExecutionPath)
	assert.Equal(t, 100, cfg.RolloutPercentage)
	assert.True(t, cfg.EnableEnrichment)
	assert.True(t, cfg.EnableThreatCorrelation)
	assert.Equal(t, 5*time.Second, cfg.FastTimeout())
	assert.Equal(t, 15*time.Second, cfg.MediumTimeout())
	assert.Equal(t, 30*time.Second, cfg.DeepTimeout())
	assert.Equal(t, "table", cfg.OutputFormat)
}

func TestParseFlags(t *testing.T) {
	cfg, err := ParseFlags([]string{
		"-u", "https://shop.example",
		"-rollout", "25",
		"-enrich=false",
		"-format", "json",
		"-deep-timeout", "45",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example", cfg.TargetURL)
	assert.Equal(t, 25, cfg.RolloutPercentage)
	assert.False(t, cfg.EnableEnrichment)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 45*time.Second, cfg.DeepTimeout())
	// untouched fields keep defaults
	assert.True(t, cfg.UseNewExecutionPath)
}

func TestParseFlagsMissingTarget(t *testing.T) {
	_, err := ParseFlags(nil)
	assert.ErrorIs(t, err, ErrMissingRequired)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"rollout too high", func(c *Config) { c.RolloutPercentage = 101 }},
		{"rollout negative", func(c *Config) { c.RolloutPercentage = -1 }},
		{"zero timeout", func(c *Config) { c.FastTimeoutS = 0 }},
		{"bad format", func(c *Config) { c.OutputFormat = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.TargetURL = "https://example.com"
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trustlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"target: https://shop.example\nrollout_percentage: 50\nenable_threat_correlation: false\n"), 0o600))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "https://shop.example", cfg.TargetURL)
	assert.Equal(t, 50, cfg.RolloutPercentage)
	assert.False(t, cfg.EnableThreatCorrelation)
	assert.True(t, cfg.EnableEnrichment)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("no_such_key: 1\n"), 0o600))

	cfg := Default()
	assert.ErrorIs(t, cfg.LoadFile(path), ErrInvalidConfig)
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.LoadFile("/nonexistent/trustlens.yaml"), ErrInvalidConfig)
}

func TestEnvOverridesFileButNotFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trustlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rollout_percentage: 10\n"), 0o600))

	t.Setenv("TRUSTLENS_TARGET", "https://env.example")
	t.Setenv("TRUSTLENS_ROLLOUT_PERCENTAGE", "20")
	t.Setenv("TRUSTLENS_FORMAT", "html")

	cfg, err := ParseFlags([]string{"-config", path, "-format", "pdf"})
	require.NoError(t, err)

	assert.Equal(t, "https://env.example", cfg.TargetURL) // env beats file
	assert.Equal(t, 20, cfg.RolloutPercentage)            // env beats file
	assert.Equal(t, "pdf", cfg.OutputFormat)              // flag beats env
}

func TestEnvBoolParsing(t *testing.T) {
	t.Setenv("TRUSTLENS_USE_NEW_EXECUTION_PATH", "false")
	t.Setenv("TRUSTLENS_ENABLE_ENRICHMENT", "not-a-bool")

	cfg := Default()
	cfg.ApplyEnv()

	assert.False(t, cfg.UseNewExecutionPath)
	assert.True(t, cfg.EnableEnrichment) // unparsable value ignored
}
