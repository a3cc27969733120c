// Package config holds CLI configuration: defaults, YAML file loading,
// TRUSTLENS_ environment overrides and flag parsing, applied in that order.
package config

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trustlens/trustlens/pkg/defaults"
	"github.com/trustlens/trustlens/pkg/duration"
)

// Config holds all CLI configuration options.
type Config struct {
	// Target settings
	TargetURL   string `yaml:"target"`
	ContentFile string `yaml:"content_file"` // pre-fetched page HTML (empty = fetch live)
	HeadersFile string `yaml:"headers_file"` // pre-fetched response headers, YAML map

	// Execution path settings
	UseNewExecutionPath     bool `yaml:"use_new_execution_path"`
	RolloutPercentage       int  `yaml:"rollout_percentage"`
	EnableEnrichment        bool `yaml:"enable_enrichment"`
	EnableThreatCorrelation bool `yaml:"enable_threat_correlation"`

	// Tier budgets in seconds
	FastTimeoutS   int `yaml:"fast_timeout_s"`
	MediumTimeoutS int `yaml:"medium_timeout_s"`
	DeepTimeoutS   int `yaml:"deep_timeout_s"`

	// Module settings
	ScriptsDir string `yaml:"scripts_dir"` // custom check scripts (empty = none)
	ChromePath string `yaml:"chrome_path"` // browser binary for DOM analysis

	// Threat intel settings
	IntelEndpoint string `yaml:"intel_endpoint"` // reputation API base URL (empty = disabled)
	IntelAPIKey   string `yaml:"intel_api_key"`

	// Output settings
	OutputFile   string `yaml:"output"` // empty = stdout
	OutputFormat string `yaml:"format"` // table, json, html, pdf
	Verbose      bool   `yaml:"verbose"`
	NoColor      bool   `yaml:"no_color"`

	// Metrics settings
	MetricsPort int `yaml:"metrics_port"` // 0 = disabled

	// Tracing settings
	OTelEndpoint string `yaml:"otel_endpoint"` // OTLP gRPC collector (empty = disabled)
	OTelInsecure bool   `yaml:"otel_insecure"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		UseNewExecutionPath:     true,
		RolloutPercentage:       defaults.RolloutFull,
		EnableEnrichment:        true,
		EnableThreatCorrelation: true,
		FastTimeoutS:            int(duration.TierFast / time.Second),
		MediumTimeoutS:          int(duration.TierMedium / time.Second),
		DeepTimeoutS:            int(duration.TierDeep / time.Second),
		OutputFormat:            "table",
	}
}

// FastTimeout returns the fast tier budget as a duration.
func (c *Config) FastTimeout() time.Duration { return time.Duration(c.FastTimeoutS) * time.Second }

// MediumTimeout returns the medium tier budget as a duration.
func (c *Config) MediumTimeout() time.Duration { return time.Duration(c.MediumTimeoutS) * time.Second }

// DeepTimeout returns the deep per-module budget as a duration.
func (c *Config) DeepTimeout() time.Duration { return time.Duration(c.DeepTimeoutS) * time.Second }

// LoadFile merges a YAML config file into c. Unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// ApplyEnv overlays TRUSTLENS_* environment variables onto c.
func (c *Config) ApplyEnv() {
	envString("TRUSTLENS_TARGET", &c.TargetURL)
	envString("TRUSTLENS_CONTENT_FILE", &c.ContentFile)
	envString("TRUSTLENS_HEADERS_FILE", &c.HeadersFile)
	envBool("TRUSTLENS_USE_NEW_EXECUTION_PATH", &c.UseNewExecutionPath)
	envInt("TRUSTLENS_ROLLOUT_PERCENTAGE", &c.RolloutPercentage)
	envBool("TRUSTLENS_ENABLE_ENRICHMENT", &c.EnableEnrichment)
	envBool("TRUSTLENS_ENABLE_THREAT_CORRELATION", &c.EnableThreatCorrelation)
	envInt("TRUSTLENS_FAST_TIMEOUT_S", &c.FastTimeoutS)
	envInt("TRUSTLENS_MEDIUM_TIMEOUT_S", &c.MediumTimeoutS)
	envInt("TRUSTLENS_DEEP_TIMEOUT_S", &c.DeepTimeoutS)
	envString("TRUSTLENS_SCRIPTS_DIR", &c.ScriptsDir)
	envString("TRUSTLENS_CHROME_PATH", &c.ChromePath)
	envString("TRUSTLENS_INTEL_ENDPOINT", &c.IntelEndpoint)
	envString("TRUSTLENS_INTEL_API_KEY", &c.IntelAPIKey)
	envString("TRUSTLENS_OUTPUT", &c.OutputFile)
	envString("TRUSTLENS_FORMAT", &c.OutputFormat)
	envInt("TRUSTLENS_METRICS_PORT", &c.MetricsPort)
	envString("TRUSTLENS_OTEL_ENDPOINT", &c.OTelEndpoint)
	envBool("TRUSTLENS_OTEL_INSECURE", &c.OTelInsecure)
}

// Validate checks semantic constraints after all sources are merged.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return fmt.Errorf("%w: target (use -u or TRUSTLENS_TARGET)", ErrMissingRequired)
	}
	if c.RolloutPercentage < 0 || c.RolloutPercentage > 100 {
		return fmt.Errorf("%w: rollout_percentage %d outside [0,100]", ErrInvalidConfig, c.RolloutPercentage)
	}
	if c.FastTimeoutS <= 0 || c.MediumTimeoutS <= 0 || c.DeepTimeoutS <= 0 {
		return fmt.Errorf("%w: tier timeouts must be positive", ErrInvalidConfig)
	}
	switch c.OutputFormat {
	case "table", "json", "html", "pdf":
	default:
		return fmt.Errorf("%w: format %q (want table, json, html or pdf)", ErrInvalidConfig, c.OutputFormat)
	}
	return nil
}

// ParseFlags builds a Config from defaults, an optional YAML file,
// environment overrides and command line arguments, in that order.
func ParseFlags(args []string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("trustlens", flag.ContinueOnError)

	var configFile string
	fs.StringVar(&configFile, "config", "", "YAML config file")

	// === INPUT ===
	fs.StringVar(&cfg.TargetURL, "u", cfg.TargetURL, "Target URL")
	fs.StringVar(&cfg.TargetURL, "target", cfg.TargetURL, "Target URL (alias)")
	fs.StringVar(&cfg.ContentFile, "content", cfg.ContentFile, "Pre-fetched page HTML file (skips live fetch)")
	fs.StringVar(&cfg.HeadersFile, "headers", cfg.HeadersFile, "Pre-fetched response headers, YAML map")

	// === EXECUTION ===
	fs.BoolVar(&cfg.UseNewExecutionPath, "new-path", cfg.UseNewExecutionPath, "Use the tiered execution path")
	fs.IntVar(&cfg.RolloutPercentage, "rollout", cfg.RolloutPercentage, "Percent of targets routed to the new path (0-100)")
	fs.BoolVar(&cfg.EnableEnrichment, "enrich", cfg.EnableEnrichment, "Enable CWE/score enrichment")
	fs.BoolVar(&cfg.EnableThreatCorrelation, "threat-intel", cfg.EnableThreatCorrelation, "Enable threat reputation correlation")
	fs.IntVar(&cfg.FastTimeoutS, "fast-timeout", cfg.FastTimeoutS, "Fast tier budget in seconds")
	fs.IntVar(&cfg.MediumTimeoutS, "medium-timeout", cfg.MediumTimeoutS, "Medium tier budget in seconds")
	fs.IntVar(&cfg.DeepTimeoutS, "deep-timeout", cfg.DeepTimeoutS, "Deep per-module budget in seconds")

	// === MODULES ===
	fs.StringVar(&cfg.ScriptsDir, "scripts", cfg.ScriptsDir, "Directory of custom check scripts")
	fs.StringVar(&cfg.ChromePath, "chrome", cfg.ChromePath, "Chrome/Chromium binary for DOM analysis")

	// === THREAT INTEL ===
	fs.StringVar(&cfg.IntelEndpoint, "intel-endpoint", cfg.IntelEndpoint, "Reputation API base URL")
	fs.StringVar(&cfg.IntelAPIKey, "intel-key", cfg.IntelAPIKey, "Reputation API key")

	// === OUTPUT ===
	fs.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Output file path (empty = stdout)")
	fs.StringVar(&cfg.OutputFile, "o", cfg.OutputFile, "Output file (alias)")
	fs.StringVar(&cfg.OutputFormat, "format", cfg.OutputFormat, "Output format: table, json, html, pdf")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose (alias)")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored output")
	fs.IntVar(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "Prometheus metrics port (0 = disabled)")
	fs.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP gRPC collector endpoint (empty = disabled)")
	fs.BoolVar(&cfg.OTelInsecure, "otel-insecure", cfg.OTelInsecure, "Skip TLS for the OTLP collector")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// File and env sit between defaults and flags; re-parse so explicit
	// flags win over both.
	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
