// Package config handles environment variable loading for the spawner daemon.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string for the identity store
	DatabaseURL string

	// HTTP server port for the session API
	HTTPPort int

	// Port for the dedicated metrics server
	MetricsPort int

	// Bearer secret required on session endpoints. Empty disables auth
	// (local development only).
	AuthSecret string

	// Path to the admin-supplied sbatch directive template. When the file
	// is absent the built-in default directives are used.
	TemplatePath string

	// Directory copied into the owner's home on first use to provision a
	// per-user runtime profile.
	ProfileTemplateDir string

	// Directory for submission marker files consumed by the scheduler's
	// admission hook. Empty disables the hook.
	MarkerDir string

	// Number of external scheduler commands allowed in flight at once
	ExecutorConcurrency int

	// Interval between status queries in the submission wait-loop
	StatePollInterval time.Duration

	// Maximum time to wait for a submitted job to reach RUNNING
	SubmitTimeout time.Duration

	// Per-call timeout for a single scheduler command
	CommandTimeout time.Duration

	// Delay between a cancel request and its verification re-check
	StopRecheckDelay time.Duration

	// Scheduler and name-resolution binaries
	SbatchPath  string
	SqueuePath  string
	ScancelPath string
	HostPath    string

	// OTLP collector endpoint for traces
	OTELEndpoint string

	// Per-owner request rate limit (requests/second); 0 means unlimited
	RateLimit      float64
	RateLimitBurst int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:            8470,
		MetricsPort:         8471,
		TemplatePath:        "/etc/slurmspawn/template.slurm",
		ProfileTemplateDir:  "/etc/slurmspawn/profile",
		ExecutorConcurrency: 1,
		StatePollInterval:   1 * time.Second,
		SubmitTimeout:       10 * time.Minute,
		CommandTimeout:      10 * time.Second,
		StopRecheckDelay:    1 * time.Second,
		SbatchPath:          "sbatch",
		SqueuePath:          "squeue",
		ScancelPath:         "scancel",
		HostPath:            "host",
		OTELEndpoint:        "localhost:4317",
		RateLimit:           5,
		RateLimitBurst:      10,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}

	if err := intVar(&cfg.HTTPPort, "PORT"); err != nil {
		return nil, err
	}
	if err := intVar(&cfg.MetricsPort, "METRICS_PORT"); err != nil {
		return nil, err
	}
	if err := intVar(&cfg.ExecutorConcurrency, "EXECUTOR_CONCURRENCY"); err != nil {
		return nil, err
	}
	if cfg.ExecutorConcurrency < 1 {
		return nil, fmt.Errorf("EXECUTOR_CONCURRENCY must be at least 1")
	}

	if err := durationVar(&cfg.StatePollInterval, "STATE_POLL_INTERVAL"); err != nil {
		return nil, err
	}
	if err := durationVar(&cfg.SubmitTimeout, "SUBMIT_TIMEOUT"); err != nil {
		return nil, err
	}
	if err := durationVar(&cfg.CommandTimeout, "COMMAND_TIMEOUT"); err != nil {
		return nil, err
	}
	if err := durationVar(&cfg.StopRecheckDelay, "STOP_RECHECK_DELAY"); err != nil {
		return nil, err
	}

	stringVar(&cfg.AuthSecret, "AUTH_SECRET")
	stringVar(&cfg.TemplatePath, "TEMPLATE_PATH")
	stringVar(&cfg.ProfileTemplateDir, "PROFILE_TEMPLATE_DIR")
	stringVar(&cfg.MarkerDir, "MARKER_DIR")
	stringVar(&cfg.SbatchPath, "SBATCH_PATH")
	stringVar(&cfg.SqueuePath, "SQUEUE_PATH")
	stringVar(&cfg.ScancelPath, "SCANCEL_PATH")
	stringVar(&cfg.HostPath, "HOST_PATH")
	stringVar(&cfg.OTELEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = f
	}
	if err := intVar(&cfg.RateLimitBurst, "RATE_LIMIT_BURST"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func stringVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func intVar(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func durationVar(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
