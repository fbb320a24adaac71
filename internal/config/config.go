package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	ToolCMScrape = "cmscrape"
	ToolNative   = "native"

	HistoryFile     = "file"
	HistoryPostgres = "postgres"
	HistorySQLite   = "sqlite"
)

// Config holds everything the updater job needs. Paths are absolute once
// Load returns.
type Config struct {
	ProjectDir string

	CMScrapeDir  string
	CMScrapeRepo string
	PythonBin    string
	PipBin       string
	GitBin       string

	ProductsFile string
	OutputFile   string
	ServiceFile  string
	TableName    string

	Tool string

	HistoryDriver string
	HistoryDSN    string
	HistoryDir    string

	APIEndpoint string
	APIToken    string
	SigningKey  string

	JobTimeout  time.Duration
	RunInterval time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	projectDir, err := filepath.Abs(get("PROJECT_DIR", "."))
	if err != nil {
		return nil, fmt.Errorf("resolve PROJECT_DIR: %w", err)
	}
	path := func(key, def string) string {
		p := get(key, def)
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(projectDir, p)
	}

	cfg := &Config{
		ProjectDir:    projectDir,
		CMScrapeDir:   path("CMSCRAPE_DIR", filepath.Join("scripts", "CMScrape")),
		CMScrapeRepo:  get("CMSCRAPE_REPO", "https://github.com/DrankRock/CMScrape.git"),
		PythonBin:     get("PYTHON_BIN", "python"),
		PipBin:        get("PIP_BIN", "pip"),
		GitBin:        get("GIT_BIN", "git"),
		ProductsFile:  path("PRODUCTS_FILE", filepath.Join("scripts", "product_links.csv")),
		OutputFile:    path("OUTPUT_FILE", filepath.Join("scripts", "prices_output.csv")),
		ServiceFile:   path("SERVICE_FILE", filepath.Join("src", "lib", "cardmarketService.ts")),
		TableName:     get("REFERENCE_TABLE_NAME", "REFERENCE_PRICES"),
		Tool:          get("SCRAPE_TOOL", ToolCMScrape),
		HistoryDriver: get("HISTORY_DRIVER", HistoryFile),
		HistoryDSN:    getenv("HISTORY_DSN"),
		HistoryDir:    path("HISTORY_DIR", "logs"),
		APIEndpoint:   getenv("PRICE_UPDATE_API"),
		APIToken:      getenv("PRICE_UPDATE_TOKEN"),
		SigningKey:    getenv("PRICE_UPDATE_SIGNING_KEY"),
	}

	cfg.JobTimeout, err = time.ParseDuration(get("JOB_TIMEOUT", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TIMEOUT: %w", err)
	}
	if v := getenv("RUN_INTERVAL"); v != "" {
		cfg.RunInterval, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RUN_INTERVAL: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIEndpoint == "" {
		return fmt.Errorf("PRICE_UPDATE_API environment variable is not set")
	}
	if c.APIToken == "" && c.SigningKey == "" {
		return fmt.Errorf("PRICE_UPDATE_TOKEN or PRICE_UPDATE_SIGNING_KEY environment variable must be set")
	}

	switch c.Tool {
	case ToolCMScrape, ToolNative:
	default:
		return fmt.Errorf("unknown SCRAPE_TOOL %q", c.Tool)
	}

	switch c.HistoryDriver {
	case HistoryFile:
	case HistoryPostgres, HistorySQLite:
		if c.HistoryDSN == "" {
			return fmt.Errorf("HISTORY_DSN environment variable is required for HISTORY_DRIVER=%s", c.HistoryDriver)
		}
	default:
		return fmt.Errorf("unknown HISTORY_DRIVER %q", c.HistoryDriver)
	}

	if c.JobTimeout <= 0 {
		return fmt.Errorf("JOB_TIMEOUT must be positive")
	}
	if c.RunInterval < 0 {
		return fmt.Errorf("RUN_INTERVAL must not be negative")
	}
	return nil
}
