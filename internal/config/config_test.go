package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := FromEnv(envFrom(map[string]string{
		"PROJECT_DIR":        dir,
		"PRICE_UPDATE_API":   "http://localhost:3000/api/update-prices",
		"PRICE_UPDATE_TOKEN": "secret",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.CMScrapeDir != filepath.Join(dir, "scripts", "CMScrape") {
		t.Errorf("unexpected CMScrapeDir %s", cfg.CMScrapeDir)
	}
	if cfg.ServiceFile != filepath.Join(dir, "src", "lib", "cardmarketService.ts") {
		t.Errorf("unexpected ServiceFile %s", cfg.ServiceFile)
	}
	if cfg.TableName != "REFERENCE_PRICES" {
		t.Errorf("unexpected TableName %s", cfg.TableName)
	}
	if cfg.Tool != ToolCMScrape {
		t.Errorf("expected default tool %s, got %s", ToolCMScrape, cfg.Tool)
	}
	if cfg.HistoryDriver != HistoryFile {
		t.Errorf("expected default history driver %s, got %s", HistoryFile, cfg.HistoryDriver)
	}
	if cfg.JobTimeout != time.Hour {
		t.Errorf("expected 1h timeout, got %s", cfg.JobTimeout)
	}
}

func TestFromEnv_AbsolutePathsKept(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"PROJECT_DIR":        t.TempDir(),
		"SERVICE_FILE":       "/srv/app/prices.ts",
		"PRICE_UPDATE_API":   "http://api",
		"PRICE_UPDATE_TOKEN": "secret",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.ServiceFile != "/srv/app/prices.ts" {
		t.Errorf("expected absolute path to be kept, got %s", cfg.ServiceFile)
	}
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing endpoint",
			env:  map[string]string{"PRICE_UPDATE_TOKEN": "secret"},
			want: "PRICE_UPDATE_API",
		},
		{
			name: "missing token",
			env:  map[string]string{"PRICE_UPDATE_API": "http://api"},
			want: "PRICE_UPDATE_TOKEN",
		},
		{
			name: "unknown tool",
			env:  map[string]string{"PRICE_UPDATE_API": "http://api", "PRICE_UPDATE_TOKEN": "x", "SCRAPE_TOOL": "curl"},
			want: "SCRAPE_TOOL",
		},
		{
			name: "sql history without dsn",
			env:  map[string]string{"PRICE_UPDATE_API": "http://api", "PRICE_UPDATE_TOKEN": "x", "HISTORY_DRIVER": "postgres"},
			want: "HISTORY_DSN",
		},
		{
			name: "bad timeout",
			env:  map[string]string{"PRICE_UPDATE_API": "http://api", "PRICE_UPDATE_TOKEN": "x", "JOB_TIMEOUT": "soon"},
			want: "JOB_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envFrom(tt.env))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestFromEnv_SigningKeyReplacesToken(t *testing.T) {
	_, err := FromEnv(envFrom(map[string]string{
		"PRICE_UPDATE_API":         "http://api",
		"PRICE_UPDATE_SIGNING_KEY": "hmac-key",
	}))
	if err != nil {
		t.Fatalf("expected signing key alone to be accepted, got %v", err)
	}
}

func TestFromEnv_RunInterval(t *testing.T) {
	env := map[string]string{"PRICE_UPDATE_API": "http://api", "PRICE_UPDATE_TOKEN": "x"}

	cfg, err := FromEnv(envFrom(env))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RunInterval != 0 {
		t.Errorf("expected single run by default, got %s", cfg.RunInterval)
	}

	env["RUN_INTERVAL"] = "6h"
	cfg, err = FromEnv(envFrom(env))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RunInterval != 6*time.Hour {
		t.Errorf("expected 6h, got %s", cfg.RunInterval)
	}
}
