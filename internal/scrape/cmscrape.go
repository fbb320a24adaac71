package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Tool turns a product list CSV into a price output CSV.
type Tool interface {
	Name() string
	Run(ctx context.Context, productsPath, outputPath string) error
}

// ErrToolFailed wraps a nonzero exit of the scrape tool.
var ErrToolFailed = errors.New("scrape tool failed")

// CMScrape drives the external CMScrape Python tool.
type CMScrape struct {
	Dir    string
	Repo   string
	Python string
	Pip    string
	Git    string
	Runner CommandRunner
}

func (c *CMScrape) Name() string { return "CMScrape" }

func (c *CMScrape) runner() CommandRunner {
	if c.Runner == nil {
		return ExecRunner{}
	}
	return c.Runner
}

// Bootstrap clones and installs the tool when its directory is missing.
// Failures are logged and otherwise ignored; a broken install surfaces when
// Run is called.
func (c *CMScrape) Bootstrap(ctx context.Context) {
	if _, err := os.Stat(c.Dir); err == nil {
		slog.Info("CMScrape already installed", "dir", c.Dir)
		return
	}

	slog.Info("Downloading CMScrape...", "repo", c.Repo)
	if err := os.MkdirAll(filepath.Dir(c.Dir), 0755); err != nil {
		slog.Warn("Could not create CMScrape parent directory", "error", err)
	}

	steps := []Command{
		{Name: c.Git, Args: []string{"clone", c.Repo, c.Dir}},
		{Dir: c.Dir, Name: c.Pip, Args: []string{"install", "-r", "requirements.txt"}},
	}
	for _, step := range steps {
		res, err := c.runner().Run(ctx, step)
		if err != nil {
			slog.Warn("Bootstrap step failed", "command", step.String(), "error", err)
			continue
		}
		if res.ExitCode != 0 {
			slog.Warn("Bootstrap step exited with error", "command", step.String(), "code", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
		}
	}
	slog.Info("CMScrape installed", "dir", c.Dir)
}

// Run executes CMScrape.py against productsPath, writing to outputPath.
func (c *CMScrape) Run(ctx context.Context, productsPath, outputPath string) error {
	slog.Info("Fetching prices with CMScrape...")

	cmd := Command{
		Dir:  c.Dir,
		Name: c.Python,
		Args: []string{"CMScrape.py", "-i", productsPath, "-o", outputPath, "--no-proxies", "True"},
	}
	res, err := c.runner().Run(ctx, cmd)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: exit code %d: %s", ErrToolFailed, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	slog.Info("CMScrape finished")
	return nil
}
