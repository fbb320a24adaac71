package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"reference-price-updater/internal/catalog"
	"reference-price-updater/internal/config"
	"reference-price-updater/internal/history"
	"reference-price-updater/internal/prices"
	"reference-price-updater/internal/reftable"
	"reference-price-updater/internal/scrape"
)

var (
	ErrScrapeFailed = errors.New("scrape failed")
	ErrNoPrices     = errors.New("no prices obtained")
)

// Bootstrapper is implemented by tools that must be installed before use.
type Bootstrapper interface {
	Bootstrap(ctx context.Context)
}

type Notifier interface {
	Send(ctx context.Context, table prices.Table, now time.Time) error
}

// Updater runs one refresh of the reference price table.
type Updater struct {
	tool     scrape.Tool
	recorder history.Recorder
	notifier Notifier

	seed         []catalog.Product
	productsFile string
	outputFile   string
	serviceFile  string
	tableName    string

	now func() time.Time
}

// New wires an Updater. recorder and notifier may be nil.
func New(cfg *config.Config, tool scrape.Tool, recorder history.Recorder, notifier Notifier) *Updater {
	return &Updater{
		tool:         tool,
		recorder:     recorder,
		notifier:     notifier,
		seed:         catalog.Seed,
		productsFile: cfg.ProductsFile,
		outputFile:   cfg.OutputFile,
		serviceFile:  cfg.ServiceFile,
		tableName:    cfg.TableName,
		now:          time.Now,
	}
}

// Run executes bootstrap, product list, scrape, read, rewrite, record and
// notify in order. It fails only when no file has been touched yet: the
// rewrite, record and notify stages log their errors and carry on.
func (u *Updater) Run(ctx context.Context) error {
	slog.Info("Starting price update", "at", u.now().Format("2006-01-02 15:04:05"))

	if b, ok := u.tool.(Bootstrapper); ok {
		b.Bootstrap(ctx)
	}

	products := u.buildProductList()
	if err := catalog.WriteCSV(u.productsFile, products); err != nil {
		return fmt.Errorf("write product list: %w", err)
	}
	slog.Info("Product list created", "products", len(products), "path", u.productsFile)

	if err := u.tool.Run(ctx, u.productsFile, u.outputFile); err != nil {
		slog.Error("Scrape tool failed, aborting", "tool", u.tool.Name(), "error", err)
		return fmt.Errorf("%w: %w", ErrScrapeFailed, err)
	}

	table := prices.ReadCSV(u.outputFile)
	if len(table) == 0 {
		slog.Error("No prices obtained, aborting")
		return ErrNoPrices
	}

	now := u.now()
	if err := reftable.Rewrite(u.serviceFile, u.tableName, table, now); err != nil {
		slog.Error("Failed to update reference table", "path", u.serviceFile, "error", err)
	} else {
		slog.Info("Reference table updated", "path", u.serviceFile, "prices", len(table))
	}

	if u.recorder != nil {
		if err := u.recorder.Record(ctx, history.NewUpdate(now, table)); err != nil {
			slog.Error("Failed to record price update", "error", err)
		}
	}

	if u.notifier != nil {
		if err := u.notifier.Send(ctx, table, now); err != nil {
			slog.Error("Failed to update prices on the server", "error", err)
		} else {
			slog.Info("Prices updated on the server")
		}
	}

	slog.Info("Price update finished", "at", u.now().Format("2006-01-02 15:04:05"))
	return nil
}

func (u *Updater) buildProductList() []catalog.Product {
	content, err := os.ReadFile(u.serviceFile)
	if err != nil {
		slog.Warn("Failed to read existing products", "path", u.serviceFile, "error", err)
		return catalog.Build(u.seed, nil)
	}
	return catalog.Build(u.seed, reftable.ExtractNames(string(content), u.tableName))
}
