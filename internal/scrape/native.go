package scrape

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"reference-price-updater/internal/catalog"
)

// CardmarketSelector finds the "From" (lowest offer) value in the product
// info list of a Cardmarket product page.
var CardmarketSelector = Selector{
	CSS:   "dl.labeled dd:nth-of-type(2)",
	XPath: "//dl[contains(@class,'labeled')]/dt[normalize-space()='From' or normalize-space()='Desde' or normalize-space()='Ab' or normalize-space()='À partir de']/following-sibling::dd[1]",
}

// PriceScraper is the part of Scraper the native tool needs.
type PriceScraper interface {
	ScrapePrice(ctx context.Context, url string, sel Selector) (string, error)
}

// Native scrapes product pages in-process and writes the same output format
// as CMScrape: ProductName,MinPrice,URL.
type Native struct {
	Scraper  PriceScraper
	Selector Selector
}

func (n *Native) Name() string { return "native" }

func (n *Native) Run(ctx context.Context, productsPath, outputPath string) error {
	products, err := catalog.ReadCSV(productsPath)
	if err != nil {
		return fmt.Errorf("read product list: %w", err)
	}

	slog.Info("Fetching prices with native scraper...", "products", len(products))

	rows := [][]string{{"ProductName", "MinPrice", "URL"}}
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := n.Scraper.ScrapePrice(ctx, p.URL, n.Selector)
		if err != nil {
			slog.Error("Failed to scrape price", "product", p.Name, "url", p.URL, "error", err)
			continue
		}
		price, err := ParsePrice(text)
		if err != nil {
			slog.Warn("Failed to parse price", "product", p.Name, "price", text, "error", err)
			continue
		}
		rows = append(rows, []string{p.Name, strconv.FormatFloat(price, 'f', 2, 64), p.URL})
	}

	if len(rows) == 1 {
		return fmt.Errorf("%w: no product could be scraped", ErrToolFailed)
	}
	return writeRows(outputPath, rows)
}

func writeRows(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

var nonPriceRe = regexp.MustCompile(`[^\d.,]`)

// ParsePrice reads a display price such as "1.234,56 €" or "$1,234.56".
// When both separators appear the last one is the decimal point; a lone
// comma followed by one or two digits is a decimal comma.
func ParsePrice(priceStr string) (float64, error) {
	cleaned := strings.Trim(nonPriceRe.ReplaceAllString(priceStr, ""), ".,")

	dot := strings.LastIndex(cleaned, ".")
	comma := strings.LastIndex(cleaned, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case comma >= 0 && strings.Count(cleaned, ",") == 1 && len(cleaned)-comma-1 <= 2:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case comma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	return strconv.ParseFloat(cleaned, 64)
}
