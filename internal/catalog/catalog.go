// Package catalog builds the list of products handed to the scrape tool.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Product is one line of the product list CSV.
type Product struct {
	Name string
	URL  string
}

const urlTemplate = "https://www.cardmarket.com/es/Pokemon/Products/Booster-Boxes/%s?language=10"

var header = []string{"ProductName", "URL"}

// Seed is the fixed set of products that is always scraped.
var Seed = []Product{
	{Name: "VSTAR-Universe-Booster-Box", URL: "https://www.cardmarket.com/en/Pokemon/Products/Booster-Boxes/VSTAR-Universe-Booster-Box?language=7"},
	{Name: "Terastal-Festival-ex-Booster-Box", URL: "https://www.cardmarket.com/es/Pokemon/Products/Booster-Boxes/Terastal-Festival-ex-Booster-Box?language=10"},
	{Name: "Super-Electric-Breaker-Booster-Box", URL: "https://www.cardmarket.com/es/Pokemon/Products/Booster-Boxes/Super-Electric-Breaker-Booster-Box?language=10"},
	{Name: "Obsidian-Flames-Booster-Box", URL: "https://www.cardmarket.com/es/Pokemon/Products/Booster-Boxes/Obsidian-Flames-Booster-Box?language=10"},
	{Name: "Paldean-Fates-Booster-Box", URL: "https://www.cardmarket.com/es/Pokemon/Products/Booster-Boxes/Paldean-Fates-Booster-Box?language=10"},
	{Name: "Scarlet-Violet-Booster-Box", URL: "https://www.cardmarket.com/es/Pokemon/Products/Booster-Boxes/Scarlet-Violet-Booster-Box?language=10"},
	{Name: "Temporal-Forces-Booster-Box", URL: "https://www.cardmarket.com/es/Pokemon/Products/Booster-Boxes/Temporal-Forces-Booster-Box?language=10"},
	{Name: "Pokemon-151-Booster-Box", URL: "https://www.cardmarket.com/es/Pokemon/Products/Booster-Boxes/Pokemon-151-Booster-Box?language=10"},
	{Name: "Crown-Zenith-Booster-Box", URL: "https://www.cardmarket.com/es/Pokemon/Products/Booster-Boxes/Crown-Zenith-Booster-Box?language=10"},
}

// URLFor synthesizes a product page URL from the Cardmarket naming convention.
func URLFor(name string) string {
	return fmt.Sprintf(urlTemplate, name)
}

// Build returns the seed entries followed by every discovered name that is
// not already in the seed. Discovered names are not deduplicated among
// themselves.
func Build(seed []Product, discovered []string) []Product {
	products := make([]Product, len(seed), len(seed)+len(discovered))
	copy(products, seed)

	inSeed := make(map[string]bool, len(seed))
	for _, p := range seed {
		inSeed[p.Name] = true
	}

	for _, name := range discovered {
		if inSeed[name] {
			continue
		}
		products = append(products, Product{Name: name, URL: URLFor(name)})
	}
	return products
}

// WriteCSV writes products to path with a ProductName,URL header.
func WriteCSV(path string, products []Product) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create product list dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create product list: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range products {
		if err := w.Write([]string{p.Name, p.URL}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write product list: %w", err)
	}
	return f.Close()
}

// ReadCSV reads a product list written by WriteCSV.
func ReadCSV(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse product list: %w", err)
	}

	var products []Product
	for i, rec := range records {
		if i == 0 || len(rec) < 2 {
			continue
		}
		products = append(products, Product{Name: rec[0], URL: rec[1]})
	}
	return products, nil
}
