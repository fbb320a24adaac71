package prices

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Table maps a product name to its reference price.
type Table map[string]float64

// Entry is a single name/price pair.
type Entry struct {
	Name  string
	Price float64
}

// Entries returns the table sorted by product name.
func (t Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t))
	for name, price := range t {
		entries = append(entries, Entry{Name: name, Price: price})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Validate reports why an entry cannot be written to the reference table.
func Validate(name string, price float64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty product name")
	}
	if strings.ContainsAny(name, "'{}\n\r\\") {
		return fmt.Errorf("product name %q contains a character that cannot be embedded in the reference table", name)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("non-finite price for %s", name)
	}
	if price < 0 {
		return fmt.Errorf("negative price %.2f for %s", price, name)
	}
	return nil
}

// ReadCSV parses the scrape tool's output. The header row is skipped; rows
// with at least three columns contribute column 0 as the name and column 1
// as the minimum price. Any read or parse error yields an empty table.
func ReadCSV(path string) Table {
	table, err := readCSV(path)
	if err != nil {
		slog.Error("Failed to read prices", "path", path, "error", err)
		return Table{}
	}
	slog.Info("Read prices from output file", "count", len(table), "path", path)
	return table
}

func readCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	table := Table{}
	for _, rec := range records[1:] {
		if len(rec) < 3 {
			continue
		}
		name := rec[0]
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for %s: %w", rec[1], name, err)
		}
		if err := Validate(name, price); err != nil {
			slog.Warn("Skipping price row", "error", err)
			continue
		}
		table[name] = price
	}
	return table, nil
}
