// Package reftable reads and rewrites the reference price table declared as
// a constant inside a TypeScript source file.
package reftable

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reference-price-updater/internal/prices"
)

// ErrTableNotFound is returned when the source file has no declaration for
// the requested table. The file is left untouched.
var ErrTableNotFound = errors.New("reference table declaration not found")

const timestampLayout = "02/01/2006 15:04"

var entryRe = regexp.MustCompile(`'([^']+)':\s*([\d.]+)`)

func declarationRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)export const ` + regexp.QuoteMeta(name) + `: \{[^}]*\} = \{([^}]*)\}`)
}

// statementRe only matches a declaration terminated by a semicolon; anything
// else is left for a human to fix.
func statementRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)export const ` + regexp.QuoteMeta(name) + `: \{[^}]*\} = \{[^}]*\};`)
}

// Extract returns the name/price pairs currently declared in content, in
// source order. Entries whose price does not parse are dropped.
func Extract(content, name string) []prices.Entry {
	m := declarationRe(name).FindStringSubmatch(content)
	if m == nil {
		return nil
	}

	var entries []prices.Entry
	for _, pair := range entryRe.FindAllStringSubmatch(m[1], -1) {
		price, err := strconv.ParseFloat(pair[2], 64)
		if err != nil {
			continue
		}
		entries = append(entries, prices.Entry{Name: pair[1], Price: price})
	}
	return entries
}

// ExtractNames is Extract without the prices.
func ExtractNames(content, name string) []string {
	entries := Extract(content, name)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Render builds the table literal. Entries are sorted by name and every price
// has two decimals.
func Render(name string, table prices.Table, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "export const %s: {[key: string]: number} = {\n", name)
	fmt.Fprintf(&b, "  // Reference prices - last updated: %s", now.Format(timestampLayout))
	for _, e := range table.Entries() {
		fmt.Fprintf(&b, "\n  '%s': %.2f,", e.Name, e.Price)
	}
	b.WriteString("\n};")
	return b.String()
}

// Replace swaps the first declaration of the table in content for the
// rendered literal. ok is false when there is no declaration.
func Replace(content, name string, table prices.Table, now time.Time) (updated string, ok bool) {
	loc := statementRe(name).FindStringIndex(content)
	if loc == nil {
		return content, false
	}
	return content[:loc[0]] + Render(name, table, now) + content[loc[1]:], true
}

// Rewrite replaces the table declared in the file at path. When the
// declaration is missing, ErrTableNotFound is returned and the file is not
// written.
func Rewrite(path, name string, table prices.Table, now time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	updated, ok := Replace(string(content), name, table, now)
	if !ok {
		return fmt.Errorf("%s in %s: %w", name, path, ErrTableNotFound)
	}

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
