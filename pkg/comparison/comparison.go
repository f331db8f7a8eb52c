// Package comparison maps decoded CSV rows onto prompt comparison records
// and provides the gallery helpers built on top of them.
package comparison

import (
	"errors"
	"fmt"
	"strings"

	"meshchat/pkg/csvrows"
)

// Column names matched case-insensitively against the header row.
const (
	ColumnPrompt   = "prompt"
	ColumnFluxURL  = "file_flux_url"
	ColumnDalleURL = "file_dalle_url"
	ColumnCategory = "category"
)

// Uncategorized is used when a record has no category value.
const Uncategorized = "Uncategorized"

// ErrMissingColumns is returned when the header lacks a required column.
var ErrMissingColumns = errors.New("csv header missing required columns")

// Record is one prompt rendered by two image models.
type Record struct {
	Prompt           string `json:"prompt"`
	FluxURL          string `json:"flux_url"`
	DalleURL         string `json:"dalle_url"`
	Category         string `json:"category"`
	OriginalCategory string `json:"original_category,omitempty"`
}

// Parse decodes CSV text and maps it to records.
func Parse(text string) ([]Record, error) {
	rows, err := csvrows.Parse(text)
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows maps decoded rows to records. The first row is the header.
// Short rows and rows missing a prompt or either URL are skipped.
func FromRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	promptIdx := indexOf(header, ColumnPrompt)
	fluxIdx := indexOf(header, ColumnFluxURL)
	dalleIdx := indexOf(header, ColumnDalleURL)
	categoryIdx := indexOf(header, ColumnCategory)

	var missing []string
	if promptIdx == -1 {
		missing = append(missing, ColumnPrompt)
	}
	if fluxIdx == -1 {
		missing = append(missing, ColumnFluxURL)
	}
	if dalleIdx == -1 {
		missing = append(missing, ColumnDalleURL)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	required := max(promptIdx, fluxIdx, dalleIdx, categoryIdx)

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= required {
			continue
		}
		rec := Record{
			Prompt:   strings.TrimSpace(row[promptIdx]),
			FluxURL:  strings.TrimSpace(row[fluxIdx]),
			DalleURL: strings.TrimSpace(row[dalleIdx]),
			Category: Uncategorized,
		}
		if categoryIdx != -1 {
			if c := strings.TrimSpace(row[categoryIdx]); c != "" {
				rec.Category = c
			}
		}
		if rec.Prompt == "" || rec.FluxURL == "" || rec.DalleURL == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Categories returns the distinct non-empty categories in first-seen order.
func Categories(records []Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		c := strings.TrimSpace(r.Category)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Filter keeps records in the given category. "all" or "" keeps everything.
func Filter(records []Record, category string) []Record {
	if category == "" || strings.EqualFold(category, "all") {
		return records
	}
	var out []Record
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
