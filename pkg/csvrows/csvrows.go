// Package csvrows decodes loosely structured CSV text into rows of fields.
//
// The decoder is a single forward scan with one byte of lookahead. Fields may
// be wrapped in double quotes, in which case they can contain commas, line
// breaks and doubled quotes. Rows whose fields are all empty are dropped.
package csvrows

import (
	"errors"
	"strings"
)

// ErrUnmatchedQuote is returned when the input ends inside a quoted field.
var ErrUnmatchedQuote = errors.New("csv parse error: unmatched quote")

const (
	quote     = '"'
	separator = ','
)

// Parse splits text into rows. It never returns partial rows: a structural
// failure discards everything decoded so far.
func Parse(text string) ([][]string, error) {
	var rows [][]string
	var field strings.Builder
	var row []string
	inQuotes := false

	commit := func() {
		row = append(row, field.String())
		field.Reset()
		if hasContent(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			if c == quote {
				if i+1 < len(text) && text[i+1] == quote {
					field.WriteByte(quote)
					i++
				} else {
					inQuotes = false
				}
				continue
			}
			field.WriteByte(c)
			continue
		}

		switch c {
		case quote:
			inQuotes = true
		case separator:
			row = append(row, field.String())
			field.Reset()
		case '\r':
		case '\n':
			commit()
		default:
			field.WriteByte(c)
		}
	}

	if inQuotes {
		return nil, ErrUnmatchedQuote
	}
	commit()

	return rows, nil
}

// Quote renders a single field so that Parse reads it back unchanged.
func Quote(field string) string {
	if !strings.ContainsAny(field, "\",\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// FormatRow joins fields into one CSV line without a trailing newline.
func FormatRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = Quote(f)
	}
	return strings.Join(quoted, ",")
}

func hasContent(row []string) bool {
	for _, v := range row {
		if v != "" {
			return true
		}
	}
	return false
}
