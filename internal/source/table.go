package source

import (
	"strings"

	"github.com/ppiankov/canonica/internal/model"
)

const (
	// headerScanRows is how many leading rows may hold the header.
	headerScanRows = 20
	// minHeaderMatches is the number of known headers a row needs.
	minHeaderMatches = 3
)

// findHeader returns the row within the first headerScanRows with the
// most known headers, at least minHeaderMatches; the earliest wins a
// tie. Without such a row the first row is the header.
func findHeader(rows [][]string) int {
	best, bestMatches := 0, minHeaderMatches-1
	for i, row := range rows {
		if i >= headerScanRows {
			break
		}
		matches := 0
		for _, cell := range row {
			if _, ok := ColumnFor(cell); ok {
				matches++
			}
		}
		if matches > bestMatches {
			best, bestMatches = i, matches
		}
	}
	return best
}

// fromTable converts a rectangular table into raw records. Unknown
// columns are dropped; blank and summary rows are skipped.
func fromTable(rows [][]string, prov model.Provenance) []model.RawRecord {
	if len(rows) == 0 {
		return nil
	}

	h := findHeader(rows)
	columns := make(map[int]string)
	for i, cell := range rows[h] {
		field, ok := ColumnFor(cell)
		if !ok {
			continue
		}
		dup := false
		for _, f := range columns {
			if f == field {
				dup = true
				break
			}
		}
		if !dup {
			columns[i] = field
		}
	}
	if len(columns) == 0 {
		return nil
	}

	var out []model.RawRecord
	for _, row := range rows[h+1:] {
		fields := make(map[string]any, len(columns))
		for i, field := range columns {
			if i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					fields[field] = v
				}
			}
		}
		if isBlank(fields) || isSummary(fields) {
			continue
		}
		out = append(out, model.RawRecord{Fields: fields, Provenance: prov})
	}
	return out
}
