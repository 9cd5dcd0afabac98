package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/ppiankov/canonica/internal/model"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVAdapter reads delimited exports. Files that are not valid UTF-8 are
// decoded as Windows-1252, the encoding spreadsheet tools use for
// Spanish-locale CSV. The delimiter is ';' or ',', whichever is more
// frequent on the first line.
type CSVAdapter struct{}

// NewCSVAdapter creates a new CSV adapter
func NewCSVAdapter() *CSVAdapter {
	return &CSVAdapter{}
}

// Name returns the adapter name
func (a *CSVAdapter) Name() string {
	return "csv"
}

// CanHandle checks for a .csv or .txt extension
func (a *CSVAdapter) CanHandle(path string) bool {
	return hasExt(path, ".csv", ".txt")
}

// Read decodes the file and converts its table into records.
func (a *CSVAdapter) Read(ctx context.Context, path string) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	data, err = toUTF8(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return fromTable(rows, provenanceOf(path)), nil
}

func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode windows-1252: %w", err)
	}
	return decoded, nil
}

func delimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
