package source

import (
	"context"
	"fmt"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/xuri/excelize/v2"
)

// XLSXAdapter reads every sheet of a workbook. Cells are read raw, so
// date cells arrive as spreadsheet serial numbers for the date
// reconstructor. Merged ranges (a patient's demographics spanning several
// service rows) are expanded to every cell they cover.
type XLSXAdapter struct{}

// NewXLSXAdapter creates a new XLSX adapter
func NewXLSXAdapter() *XLSXAdapter {
	return &XLSXAdapter{}
}

// Name returns the adapter name
func (a *XLSXAdapter) Name() string {
	return "xlsx"
}

// CanHandle checks for a workbook extension
func (a *XLSXAdapter) CanHandle(path string) bool {
	return hasExt(path, ".xlsx", ".xlsm")
}

// Read converts each sheet with a recognizable header into records.
func (a *XLSXAdapter) Read(ctx context.Context, path string) ([]model.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	base := provenanceOf(path)
	var out []model.RawRecord

	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		merged, err := f.GetMergeCells(sheet)
		if err != nil {
			return nil, fmt.Errorf("read merged cells of %q: %w", sheet, err)
		}
		rows = expandMerged(rows, merged)

		prov := base
		prov.Sheet = sheet
		out = append(out, fromTable(rows, prov)...)
	}

	return out, nil
}

// expandMerged copies the top-left value of each merged range into every
// cell of the range.
func expandMerged(rows [][]string, merged []excelize.MergeCell) [][]string {
	for _, mc := range merged {
		c1, r1, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			continue
		}
		c2, r2, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			continue
		}

		value := mc.GetCellValue()
		if r1-1 < len(rows) && c1-1 < len(rows[r1-1]) {
			value = rows[r1-1][c1-1]
		}
		if value == "" {
			continue
		}

		for r := r1 - 1; r < r2; r++ {
			for len(rows) <= r {
				rows = append(rows, nil)
			}
			for len(rows[r]) < c2 {
				rows[r] = append(rows[r], "")
			}
			for c := c1 - 1; c < c2; c++ {
				rows[r][c] = value
			}
		}
	}
	return rows
}
