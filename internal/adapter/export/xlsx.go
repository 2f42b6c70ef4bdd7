package export

import (
	"fmt"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// WriteWorkbook writes one sheet per region code, in state table order with
// DE-total last, using the TSV columns.
func WriteWorkbook(path string, regions map[string][]domain.DailyRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	for _, code := range domain.RegionCodes() {
		if _, err := f.NewSheet(code); err != nil {
			return fmt.Errorf("create sheet %s: %w", code, err)
		}
		if err := writeSheet(f, code, regions[code]); err != nil {
			return fmt.Errorf("write sheet %s: %w", code, err)
		}
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

func writeSheet(f *excelize.File, sheet string, records []domain.DailyRecord) error {
	header := make([]any, len(TSVColumns))
	for i, c := range TSVColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Date,
			r.BedsTotal,
			r.BedsOccupied,
			pctCell(r.OccupiedPct),
			r.CovidCases,
			pctCell(r.CovidSharePct),
			r.CovidVentilated,
			r.VentilatedPct,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// pctCell leaves the cell empty for a nil percentage.
func pctCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
