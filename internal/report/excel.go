package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"rank-drop-alerts/internal/storage"
)

const sheetName = "History"

// WriteWorkbook saves the tabular snapshot as an Excel workbook, one row per
// observation in log order.
func WriteWorkbook(path string, rows []storage.Observation) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"Position", "PromoPosition", "Time", "Query", "SKU"}
	if err := writeRow(file, 1, header); err != nil {
		return err
	}

	for i, obs := range rows {
		record := []any{
			obs.Position,
			obs.PromoPosition,
			obs.ObservedAt.Format(storage.TimeLayout),
			obs.Phrase,
			obs.SKU,
		}
		if err := writeRow(file, i+2, record); err != nil {
			return err
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRow(file *excelize.File, row int, values []any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}
