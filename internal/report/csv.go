package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"rank-drop-alerts/internal/storage"
)

// WriteCSV dumps the tabular snapshot as CSV with the same columns as the
// workbook artifact.
func WriteCSV(path string, rows []storage.Observation) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"position", "promo_position", "time", "phrase", "sku"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, obs := range rows {
		record := []string{
			strconv.Itoa(obs.Position),
			strconv.Itoa(obs.PromoPosition),
			obs.ObservedAt.Format(storage.TimeLayout),
			obs.Phrase,
			obs.SKU,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}
