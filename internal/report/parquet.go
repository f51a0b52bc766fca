package report

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"rank-drop-alerts/internal/storage"
)

// observationRecord maps one history row onto the parquet schema. The schema
// is inferred from the struct tags.
type observationRecord struct {
	Position      int32     `parquet:"position,snappy"`
	PromoPosition int32     `parquet:"promo_position,snappy"`
	ObservedAt    time.Time `parquet:"observed_at,snappy"`
	Phrase        string    `parquet:"phrase,snappy"`
	SKU           string    `parquet:"sku,snappy"`
}

// WriteParquet writes the tabular snapshot as a Parquet file.
func WriteParquet(path string, rows []storage.Observation) error {
	records := make([]observationRecord, len(rows))
	for i, obs := range rows {
		records[i] = observationRecord{
			Position:      int32(obs.Position),
			PromoPosition: int32(obs.PromoPosition),
			ObservedAt:    obs.ObservedAt,
			Phrase:        obs.Phrase,
			SKU:           obs.SKU,
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[observationRecord](file)
	if _, err := writer.Write(records); err != nil {
		writer.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return writer.Close()
}
