package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{"position", "promo_position", "time", "phrase", "sku"}

// FileStore persists the history log as a CSV file. Appends rewrite the full
// file to a temporary sibling and rename it into place, so a crash mid-write
// never loses committed history. A process-wide mutex enforces the
// single-writer discipline.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore builds a store rooted at path. The parent directory is
// created on first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the full log. A missing file means "never persisted" and is not
// an error; anything else that prevents decoding is surfaced as ErrCorrupt.
func (s *FileStore) Load(ctx context.Context) ([]Observation, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("open history log: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(records) == 0 {
		return []Observation{}, true, nil
	}

	log := make([]Observation, 0, len(records)-1)
	for i, record := range records[1:] {
		obs, err := decodeRecord(record)
		if err != nil {
			return nil, false, fmt.Errorf("%w: row %d: %v", ErrCorrupt, i+2, err)
		}
		log = append(log, obs)
	}
	return log, true, nil
}

// Append merges the batch onto the existing log and persists atomically.
func (s *FileStore) Append(ctx context.Context, batch []Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, _, err := s.Load(ctx)
	if err != nil {
		return err
	}

	return s.write(Merge(existing, batch))
}

func (s *FileStore) write(log []Observation) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp history log: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, obs := range log {
		if err := writer.Write(encodeRecord(obs)); err != nil {
			tmp.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write history log: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync history log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history log: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history log: %w", err)
	}
	return nil
}

func encodeRecord(obs Observation) []string {
	return []string{
		strconv.Itoa(obs.Position),
		strconv.Itoa(obs.PromoPosition),
		obs.ObservedAt.Format(TimeLayout),
		obs.Phrase,
		obs.SKU,
	}
}

func decodeRecord(record []string) (Observation, error) {
	if len(record) != len(csvHeader) {
		return Observation{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}

	position, err := strconv.Atoi(record[0])
	if err != nil {
		return Observation{}, fmt.Errorf("parse position: %v", err)
	}
	promo, err := strconv.Atoi(record[1])
	if err != nil {
		return Observation{}, fmt.Errorf("parse promo position: %v", err)
	}
	observedAt, err := time.Parse(TimeLayout, record[2])
	if err != nil {
		return Observation{}, fmt.Errorf("parse time: %v", err)
	}

	return Observation{
		Position:      position,
		PromoPosition: promo,
		ObservedAt:    observedAt,
		Phrase:        record[3],
		SKU:           record[4],
	}, nil
}

var _ HistoryStore = (*FileStore)(nil)
