package report

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"rank-drop-alerts/internal/storage"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func sample(sku, phrase string, position int, hoursAfter int) storage.Observation {
	return storage.Observation{
		Position:   position,
		ObservedAt: t0.Add(time.Duration(hoursAfter) * time.Hour),
		Phrase:     phrase,
		SKU:        sku,
	}
}

func TestBuildExportRowsMirrorLogOrder(t *testing.T) {
	log := []storage.Observation{
		sample("B", "p", 2, 4),
		sample("A", "p", 1, 0),
		sample("A", "q", 3, 8),
	}

	export := BuildExport(log)

	if len(export.Rows) != len(log) {
		t.Fatalf("expected %d rows, got %d", len(log), len(export.Rows))
	}
	for i := range log {
		if export.Rows[i] != log[i] {
			t.Fatalf("row %d reordered: %+v", i, export.Rows[i])
		}
	}
	if !reflect.DeepEqual(export.SKUs, []string{"B", "A"}) {
		t.Fatalf("SKUs should follow first-seen order, got %v", export.SKUs)
	}
}

func TestBuildExportSeriesAscending(t *testing.T) {
	log := []storage.Observation{
		sample("A", "p", 9, 8),
		sample("A", "p", 1, 0),
		sample("A", "p", 4, 4),
	}

	export := BuildExport(log)

	series := export.Series["A"]
	if len(series) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		if series[i].ObservedAt.Before(series[i-1].ObservedAt) {
			t.Fatalf("series not chronological at %d: %+v", i, series)
		}
	}
	if series[0].Position != 1 || series[2].Position != 9 {
		t.Fatalf("series order wrong: %+v", series)
	}
}

func TestBuildExportIdempotent(t *testing.T) {
	log := []storage.Observation{
		sample("A", "p", 1, 0),
		sample("B", "p", 2, 4),
		sample("A", "q", 3, 8),
	}

	first := BuildExport(log)
	second := BuildExport(log)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("two exports of the same log must be identical")
	}
}

func TestBuildStatusSnapshotKeepsLatest(t *testing.T) {
	log := []storage.Observation{
		sample("A", "p", 1, 0),
		sample("A", "p", 7, 8),
		sample("A", "p", 4, 4),
	}

	snapshot := BuildStatusSnapshot(log)

	got, ok := snapshot[Key{Phrase: "p", SKU: "A"}]
	if !ok {
		t.Fatal("missing snapshot entry")
	}
	if got.Position != 7 {
		t.Fatalf("expected the latest observation (position 7), got %+v", got)
	}
	if len(snapshot) != 1 {
		t.Fatalf("expected one group, got %d", len(snapshot))
	}
}

func TestBuildStatusSnapshotGroupsByPhraseAndSKU(t *testing.T) {
	log := []storage.Observation{
		sample("A", "p", 1, 0),
		sample("A", "q", 2, 0),
		sample("B", "p", 3, 0),
	}

	snapshot := BuildStatusSnapshot(log)
	if len(snapshot) != 3 {
		t.Fatalf("expected three (phrase, sku) groups, got %d", len(snapshot))
	}
}

func TestWriteCSVRoundtripColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	rows := []storage.Observation{
		{Position: 5, PromoPosition: 2, ObservedAt: t0, Phrase: "p", SKU: "A"},
	}

	if err := WriteCSV(path, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "position,promo_position,time,phrase,sku\n5,2,2025-06-01 10:00,p,A\n"
	if string(data) != want {
		t.Fatalf("unexpected csv content:\n%s", data)
	}
}

func TestWriteChartsRendersOnePNGPerSKU(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graphs")
	log := []storage.Observation{
		sample("A", "p", 1, 0),
		sample("A", "p", 9, 4),
		sample("B", "p", 2, 0),
		sample("B", "p", 3, 4),
	}

	paths, err := WriteCharts(dir, BuildExport(log))
	if err != nil {
		t.Fatalf("write charts: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 charts, got %d", len(paths))
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("chart missing: %v", err)
		}
		if info.Size() == 0 {
			t.Fatalf("chart %s is empty", path)
		}
	}
}

func TestWriteChartsClearsStaleFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graphs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "RETIRED.png")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := []storage.Observation{
		sample("A", "p", 1, 0),
		sample("A", "p", 2, 4),
	}
	if _, err := WriteCharts(dir, BuildExport(log)); err != nil {
		t.Fatalf("write charts: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale chart should have been removed")
	}
}

func TestZipChartsBundlesAllFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.png"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	zipPath := filepath.Join(dir, "graphs.zip")
	if err := ZipCharts(zipPath, paths); err != nil {
		t.Fatalf("zip charts: %v", err)
	}

	info, err := os.Stat(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("archive is empty")
	}
}
