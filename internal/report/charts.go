package report

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"rank-drop-alerts/internal/storage"
)

// WriteCharts renders one position-over-time PNG per SKU into dir. The
// directory is cleared first so stale charts from retired SKUs disappear.
// The position axis is inverted: rank 1 plots at the top.
func WriteCharts(dir string, export Export) ([]string, error) {
	if err := resetDir(dir); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(export.SKUs))
	for _, sku := range export.SKUs {
		series := export.Series[sku]
		if len(series) == 0 {
			continue
		}

		path := filepath.Join(dir, sku+".png")
		if err := writeSeriesPNG(path, sku, series); err != nil {
			return nil, fmt.Errorf("chart for %s: %w", sku, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeSeriesPNG(path, sku string, series []storage.Observation) error {
	x := make([]time.Time, len(series))
	y := make([]float64, len(series))

	minPos := series[0].Position
	maxPos := series[0].Position
	for i, obs := range series {
		x[i] = obs.ObservedAt
		y[i] = float64(obs.Position)
		if obs.Position < minPos {
			minPos = obs.Position
		}
		if obs.Position > maxPos {
			maxPos = obs.Position
		}
	}
	if minPos == maxPos {
		// degenerate ranges break axis rendering
		maxPos = minPos + 1
	}

	graph := chart.Chart{
		Title:  "Positions for " + sku,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Position",
			Range: &chart.ContinuousRange{
				Min:        float64(minPos),
				Max:        float64(maxPos),
				Descending: true,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    sku,
				XValues: x,
				YValues: y,
			},
		},
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

// ZipCharts bundles the rendered chart files into one archive.
func ZipCharts(zipPath string, chartPaths []string) error {
	file, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer file.Close()

	archive := zip.NewWriter(file)
	for _, path := range chartPaths {
		if err := addToZip(archive, path); err != nil {
			archive.Close()
			return fmt.Errorf("archive %s: %w", path, err)
		}
	}
	return archive.Close()
}

func addToZip(archive *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := archive.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
