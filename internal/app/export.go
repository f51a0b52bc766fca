package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"rank-drop-alerts/internal/notify"
	"rank-drop-alerts/internal/report"
	"rank-drop-alerts/internal/storage"
)

// Export regenerates report artifacts from the full history log. At least
// one output must be requested.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.WorkbookPath == "" && opts.CSVPath == "" && opts.ParquetPath == "" && opts.ChartsDir == "" {
		return errors.New("at least one of --xlsx, --csv, --parquet or --charts must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	log, found, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if !found || len(log) == 0 {
		a.Logger.Info().Msg("no history to export")
		return nil
	}

	export := report.BuildExport(log)
	a.Logger.Info().Int("rows", len(export.Rows)).Int("skus", len(export.SKUs)).Msg("exporting history")

	var files []string
	if opts.WorkbookPath != "" {
		if err := ensureDir(opts.WorkbookPath); err != nil {
			return err
		}
		if err := report.WriteWorkbook(opts.WorkbookPath, export.Rows); err != nil {
			return err
		}
		files = append(files, opts.WorkbookPath)
	}
	if opts.CSVPath != "" {
		if err := ensureDir(opts.CSVPath); err != nil {
			return err
		}
		if err := report.WriteCSV(opts.CSVPath, export.Rows); err != nil {
			return err
		}
		files = append(files, opts.CSVPath)
	}
	if opts.ParquetPath != "" {
		if err := ensureDir(opts.ParquetPath); err != nil {
			return err
		}
		if err := report.WriteParquet(opts.ParquetPath, export.Rows); err != nil {
			return err
		}
		files = append(files, opts.ParquetPath)
	}
	if opts.ChartsDir != "" {
		charts, err := report.WriteCharts(opts.ChartsDir, export)
		if err != nil {
			return err
		}
		if opts.ArchivePath != "" && len(charts) > 0 {
			if err := ensureDir(opts.ArchivePath); err != nil {
				return err
			}
			if err := report.ZipCharts(opts.ArchivePath, charts); err != nil {
				return err
			}
			files = append(files, opts.ArchivePath)
		}
	}

	if opts.Send {
		notifier := a.newNotifier()
		if notifier == nil {
			return errors.New("telegram not configured; cannot send report")
		}
		return a.deliverFiles(ctx, notifier, files)
	}

	return nil
}

// runReport is the weekly job body: full artifact regeneration plus delivery
// when a messaging channel exists.
func (a *App) runReport(ctx context.Context, store storage.HistoryStore, notifier notify.Notifier) error {
	log, found, err := store.Load(ctx)
	if err != nil {
		if notifier != nil {
			if sendErr := notifier.SendText(ctx, "History log failure: "+err.Error()); sendErr != nil {
				a.Logger.Error().Err(sendErr).Msg("failure notification undelivered")
			}
		}
		return fmt.Errorf("load history for report: %w", err)
	}
	if !found || len(log) == 0 {
		a.Logger.Info().Msg("no history yet; skipping report")
		return nil
	}

	export := report.BuildExport(log)

	if err := ensureDir(a.Config.Export.WorkbookFile); err != nil {
		return err
	}
	if err := report.WriteWorkbook(a.Config.Export.WorkbookFile, export.Rows); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	charts, err := report.WriteCharts(a.Config.Export.GraphDir, export)
	if err != nil {
		return fmt.Errorf("render charts: %w", err)
	}

	files := []string{a.Config.Export.WorkbookFile}
	if len(charts) > 0 {
		if err := report.ZipCharts(a.Config.Export.ArchiveFile, charts); err != nil {
			return fmt.Errorf("archive charts: %w", err)
		}
		files = append(files, a.Config.Export.ArchiveFile)
	}

	a.Logger.Info().Int("rows", len(export.Rows)).Int("charts", len(charts)).Msg("report artifacts written")

	if notifier == nil {
		return nil
	}
	return a.deliverFiles(ctx, notifier, files)
}

// deliverFiles sends each artifact; a failed file is logged and the rest
// are still attempted.
func (a *App) deliverFiles(ctx context.Context, notifier notify.Notifier, files []string) error {
	for _, file := range files {
		caption := filepath.Base(file)
		if err := notifier.SendFile(ctx, file, caption); err != nil {
			a.Logger.Error().Err(err).Str("file", file).Msg("artifact delivery failed")
		}
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
