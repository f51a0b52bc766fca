package cli

import (
	"github.com/spf13/cobra"

	"rank-drop-alerts/internal/app"
)

var (
	exportXLSXPath    string
	exportCSVPath     string
	exportParquetPath string
	exportChartsDir   string
	exportArchivePath string
	exportSend        bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history log as spreadsheet, CSV, Parquet, and charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			WorkbookPath: exportXLSXPath,
			CSVPath:      exportCSVPath,
			ParquetPath:  exportParquetPath,
			ChartsDir:    exportChartsDir,
			ArchivePath:  exportArchivePath,
			Send:         exportSend,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportXLSXPath, "xlsx", "", "Path to write the spreadsheet")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportParquetPath, "parquet", "", "Path to write Parquet data")
	exportCmd.Flags().StringVar(&exportChartsDir, "charts", "", "Directory to render per-SKU charts into")
	exportCmd.Flags().StringVar(&exportArchivePath, "zip", "", "Path to write the chart archive (requires --charts)")
	exportCmd.Flags().BoolVar(&exportSend, "send", false, "Deliver generated artifacts over the messaging channel")
}
