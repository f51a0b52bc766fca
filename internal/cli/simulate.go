package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rank-drop-alerts/internal/app"
)

var (
	simulateSKU      string
	simulatePhrase   string
	simulatePrevious int
	simulateCurrent  int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Push a synthetic position drop through the alert pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateSKU == "" {
			return fmt.Errorf("--sku is required")
		}
		if simulatePrevious <= 0 || simulateCurrent <= 0 {
			return fmt.Errorf("--previous and --current must be positive positions")
		}

		opts := app.SimulateOptions{
			SKU:      simulateSKU,
			Phrase:   simulatePhrase,
			Previous: simulatePrevious,
			Current:  simulateCurrent,
		}
		return getApp().SimulateAlert(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSKU, "sku", "", "SKU to simulate")
	simulateCmd.Flags().StringVar(&simulatePhrase, "phrase", "test", "Search phrase label for the synthetic observations")
	simulateCmd.Flags().IntVar(&simulatePrevious, "previous", 5, "Previous organic position")
	simulateCmd.Flags().IntVar(&simulateCurrent, "current", 40, "Current organic position")
}
