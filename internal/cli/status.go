package cli

import (
	"github.com/spf13/cobra"

	"rank-drop-alerts/internal/app"
)

var statusSend bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the latest known position per query and SKU",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Status(cmd.Context(), app.StatusOptions{Send: statusSend})
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusSend, "send", false, "Deliver the snapshot over the messaging channel instead of printing it")
}
