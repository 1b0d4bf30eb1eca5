package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/stagetrack/internal/pipeline"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Stage reference commands",
}

var stageStatusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "List the accepted stage statuses",
	Run: func(cmd *cobra.Command, args []string) {
		for _, s := range pipeline.AllStatuses() {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
	},
}

func init() {
	stageCmd.AddCommand(stageStatusesCmd)
}
