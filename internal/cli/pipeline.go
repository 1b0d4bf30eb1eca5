package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/stagetrack/internal/config"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Inspect configured pipelines",
}

var pipelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured pipeline IDs in registry order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		reg, err := config.Seed(cfg)
		if err != nil {
			return err
		}
		if reg.Len() == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No pipelines configured.")
			return nil
		}
		for _, t := range reg.Trackers() {
			fmt.Fprintln(cmd.OutOrStdout(), t.ID())
		}
		return nil
	},
}

var pipelineShowCmd = &cobra.Command{
	Use:   "show <pipeline-id>",
	Short: "Show the stages of a configured pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		reg, err := config.Seed(cfg)
		if err != nil {
			return err
		}
		t, err := reg.Get(args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			data, _ := json.MarshalIndent(t.Snapshot(), "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Pipeline %s\n", t.ID())
		if cur, ok := t.CurrentStage(); ok {
			fmt.Fprintf(w, "  Current Stage: %s\n", cur.Name)
		} else {
			fmt.Fprintln(w, "  Current Stage: none")
		}
		if t.Len() == 0 {
			return nil
		}

		rows := make([]table.Row, 0, t.Len())
		for _, s := range t.Stages() {
			rows = append(rows, table.Row{s.Name, s.Status, s.ID})
		}
		fmt.Fprintln(w, renderTable(table.Row{"Stage", "Status", "ID"}, rows))
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineListCmd)
	pipelineCmd.AddCommand(pipelineShowCmd)

	pipelineShowCmd.Flags().String("format", "text", "Output format: text or json")
}
