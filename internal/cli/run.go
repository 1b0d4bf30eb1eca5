package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/stagetrack/internal/pipeline"
	"github.com/lucasnoah/stagetrack/internal/scenario"
)

type runOutput struct {
	Results  []scenario.Result          `json:"results"`
	Registry []pipeline.TrackerSnapshot `json:"registry"`
}

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Replay a scenario script of tracker and registry operations",
	Long: `Replay a YAML or TOML scenario against an empty registry and print what each
step did, followed by the final registry contents.

Steps: create_tracker, add_stage, update_stage, current_stage, register, update_tracker.
A current_stage step with "expect" fails the run when the result differs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		script, err := scenario.LoadScript(args[0])
		if err != nil {
			return err
		}

		out, runErr := scenario.NewRunner(logger, nil).Run(cmd.Context(), script)
		if out == nil {
			return runErr
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			data, _ := json.MarshalIndent(runOutput{Results: out.Results, Registry: out.Registry.Snapshot()}, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return runErr
		}

		w := cmd.OutOrStdout()
		rows := make([]table.Row, 0, len(out.Results))
		for _, r := range out.Results {
			rows = append(rows, table.Row{r.Step, r.Op, r.Tracker, r.Detail})
		}
		fmt.Fprintln(w, renderTable(table.Row{"Step", "Op", "Tracker", "Result"}, rows, 1))

		if out.Registry.Len() == 0 {
			fmt.Fprintln(w, "Registry is empty.")
			return runErr
		}
		regRows := make([]table.Row, 0, out.Registry.Len())
		for _, t := range out.Registry.Trackers() {
			s := summarize(t)
			regRows = append(regRows, table.Row{s.PipelineID, s.Stages, s.currentOrDash()})
		}
		fmt.Fprintln(w, renderTable(table.Row{"Pipeline", "Stages", "Current"}, regRows, 2))
		return runErr
	},
}

func init() {
	runCmd.Flags().String("format", "text", "Output format: text or json")
}
