package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/stagetrack/internal/config"
	"github.com/lucasnoah/stagetrack/internal/pipeline"
)

// trackerSummary is one row of `stagetrack status`.
type trackerSummary struct {
	PipelineID string         `json:"pipeline_id"`
	Stages     int            `json:"stages"`
	Current    string         `json:"current,omitempty"`
	Counts     map[string]int `json:"counts"`
}

func summarize(t *pipeline.Tracker) trackerSummary {
	s := trackerSummary{PipelineID: t.ID(), Stages: t.Len(), Counts: make(map[string]int)}
	for _, st := range t.Stages() {
		s.Counts[st.Status.String()]++
	}
	if cur, ok := t.CurrentStage(); ok {
		s.Current = cur.Name
	}
	return s
}

func (s trackerSummary) currentOrDash() string {
	if s.Current == "" {
		return "-"
	}
	return s.Current
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured pipelines and their current stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		reg, err := config.Seed(cfg)
		if err != nil {
			return err
		}

		summaries := make([]trackerSummary, 0, reg.Len())
		for _, t := range reg.Trackers() {
			summaries = append(summaries, summarize(t))
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			data, _ := json.MarshalIndent(summaries, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No pipelines configured.")
			return nil
		}

		rows := make([]table.Row, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, table.Row{
				s.PipelineID,
				s.Stages,
				s.currentOrDash(),
				s.Counts[pipeline.StatusCompleted.String()],
				s.Counts[pipeline.StatusFailed.String()],
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			table.Row{"Pipeline", "Stages", "Current", "Completed", "Failed"},
			rows, 2, 4, 5,
		))
		return nil
	},
}

func init() {
	statusCmd.Flags().String("format", "text", "Output format: text or json")
}
