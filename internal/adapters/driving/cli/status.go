package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ingestion status",
	RunE:  runStatus,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent ingestion runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if pipelineOrchestrator == nil {
		return errors.New("pipeline not configured")
	}

	status, err := pipelineOrchestrator.Status(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Printf("Documents: %d\n", status.Documents)
	if status.Watermark.IsZero() {
		cmd.Println("Watermark: (none, next sync loads the lookback window)")
	} else {
		cmd.Printf("Watermark: %s\n", domain.FormatDate(status.Watermark.LastProcessedDate))
	}
	if status.Running && status.Run != nil {
		cmd.Printf("Running:   %s (%s, %s since %s)\n",
			status.Run.ID, status.Run.Mode, status.Run.State, status.Run.StartedAt.Format(time.RFC3339))
	} else {
		cmd.Println("Running:   no")
	}
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if pipelineOrchestrator == nil {
		return errors.New("pipeline not configured")
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	runs, err := pipelineOrchestrator.History(commandContext(cmd), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for i := range runs {
		r := &runs[i]
		cmd.Printf("%s  %-12s %-8s fetched=%d inserted=%d updated=%d unchanged=%d rejected=%d",
			r.StartedAt.Format(time.RFC3339), r.Mode, r.State, r.Fetched,
			r.Upsert.Inserted, r.Upsert.Updated, r.Upsert.Unchanged, len(r.ValidationErrors))
		if r.Error != "" {
			cmd.Printf(" error=%q", r.Error)
		}
		cmd.Println()
	}
	return nil
}
