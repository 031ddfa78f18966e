package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest new Federal Register documents",
	Long: `Runs one ingestion pass against the Federal Register API.

By default the run is incremental: it fetches documents published since the
last committed watermark (or the lookback window on first run) through today.
With --full-refresh the stored documents are replaced by a reload of the
lookback window and the watermark is reset.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("full-refresh", false, "purge and reload the lookback window")
	syncCmd.Flags().String("since", "", "first publication date to fetch (YYYY-MM-DD)")
	syncCmd.Flags().String("until", "", "last publication date to fetch (YYYY-MM-DD)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if pipelineOrchestrator == nil {
		return errors.New("pipeline not configured")
	}

	opts, err := syncOptions(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Mode == domain.RunModeFullRefresh {
		cmd.Println("Running full refresh...")
	} else {
		cmd.Println("Running incremental sync...")
	}

	report, err := pipelineOrchestrator.Run(ctx, opts)
	if errors.Is(err, domain.ErrPipelineRunning) {
		return errors.New("another sync is already running")
	}
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func syncOptions(cmd *cobra.Command) (domain.RunOptions, error) {
	var opts domain.RunOptions

	fullRefresh, err := cmd.Flags().GetBool("full-refresh")
	if err != nil {
		return opts, err
	}
	opts.Mode = domain.RunModeIncremental
	if fullRefresh {
		opts.Mode = domain.RunModeFullRefresh
	}

	for _, f := range []struct {
		name string
		dst  *time.Time
	}{
		{"since", &opts.Since},
		{"until", &opts.Until},
	} {
		raw, err := cmd.Flags().GetString(f.name)
		if err != nil {
			return opts, err
		}
		if raw == "" {
			continue
		}
		d, err := domain.ParseDate(raw)
		if err != nil {
			return opts, fmt.Errorf("--%s: %w", f.name, err)
		}
		*f.dst = d
	}

	if !opts.Since.IsZero() && !opts.Until.IsZero() && opts.Since.After(opts.Until) {
		return opts, fmt.Errorf("%w: --since is after --until", domain.ErrInvalidInput)
	}
	return opts, nil
}

func printReport(cmd *cobra.Command, r *domain.RunReport) {
	cmd.Printf("Run %s (%s)\n", r.ID, r.Mode)
	if !r.Since.IsZero() {
		cmd.Printf("  Range:     %s .. %s\n", domain.FormatDate(r.Since), domain.FormatDate(r.Until))
	}
	cmd.Printf("  State:     %s\n", r.State)
	cmd.Printf("  Fetched:   %d records in %d pages\n", r.Fetched, r.Pages)
	cmd.Printf("  Inserted:  %d\n", r.Upsert.Inserted)
	cmd.Printf("  Updated:   %d\n", r.Upsert.Updated)
	cmd.Printf("  Unchanged: %d\n", r.Upsert.Unchanged)
	if n := len(r.ValidationErrors); n > 0 {
		cmd.Printf("  Rejected:  %d\n", n)
		for i := range r.ValidationErrors {
			cmd.Printf("    - %s\n", r.ValidationErrors[i].Error())
		}
	}
	if !r.CommittedWatermark.IsZero() {
		cmd.Printf("  Watermark: %s\n", domain.FormatDate(r.CommittedWatermark))
	}
	if r.Error != "" {
		cmd.Printf("  Error:     %s (in %s)\n", r.Error, r.FailedState)
	}
}

// commandContext returns the command's context, or Background when run
// outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
