package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/regdesk/internal/adapters/driving/mcp"
	"github.com/custodia-labs/regdesk/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled ingestion in the foreground",
	Long: `Runs an incremental sync every pipeline.schedule_interval until interrupted.

With --mcp-addr the document tools are also served over MCP HTTP, so an
assistant can query the documents while they are kept up to date.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("mcp-addr", "", "also serve MCP over HTTP on this address (e.g. :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	mcpAddr, err := cmd.Flags().GetString("mcp-addr")
	if err != nil {
		return fmt.Errorf("getting mcp-addr flag: %w", err)
	}

	var server *mcp.Server
	if mcpAddr != "" {
		server, err = newMCPServer()
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Scheduling incremental sync every %s. Press Ctrl-C to stop.\n",
		appConfig.Pipeline.ScheduleInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Start(gctx)
	})
	if server != nil {
		g.Go(func() error {
			return server.RunHTTP(gctx, mcpAddr)
		})
	}

	err = g.Wait()
	logger.Info("Scheduler stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
