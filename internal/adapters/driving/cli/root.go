// Package cli provides the cobra command tree for regdesk.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
	"github.com/custodia-labs/regdesk/internal/logger"
)

// version is set by Execute from the build.
var version = "dev"

// Persistent flag values.
var (
	verbose   bool
	configDir string
	dataDir   string
)

// Services injected by the wiring before a command runs.
var (
	settingsService      driving.SettingsService
	pipelineOrchestrator driving.PipelineOrchestrator
	conversationService  driving.ConversationService
	toolRegistry         driving.ToolRegistry
	scheduler            driving.Scheduler

	// agentErr explains why conversationService is nil.
	agentErr error

	// appConfig is the resolved configuration.
	appConfig = defaultConfig()

	// wiring builds services; nil leaves the injected globals untouched.
	wiring *Wiring

	// cleanup releases what wiring opened.
	cleanup func() error
)

// annotationSkipServices marks commands that need at most the settings service.
const annotationSkipServices = "regdesk/skip-services"

// Services is the set of application services a command may use.
type Services struct {
	Pipeline     driving.PipelineOrchestrator
	Conversation driving.ConversationService
	Tools        driving.ToolRegistry
	Scheduler    driving.Scheduler

	// AgentErr is set instead of Conversation when no inference provider
	// could be created.
	AgentErr error
}

// Wiring builds services from configuration. It runs once per invocation,
// after flags are parsed.
type Wiring struct {
	// Settings opens the configuration in configDir ("" for the default).
	Settings func(configDir string) (driving.SettingsService, error)

	// Services opens storage and builds the services for cfg. The returned
	// function releases them.
	Services func(cfg *domain.Config) (*Services, func() error, error)
}

var rootCmd = &cobra.Command{
	Use:   "regdesk",
	Short: "Ask questions about Federal Register documents",
	Long: `regdesk keeps a local copy of Federal Register documents and answers
natural-language questions about them.

Documents are ingested incrementally with "regdesk sync" or on a schedule
with "regdesk serve". Questions are answered with "regdesk ask" or in an
interactive "regdesk chat" session.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return release()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.regdesk)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.regdesk/data)")
}

// Execute runs the root command with the given build version and wiring.
func Execute(buildVersion string, w *Wiring) error {
	if buildVersion != "" {
		version = buildVersion
	}
	wiring = w

	// PersistentPostRunE is skipped when a command fails.
	err := rootCmd.Execute()
	if cerr := release(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func release() error {
	if cleanup == nil {
		return nil
	}
	err := cleanup()
	cleanup = nil
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if wiring == nil {
		return nil
	}

	settings, err := wiring.Settings(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settingsService = settings
	if cmd.Annotations[annotationSkipServices] != "" {
		return nil
	}

	cfg, err := settings.Get()
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	appConfig = cfg

	svc, release, err := wiring.Services(cfg)
	if err != nil {
		return err
	}
	cleanup = release
	pipelineOrchestrator = svc.Pipeline
	conversationService = svc.Conversation
	toolRegistry = svc.Tools
	scheduler = svc.Scheduler
	agentErr = svc.AgentErr
	return nil
}

func defaultConfig() *domain.Config {
	cfg := domain.DefaultConfig()
	return &cfg
}

// requireConversation returns the conversation service or the reason it is missing.
func requireConversation() (driving.ConversationService, error) {
	if conversationService != nil {
		return conversationService, nil
	}
	if agentErr != nil {
		return nil, fmt.Errorf("agent unavailable: %w", agentErr)
	}
	return nil, errors.New("conversation service not configured")
}
