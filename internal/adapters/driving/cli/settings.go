package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

var settingsAnnotations = map[string]string{annotationSkipServices: "true"}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change configuration stored in config.toml.

API keys are read from ANTHROPIC_API_KEY or OPENAI_API_KEY when set,
otherwise from agent.api_key.`,
	Annotations: settingsAnnotations,
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show effective settings",
	Annotations: settingsAnnotations,
	RunE:        runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Example: `  regdesk settings set agent.provider openai
  regdesk settings set pipeline.schedule_interval 12h`,
	Args:        cobra.ExactArgs(2),
	Annotations: settingsAnnotations,
	RunE:        runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List configurable keys",
	Annotations: settingsAnnotations,
	RunE:        runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Printf("Config file: %s\n\n", settingsService.Path())

	cmd.Println("[fetch]")
	cmd.Printf("  base_url:            %s\n", cfg.Fetch.BaseURL)
	cmd.Printf("  page_size:           %d\n", cfg.Fetch.PageSize)
	cmd.Printf("  page_timeout:        %s\n", cfg.Fetch.PageTimeout)
	cmd.Printf("  max_retries:         %d\n", cfg.Fetch.MaxRetries)
	cmd.Printf("  retry_base_delay:    %s\n", cfg.Fetch.RetryBaseDelay)
	cmd.Printf("  retry_max_delay:     %s\n", cfg.Fetch.RetryMaxDelay)
	cmd.Printf("  requests_per_second: %g\n", cfg.Fetch.RequestsPerSecond)
	cmd.Println()

	cmd.Println("[pipeline]")
	cmd.Printf("  lookback_days:       %d\n", cfg.Pipeline.LookbackDays)
	cmd.Printf("  schedule_interval:   %s\n", cfg.Pipeline.ScheduleInterval)
	cmd.Println()

	cmd.Println("[tools]")
	cmd.Printf("  max_rows:            %d\n", cfg.Tools.MaxRows)
	cmd.Printf("  max_result_bytes:    %d\n", cfg.Tools.MaxResultBytes)
	cmd.Println()

	cmd.Println("[agent]")
	cmd.Printf("  provider:            %s\n", cfg.Agent.Provider)
	cmd.Printf("  model:               %s\n", valueOrDefault(cfg.Agent.Model))
	cmd.Printf("  base_url:            %s\n", valueOrDefault(cfg.Agent.BaseURL))
	cmd.Printf("  api_key:             %s\n", maskAPIKey(cfg.Agent.APIKey))
	cmd.Printf("  max_tokens:          %d\n", cfg.Agent.MaxTokens)
	cmd.Printf("  max_tool_turns:      %d\n", cfg.Agent.MaxToolTurns)
	cmd.Printf("  max_parse_retries:   %d\n", cfg.Agent.MaxParseRetries)
	cmd.Printf("  history_turns:       %d\n", cfg.Agent.HistoryTurns)
	cmd.Printf("  turn_timeout:        %s\n", cfg.Agent.TurnTimeout)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("%w (see \"regdesk settings keys\")", err)
		}
		return fmt.Errorf("failed to save setting: %w", err)
	}

	shown := value
	if strings.HasSuffix(key, "api_key") {
		shown = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func valueOrDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

// maskAPIKey masks an API key for display, showing only first and last 4 chars.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
