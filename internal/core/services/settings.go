package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir           = "data_dir"
	keyFetchBaseURL      = "fetch.base_url"
	keyFetchPageSize     = "fetch.page_size"
	keyFetchPageTimeout  = "fetch.page_timeout"
	keyFetchMaxRetries   = "fetch.max_retries"
	keyFetchRetryBase    = "fetch.retry_base_delay"
	keyFetchRetryMax     = "fetch.retry_max_delay"
	keyFetchRPS          = "fetch.requests_per_second"
	keyFetchFullText     = "fetch.full_text"
	keyLookbackDays      = "pipeline.lookback_days"
	keyScheduleInterval  = "pipeline.schedule_interval"
	keyToolsMaxRows      = "tools.max_rows"
	keyToolsMaxBytes     = "tools.max_result_bytes"
	keyAgentProvider     = "agent.provider"
	keyAgentModel        = "agent.model"
	keyAgentBaseURL      = "agent.base_url"
	keyAgentAPIKey       = "agent.api_key"
	keyAgentMaxTokens    = "agent.max_tokens"
	keyAgentToolTurns    = "agent.max_tool_turns"
	keyAgentParseRetries = "agent.max_parse_retries"
	keyAgentHistory      = "agent.history_turns"
	keyAgentTurnTimeout  = "agent.turn_timeout"
)

// Environment variables holding provider API keys.
const (
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindDuration
	kindBool
)

// settingKeys lists every key with its value kind, in display order.
var settingKeys = []struct {
	key  string
	kind valueKind
}{
	{keyDataDir, kindString},
	{keyFetchBaseURL, kindString},
	{keyFetchPageSize, kindInt},
	{keyFetchPageTimeout, kindDuration},
	{keyFetchMaxRetries, kindInt},
	{keyFetchRetryBase, kindDuration},
	{keyFetchRetryMax, kindDuration},
	{keyFetchRPS, kindFloat},
	{keyFetchFullText, kindBool},
	{keyLookbackDays, kindInt},
	{keyScheduleInterval, kindDuration},
	{keyToolsMaxRows, kindInt},
	{keyToolsMaxBytes, kindInt},
	{keyAgentProvider, kindString},
	{keyAgentModel, kindString},
	{keyAgentBaseURL, kindString},
	{keyAgentAPIKey, kindString},
	{keyAgentMaxTokens, kindInt},
	{keyAgentToolTurns, kindInt},
	{keyAgentParseRetries, kindInt},
	{keyAgentHistory, kindInt},
	{keyAgentTurnTimeout, kindDuration},
}

// SettingsService resolves configuration from a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get resolves the effective configuration.
func (s *SettingsService) Get() (*domain.Config, error) {
	cfg := domain.DefaultConfig()

	cfg.DataDir = s.getString(keyDataDir, cfg.DataDir)

	cfg.Fetch.BaseURL = s.getString(keyFetchBaseURL, cfg.Fetch.BaseURL)
	cfg.Fetch.PageSize = s.getInt(keyFetchPageSize, cfg.Fetch.PageSize)
	cfg.Fetch.PageTimeout = s.getDuration(keyFetchPageTimeout, cfg.Fetch.PageTimeout)
	cfg.Fetch.MaxRetries = s.getInt(keyFetchMaxRetries, cfg.Fetch.MaxRetries)
	cfg.Fetch.RetryBaseDelay = s.getDuration(keyFetchRetryBase, cfg.Fetch.RetryBaseDelay)
	cfg.Fetch.RetryMaxDelay = s.getDuration(keyFetchRetryMax, cfg.Fetch.RetryMaxDelay)
	cfg.Fetch.RequestsPerSecond = s.getFloat(keyFetchRPS, cfg.Fetch.RequestsPerSecond)
	cfg.Fetch.FullText = s.getBool(keyFetchFullText, cfg.Fetch.FullText)

	cfg.Pipeline.LookbackDays = s.getInt(keyLookbackDays, cfg.Pipeline.LookbackDays)
	cfg.Pipeline.ScheduleInterval = s.getDuration(keyScheduleInterval, cfg.Pipeline.ScheduleInterval)

	cfg.Tools.MaxRows = s.getInt(keyToolsMaxRows, cfg.Tools.MaxRows)
	cfg.Tools.MaxResultBytes = s.getInt(keyToolsMaxBytes, cfg.Tools.MaxResultBytes)

	cfg.Agent.Provider = s.getString(keyAgentProvider, cfg.Agent.Provider)
	cfg.Agent.Model = s.getString(keyAgentModel, cfg.Agent.Model)
	cfg.Agent.BaseURL = s.getString(keyAgentBaseURL, cfg.Agent.BaseURL)
	cfg.Agent.APIKey = s.apiKey(cfg.Agent.Provider)
	cfg.Agent.MaxTokens = s.getInt(keyAgentMaxTokens, cfg.Agent.MaxTokens)
	cfg.Agent.MaxToolTurns = s.getInt(keyAgentToolTurns, cfg.Agent.MaxToolTurns)
	cfg.Agent.MaxParseRetries = s.getInt(keyAgentParseRetries, cfg.Agent.MaxParseRetries)
	cfg.Agent.HistoryTurns = s.getInt(keyAgentHistory, cfg.Agent.HistoryTurns)
	cfg.Agent.TurnTimeout = s.getDuration(keyAgentTurnTimeout, cfg.Agent.TurnTimeout)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", s.configStore.Path(), err)
	}
	return &cfg, nil
}

// Set parses value according to the key's kind and persists it.
func (s *SettingsService) Set(key, value string) error {
	for _, k := range settingKeys {
		if k.key != key {
			continue
		}
		parsed, err := parseSetting(k.kind, value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		return s.configStore.Set(key, parsed)
	}
	return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
}

// Keys lists the configurable keys.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		keys[i] = k.key
	}
	return keys
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func parseSetting(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, err
		}
		return value, nil
	case kindBool:
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}

// apiKey prefers the provider's environment variable over the config file.
// Ollama reads only the config file.
func (s *SettingsService) apiKey(provider string) string {
	env := ""
	switch provider {
	case domain.ProviderAnthropic:
		env = EnvAnthropicAPIKey
	case domain.ProviderOpenAI:
		env = EnvOpenAIAPIKey
	}
	if env != "" {
		if key := s.getenv(env); key != "" {
			return key
		}
	}
	return s.configStore.GetString(keyAgentAPIKey)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val == 0 {
		return defaultVal
	}
	return val
}
