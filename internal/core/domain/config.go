package domain

import (
	"fmt"
	"time"
)

// Config holds application configuration.
type Config struct {
	// DataDir is where the SQLite database lives.
	DataDir string

	Fetch    FetchConfig
	Pipeline PipelineConfig
	Tools    ToolsConfig
	Agent    AgentConfig
}

// FetchConfig configures the upstream fetcher.
type FetchConfig struct {
	// BaseURL is the upstream API root.
	BaseURL string

	// PageSize is the number of records requested per page.
	PageSize int

	// PageTimeout bounds each page request, including body read.
	PageTimeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// RetryBaseDelay is the first backoff delay; it doubles per retry.
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps a single backoff delay.
	RetryMaxDelay time.Duration

	// RequestsPerSecond is the proactive request rate.
	RequestsPerSecond float64

	// FullText enables retrieval of each document body from its
	// full_text_xml_url. One extra request per document.
	FullText bool
}

// PipelineConfig configures the ingestion pipeline.
type PipelineConfig struct {
	// LookbackDays is the window used by full refresh and first runs.
	LookbackDays int

	// ScheduleInterval is the period between scheduled incremental runs.
	ScheduleInterval time.Duration
}

// Lookback returns the lookback window as a duration.
func (c PipelineConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// ToolsConfig configures the tool registry.
type ToolsConfig struct {
	// MaxRows caps the rows any tool returns.
	MaxRows int

	// MaxResultBytes caps the serialised result handed to the model.
	MaxResultBytes int
}

// AgentConfig configures the conversational agent loop.
type AgentConfig struct {
	// Provider is "anthropic", "openai" or "ollama".
	Provider string

	// Model is the provider model name; empty uses the adapter default.
	Model string

	// BaseURL overrides the provider API root.
	BaseURL string

	// APIKey authenticates with the provider.
	APIKey string

	// MaxTokens caps each model response.
	MaxTokens int

	// MaxToolTurns caps tool calls per utterance.
	MaxToolTurns int

	// MaxParseRetries caps corrective retries for unparseable responses.
	MaxParseRetries int

	// HistoryTurns is how many prior exchanges are sent with each request.
	HistoryTurns int

	// TurnTimeout bounds one utterance end to end.
	TurnTimeout time.Duration
}

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// DefaultFederalRegisterURL is the public Federal Register API root.
const DefaultFederalRegisterURL = "https://www.federalregister.gov/api/v1"

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Fetch: FetchConfig{
			BaseURL:           DefaultFederalRegisterURL,
			PageSize:          100,
			PageTimeout:       30 * time.Second,
			MaxRetries:        4,
			RetryBaseDelay:    time.Second,
			RetryMaxDelay:     30 * time.Second,
			RequestsPerSecond: 2,
		},
		Pipeline: PipelineConfig{
			LookbackDays:     30,
			ScheduleInterval: 6 * time.Hour,
		},
		Tools: ToolsConfig{
			MaxRows:        20,
			MaxResultBytes: 16 * 1024,
		},
		Agent: AgentConfig{
			Provider:        ProviderAnthropic,
			MaxTokens:       1024,
			MaxToolTurns:    3,
			MaxParseRetries: 2,
			HistoryTurns:    6,
			TurnTimeout:     2 * time.Minute,
		},
	}
}

// Validate checks the configuration for values the services cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Fetch.BaseURL == "":
		return fmt.Errorf("%w: fetch.base_url is required", ErrInvalidInput)
	case c.Fetch.PageSize <= 0 || c.Fetch.PageSize > 1000:
		return fmt.Errorf("%w: fetch.page_size must be in 1..1000", ErrInvalidInput)
	case c.Fetch.MaxRetries < 0:
		return fmt.Errorf("%w: fetch.max_retries must not be negative", ErrInvalidInput)
	case c.Fetch.PageTimeout <= 0:
		return fmt.Errorf("%w: fetch.page_timeout must be positive", ErrInvalidInput)
	case c.Pipeline.LookbackDays <= 0:
		return fmt.Errorf("%w: pipeline.lookback_days must be positive", ErrInvalidInput)
	case c.Tools.MaxRows <= 0:
		return fmt.Errorf("%w: tools.max_rows must be positive", ErrInvalidInput)
	case c.Agent.Provider != ProviderAnthropic && c.Agent.Provider != ProviderOpenAI && c.Agent.Provider != ProviderOllama:
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.Agent.Provider)
	case c.Agent.MaxToolTurns <= 0:
		return fmt.Errorf("%w: agent.max_tool_turns must be positive", ErrInvalidInput)
	case c.Agent.MaxParseRetries < 0:
		return fmt.Errorf("%w: agent.max_parse_retries must not be negative", ErrInvalidInput)
	case c.Agent.HistoryTurns < 0:
		return fmt.Errorf("%w: agent.history_turns must not be negative", ErrInvalidInput)
	}
	return nil
}
