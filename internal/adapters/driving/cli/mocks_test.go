package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
)

// mockPipeline implements driving.PipelineOrchestrator for testing.
type mockPipeline struct {
	report  *domain.RunReport
	err     error
	status  *driving.PipelineStatus
	history []domain.RunReport
	lastRun domain.RunOptions
	limit   int
}

func (m *mockPipeline) Run(_ context.Context, opts domain.RunOptions) (*domain.RunReport, error) {
	m.lastRun = opts
	return m.report, m.err
}

func (m *mockPipeline) Status(_ context.Context) (*driving.PipelineStatus, error) {
	return m.status, m.err
}

func (m *mockPipeline) History(_ context.Context, limit int) ([]domain.RunReport, error) {
	m.limit = limit
	return m.history, m.err
}

// mockConversation implements driving.ConversationService for testing.
type mockConversation struct {
	sessions int
	answer   func(utterance string) (*domain.Reply, error)
	received []string
}

func (m *mockConversation) NewSession() driving.Session {
	m.sessions++
	return &mockSession{parent: m}
}

type mockSession struct {
	parent *mockConversation
}

func (s *mockSession) ID() string { return "session-1" }

func (s *mockSession) Submit(_ context.Context, utterance string) (*domain.Reply, error) {
	s.parent.received = append(s.parent.received, utterance)
	if s.parent.answer != nil {
		return s.parent.answer(utterance)
	}
	return &domain.Reply{Text: "answer: " + utterance}, nil
}

// mockSettings implements driving.SettingsService for testing.
type mockSettings struct {
	cfg    domain.Config
	values map[string]string
	err    error
}

func newMockSettings() *mockSettings {
	return &mockSettings{cfg: domain.DefaultConfig(), values: map[string]string{}}
}

func (m *mockSettings) Get() (*domain.Config, error) {
	if m.err != nil {
		return nil, m.err
	}
	cfg := m.cfg
	return &cfg, nil
}

func (m *mockSettings) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *mockSettings) Keys() []string { return []string{"data_dir", "agent.provider"} }

func (m *mockSettings) Path() string { return "/tmp/regdesk/config.toml" }

// setupServices swaps the injected services and restores them on cleanup.
func setupServices(t *testing.T) {
	t.Helper()

	oldPipeline := pipelineOrchestrator
	oldConversation := conversationService
	oldTools := toolRegistry
	oldScheduler := scheduler
	oldSettings := settingsService
	oldAgentErr := agentErr
	oldConfig := appConfig
	oldWiring := wiring

	pipelineOrchestrator = nil
	conversationService = nil
	toolRegistry = nil
	scheduler = nil
	settingsService = nil
	agentErr = nil
	appConfig = defaultConfig()
	wiring = nil

	t.Cleanup(func() {
		pipelineOrchestrator = oldPipeline
		conversationService = oldConversation
		toolRegistry = oldTools
		scheduler = oldScheduler
		settingsService = oldSettings
		agentErr = oldAgentErr
		appConfig = oldConfig
		wiring = oldWiring
	})
}

// execute runs the root command with fresh flag values and returns its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
