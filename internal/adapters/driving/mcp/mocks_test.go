package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
	"github.com/custodia-labs/regdesk/internal/core/services"
)

// mockPipeline is a mock implementation of driving.PipelineOrchestrator.
type mockPipeline struct {
	status *driving.PipelineStatus
	err    error
}

func (m *mockPipeline) Run(_ context.Context, _ domain.RunOptions) (*domain.RunReport, error) {
	return nil, m.err
}

func (m *mockPipeline) Status(_ context.Context) (*driving.PipelineStatus, error) {
	return m.status, m.err
}

func (m *mockPipeline) History(_ context.Context, _ int) ([]domain.RunReport, error) {
	return nil, m.err
}

// failingRegistry returns a fixed error from every call.
type failingRegistry struct {
	*services.ToolRegistry
	err error
}

func (f *failingRegistry) Call(_ context.Context, _ domain.ToolCall) (*domain.ToolResult, error) {
	return nil, f.err
}

func newTestRegistry(t *testing.T) *services.ToolRegistry {
	t.Helper()

	store := memory.NewDocumentStore()
	published, err := domain.ParseDate("2025-02-20")
	require.NoError(t, err)
	require.NoError(t, store.InsertDocument(context.Background(), &domain.Document{
		ID:              "2025-03001",
		Title:           "Protecting the Meaning and Value of American Citizenship",
		Type:            domain.DocumentTypeExecutiveOrder,
		PublicationDate: published,
		Abstract:        "Executive order on citizenship.",
		SourceURL:       "https://www.federalregister.gov/d/2025-03001",
		Agencies:        []domain.Agency{{ID: "executive office of the president", Name: "Executive Office of the President"}},
	}))

	registry := services.NewToolRegistry()
	require.NoError(t, services.RegisterDocumentTools(registry, store, domain.DefaultConfig().Tools))
	return registry
}
