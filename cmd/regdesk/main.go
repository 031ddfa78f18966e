// Command regdesk ingests Federal Register documents and answers questions
// about them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/regdesk/internal/adapters/driven/ai"
	"github.com/custodia-labs/regdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/regdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/regdesk/internal/adapters/driving/cli"
	"github.com/custodia-labs/regdesk/internal/connectors/federalregister"
	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
	"github.com/custodia-labs/regdesk/internal/core/services"
	"github.com/custodia-labs/regdesk/internal/logger"
	frnormaliser "github.com/custodia-labs/regdesk/internal/normalisers/federalregister"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(version, &cli.Wiring{
		Settings: openSettings,
		Services: buildServices,
	}); err != nil {
		os.Exit(1)
	}
}

func openSettings(configDir string) (driving.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store), nil
}

func buildServices(cfg *domain.Config) (*cli.Services, func() error, error) {
	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("Using database %s", store.Path())

	fetcher, err := federalregister.New(cfg.Fetch, nil)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	pipeline := services.NewPipelineOrchestrator(
		fetcher,
		frnormaliser.New(),
		store.DocumentStore(),
		store.WatermarkStore(),
		store.RunHistoryStore(),
		cfg.Pipeline,
	)
	pipeline.SetRunLock(store.RunLock(), 0)

	tools := services.NewToolRegistry()
	if err := services.RegisterDocumentTools(tools, store.DocumentStore(), cfg.Tools); err != nil {
		store.Close()
		return nil, nil, err
	}

	svc := &cli.Services{
		Pipeline:  pipeline,
		Tools:     tools,
		Scheduler: services.NewScheduler(cfg.Pipeline.ScheduleInterval, store.SchedulerStore(), pipeline),
	}

	// Ingestion and the MCP server work without an inference provider.
	provider, err := ai.NewInferenceProvider(cfg.Agent)
	if err != nil {
		logger.Debug("Inference provider unavailable: %v", err)
		svc.AgentErr = err
	} else {
		svc.Conversation = services.NewConversationService(provider, tools, cfg.Agent, cfg.Tools)
	}

	release := func() error {
		var errs []error
		if provider != nil {
			errs = append(errs, provider.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}
	return svc, release, nil
}
