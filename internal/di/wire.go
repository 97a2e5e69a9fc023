//go:build wireinject
// +build wireinject

package di

import (
	"FinCorr/pkg/config"
	"FinCorr/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	// Observability
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,

	// Infrastructure
	ProvideStore,
	ProvideKafkaProducer,
	ProvidePublisher,
	ProvideHistoryProvider,
	ProvideQuoteProvider,

	// Use cases
	ProvideResolver,
	ProvideUpdater,
	ProvideEngine,
	ProvideSnapshotIngestor,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		coreSet,
		ProvideAPIMetrics,
		ProvideRunner,
		ProvideCache,
		ProvideHandler,
		ProvideHTTPServer,
		ProvideScheduler,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeToolkit wires the use cases for one-shot CLI commands.
func InitializeToolkit(cfg *config.Config) (*Toolkit, error) {
	wire.Build(
		coreSet,
		ProvideExporter,
		wire.Struct(new(Toolkit), "*"),
	)
	return &Toolkit{}, nil
}
