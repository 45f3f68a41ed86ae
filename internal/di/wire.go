//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"MarketTiming/internal/domain/repository"
	internalrepo "MarketTiming/internal/repository"
	"MarketTiming/pkg/config"
	"MarketTiming/pkg/server"
)

var pipelineSet = wire.NewSet(
	// Metrics
	ProvideRegistry,
	ProvideMetrics,

	// Infrastructure clients
	ProvideLogger,
	ProvideCacheStore,
	ProvideClickHouseClient,
	ProvideKafkaProducer,

	// Repositories
	ProvideSource,
	wire.Bind(new(repository.Source), new(*internalrepo.CachedSource)),
	ProvideSnapshotPublisher,

	// Domain services and use cases
	ProvideSignalEngine,
	ProvidePipeline,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		pipelineSet,
		ProvideRefresher,

		// Delivery
		ProvideHub,
		ProvideMarketHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeRunner wires the pipeline for a single run from the command line.
func InitializeRunner(cfg *config.Config) (*Runner, func(), error) {
	wire.Build(
		pipelineSet,
		ProvideRunner,
	)
	return nil, nil, nil
}
