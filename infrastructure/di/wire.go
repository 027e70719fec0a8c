//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"flowcanvas/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCanvasRepository,
	ProvideWorkflowSaver,
	ProvideEventPublisher,
	ProvidePaletteSource,
	ProvideMetrics,
	ProvideTracer,
	ProvideHub,
	ProvideCanvasService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideJWTValidator,
	ProvideStreamServer,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup function
// stops the stream hub and the palette watcher.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
