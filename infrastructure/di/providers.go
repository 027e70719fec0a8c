package di

import (
	"context"
	"net/http"
	"time"

	"flowcanvas/application/commands/bus"
	commandhandlers "flowcanvas/application/commands/handlers"
	"flowcanvas/application/ports"
	querybus "flowcanvas/application/queries/bus"
	queryhandlers "flowcanvas/application/queries/handlers"
	"flowcanvas/application/services"
	"flowcanvas/domain/palette"
	"flowcanvas/infrastructure/config"
	"flowcanvas/infrastructure/messaging/eventbridge"
	"flowcanvas/infrastructure/persistence"
	"flowcanvas/infrastructure/persistence/dynamodb"
	"flowcanvas/infrastructure/persistence/memory"
	"flowcanvas/interfaces/http/rest"
	"flowcanvas/interfaces/websocket"
	"flowcanvas/pkg/auth"
	"flowcanvas/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName        = "flowcanvas"
	slowQueryThreshold = 250 * time.Millisecond
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCanvasRepository creates the open-canvas repository
func ProvideCanvasRepository(logger *zap.Logger) ports.CanvasRepository {
	return memory.NewCanvasRepository(logger)
}

// ProvideWorkflowSaver picks the save collaborator. Remote savers sit behind
// a circuit breaker.
func ProvideWorkflowSaver(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.WorkflowSaver {
	if cfg.Saver != config.SaverDynamoDB {
		return memory.NewWorkflowSaver(logger)
	}
	saver := dynamodb.NewWorkflowSaver(client, cfg.DynamoDBTable, logger)
	return persistence.NewCircuitBreakerSaver(saver, persistence.DefaultCircuitBreakerConfig("dynamodb-saver"), logger)
}

// ProvideEventPublisher creates the EventBridge publisher. Development and
// configurations without a bus get none.
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" || cfg.IsDevelopment() {
		logger.Info("Event publishing disabled, canvas events stay in process")
		return nil
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvidePaletteSource loads the palette. A watched palette file is reloaded
// on change and the returned cleanup stops the watcher.
func ProvidePaletteSource(cfg *config.Config, logger *zap.Logger) (services.PaletteSource, func(), error) {
	noop := func() {}

	switch {
	case cfg.PaletteFile == "":
		return palette.DefaultRegistry(), noop, nil

	case cfg.WatchPalette:
		watcher, err := palette.NewWatcher(cfg.PaletteFile, logger)
		if err != nil {
			return nil, nil, err
		}
		watcher.Start()
		return watcher, watcher.Stop, nil

	default:
		registry, err := palette.LoadFile(cfg.PaletteFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Palette loaded", zap.String("file", cfg.PaletteFile), zap.Int("types", len(registry.ListTypes())))
		return registry, noop, nil
	}
}

// ProvideMetrics creates the metrics collector, nil when metrics are disabled
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(serviceName)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideHub creates the stream hub and runs it until cleanup
func ProvideHub(logger *zap.Logger, metrics *observability.Collector) (*websocket.Hub, func()) {
	hub := websocket.NewHub(logger, metrics)
	go hub.Run()
	return hub, hub.Stop
}

// ProvideCanvasService creates the canvas service
func ProvideCanvasService(
	cfg *config.Config,
	repo ports.CanvasRepository,
	saver ports.WorkflowSaver,
	publisher ports.EventPublisher,
	palettes services.PaletteSource,
	hub *websocket.Hub,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.CanvasService {
	return services.NewCanvasService(repo, saver, palettes, cfg.DomainRules(), logger,
		services.WithPublisher(publisher),
		services.WithNotifier(hub),
		services.WithMetrics(metrics),
		services.WithTracer(tracer),
		services.WithMaxCanvases(cfg.MaxCanvases),
	)
}

// ProvideCommandBus creates the command bus with every canvas handler registered
func ProvideCommandBus(service *services.CanvasService, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	if err := commandhandlers.NewCanvasCommandHandler(service).Register(commandBus); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates the query bus with every canvas handler registered
func ProvideQueryBus(service *services.CanvasService, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.LoggingMiddleware(logger, slowQueryThreshold))
	if err := queryhandlers.NewCanvasQueryHandler(service).Register(queryBus); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideJWTValidator creates the token validator, nil when auth is disabled
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)
}

// ProvideStreamServer creates the gesture stream server
func ProvideStreamServer(hub *websocket.Hub, service *services.CanvasService, logger *zap.Logger) *websocket.Server {
	return websocket.NewServer(hub, service, websocket.DefaultServerConfig(), logger)
}

// ProvideRouter builds the HTTP handler
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	service *services.CanvasService,
	stream *websocket.Server,
	validator *auth.JWTValidator,
	metrics *observability.Collector,
	logger *zap.Logger,
) http.Handler {
	router := rest.NewRouter(commandBus, queryBus, service, stream, validator, metrics,
		rest.RouterConfig{EnableCORS: cfg.EnableCORS}, logger)
	return router.Setup()
}
