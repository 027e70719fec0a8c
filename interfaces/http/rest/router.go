package rest

import (
	"net/http"

	"flowcanvas/application/commands/bus"
	querybus "flowcanvas/application/queries/bus"
	"flowcanvas/application/services"
	"flowcanvas/interfaces/http/rest/handlers"
	"flowcanvas/interfaces/http/rest/middleware"
	"flowcanvas/interfaces/websocket"
	"flowcanvas/pkg/auth"
	"flowcanvas/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig toggles optional middleware
type RouterConfig struct {
	EnableCORS     bool
	AllowedOrigins []string
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	service    *services.CanvasService
	stream     *websocket.Server
	validator  *auth.JWTValidator
	metrics    *observability.Collector
	config     RouterConfig
	logger     *zap.Logger
}

// NewRouter creates a new router instance. validator, metrics and stream may
// be nil to disable authentication, /metrics and the gesture stream.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	service *services.CanvasService,
	stream *websocket.Server,
	validator *auth.JWTValidator,
	metrics *observability.Collector,
	config RouterConfig,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		service:    service,
		stream:     stream,
		validator:  validator,
		metrics:    metrics,
		config:     config,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.config.EnableCORS {
		origins := rt.config.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000", "http://localhost:5173"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	canvasHandler := handlers.NewCanvasHandler(rt.commandBus, rt.queryBus, rt.service, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.commandBus, rt.service, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		r.Get("/palette", canvasHandler.GetPalette)

		r.Route("/canvases", func(r chi.Router) {
			r.Post("/", canvasHandler.CreateCanvas)
			r.Get("/", canvasHandler.ListCanvases)

			r.Route("/{canvasID}", func(r chi.Router) {
				r.Get("/", canvasHandler.GetCanvas)
				r.Delete("/", canvasHandler.DeleteCanvas)
				r.Post("/restore", canvasHandler.RestoreCanvas)

				r.Post("/nodes", graphHandler.AddNode)
				r.Patch("/nodes/{nodeID}", graphHandler.UpdateNode)
				r.Delete("/nodes/{nodeID}", graphHandler.DeleteNode)

				r.Post("/edges", graphHandler.AddEdge)
				r.Delete("/edges/{edgeID}", graphHandler.DeleteEdge)

				r.Post("/gestures", canvasHandler.HandleGesture)
				r.Put("/viewport", canvasHandler.UpdateViewport)
				r.Get("/frame", canvasHandler.GetFrame)
				r.Post("/save", canvasHandler.SaveCanvas)
				r.Get("/versions", canvasHandler.ListVersions)

				if rt.stream != nil {
					r.Get("/stream", rt.stream.HandleStream)
				}
			})
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
