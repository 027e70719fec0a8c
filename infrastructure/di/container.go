// Package di wires the application together with google/wire.
package di

import (
	"net/http"

	"flowcanvas/application/commands/bus"
	querybus "flowcanvas/application/queries/bus"
	"flowcanvas/application/services"
	"flowcanvas/infrastructure/config"
	"flowcanvas/interfaces/websocket"
	"flowcanvas/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Service    *services.CanvasService
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Hub        *websocket.Hub
	Metrics    *observability.Collector
	Handler    http.Handler
}
