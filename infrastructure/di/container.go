package di

import (
	"net/http"

	"foodiary/application/commands/bus"
	"foodiary/infrastructure/config"
	"foodiary/infrastructure/persistence/abstractions"
	"foodiary/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Tracer      *observability.Tracer
	Metrics     *observability.Metrics
	Store       abstractions.Store
	HTTPHandler http.Handler
	CommandBus  *bus.CommandBus
}
