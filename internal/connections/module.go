// Package connections provides the connection and collaboration lifecycle
// bounded context: connection requests, collaboration proposals, and the
// accept/reject transitions with their side effects.
package connections

import (
	"collabmatch_backend/internal/connections/handler"
	"collabmatch_backend/internal/connections/repository"
	"collabmatch_backend/internal/connections/service"
	"collabmatch_backend/internal/events"
	apphttp "collabmatch_backend/internal/http"
	"collabmatch_backend/platform/logger"
	"collabmatch_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the connections bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the connections module. Collaborator
// ports arrive through opts; nil ports disable the matching side effect.
func NewModule(pool *pgxpool.Pool, profiles service.ProfileDirectory, bus events.Bus, val *validator.Validator, log *logger.Logger, opts service.Options) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, profiles, bus, log, opts)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "connections"
}

// Service returns the lifecycle service for adapter wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts connection routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/connections", m.handler.Create)
	ctx.Protected.GET("/connections", m.handler.List)
	ctx.Protected.GET("/connections/status/:id", m.handler.Status)
	ctx.Protected.GET("/connections/user/:userId", m.handler.WithUser)
	ctx.Protected.DELETE("/connections/:id", m.handler.Delete)

	ctx.Protected.POST("/collaboration-requests", m.handler.CreateCollaboration)
	ctx.Protected.GET("/collaboration-requests/received", m.handler.ListReceived)
	ctx.Protected.GET("/collaboration-requests/sent", m.handler.ListSent)
	ctx.Protected.POST("/collaboration-requests/:id/accept", m.handler.Accept)
	ctx.Protected.POST("/collaboration-requests/:id/reject", m.handler.Reject)
	ctx.Protected.PATCH("/collaboration-requests/:id", m.handler.Resolve)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
