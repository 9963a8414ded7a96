// Package payments records the pending payments that back accepted
// collaborations.
package payments

import (
	"collabmatch_backend/internal/events"
	apphttp "collabmatch_backend/internal/http"
	"collabmatch_backend/internal/payments/handler"
	"collabmatch_backend/internal/payments/repository"
	"collabmatch_backend/internal/payments/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the payments bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the payments module.
func NewModule(pool *pgxpool.Pool, bus events.Bus) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "payments"
}

// Service returns the payments service for adapter wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts payment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/payments/connection/:id", m.handler.ListByConnection)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
