// Package messaging provides conversations and direct messages between
// matched users.
package messaging

import (
	"collabmatch_backend/internal/events"
	apphttp "collabmatch_backend/internal/http"
	"collabmatch_backend/internal/messaging/handler"
	"collabmatch_backend/internal/messaging/repository"
	"collabmatch_backend/internal/messaging/service"
	"collabmatch_backend/platform/logger"
	"collabmatch_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the messaging bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the messaging module.
func NewModule(pool *pgxpool.Pool, promoter service.ConnectionPromoter, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, promoter, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "messaging"
}

// Service returns the messaging service for adapter wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts messaging routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/messages", m.handler.Send)
	ctx.Protected.GET("/conversations", m.handler.ListConversations)
	ctx.Protected.GET("/conversations/:id/messages", m.handler.ListMessages)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
