// Package profiles provides the read-only profile bounded context module.
// Profile attributes are owned by the external profile-management system;
// this module only projects them for matching and display.
package profiles

import (
	apphttp "collabmatch_backend/internal/http"
	"collabmatch_backend/internal/profiles/handler"
	"collabmatch_backend/internal/profiles/repository"
	"collabmatch_backend/internal/profiles/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the profiles bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the profiles module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "profiles"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts profile routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/profiles/me", m.handler.GetMe)
	ctx.Protected.GET("/profiles/:id", m.handler.GetByID)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
