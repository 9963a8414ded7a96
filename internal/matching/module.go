// Package matching provides the match scoring bounded context module:
// the pure score engine, the ranking service, and the best-effort match
// history recorder with its analytics.
package matching

import (
	apphttp "collabmatch_backend/internal/http"
	"collabmatch_backend/internal/matching/handler"
	"collabmatch_backend/internal/matching/history"
	"collabmatch_backend/internal/matching/repository"
	"collabmatch_backend/internal/matching/service"
	"collabmatch_backend/platform/logger"
	"collabmatch_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the matching bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	recorder *history.Recorder
}

// NewModule creates and initializes the matching module with all its dependencies.
// The profile source is injected to keep this module decoupled from the
// profiles module's concrete types.
func NewModule(pool *pgxpool.Pool, profiles service.ProfileSource, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	recorder := history.NewRecorder(repo, log)
	analytics := history.NewAnalyticsService(repo)
	svc := service.New(profiles, recorder, log)
	h := handler.New(svc, analytics, repo, val)

	return &Module{
		handler:  h,
		service:  svc,
		recorder: recorder,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "matching"
}

// Service returns the ranking service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Drain waits for in-flight history writes, used on graceful shutdown.
func (m *Module) Drain() {
	m.recorder.Wait()
}

// RegisterRoutes mounts matching routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/matches", m.handler.List)
	ctx.Protected.GET("/matches/analytics", m.handler.Analytics)
	ctx.Protected.GET("/matches/history", m.handler.History)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
