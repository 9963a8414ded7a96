package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collabmatch_backend/internal/matching/history"
	"collabmatch_backend/internal/matching/service"
	"collabmatch_backend/internal/matching/transport"
	"collabmatch_backend/platform/httpkit"
	"collabmatch_backend/platform/validator"
)

// Handler handles HTTP requests for match ranking and history analytics.
type Handler struct {
	svc       *service.Service
	analytics *history.AnalyticsService
	store     history.Store
	val       *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	defaultHistoryLimit = 50
)

// New creates a new matching handler.
func New(svc *service.Service, analytics *history.AnalyticsService, store history.Store, val *validator.Validator) *Handler {
	return &Handler{svc: svc, analytics: analytics, store: store, val: val}
}

// List returns ranked matches for the authenticated user.
// GET /api/v1/matches
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.RankMatches(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Analytics returns aggregated match history trends.
// GET /api/v1/matches/analytics?range=week|month|all
func (h *Handler) Analytics(c *gin.Context) {
	var req transport.AnalyticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	timeRange := history.TimeRange(req.Range)
	if req.Range == "" {
		timeRange = history.RangeWeek
	}

	result, err := h.analytics.Get(c.Request.Context(), identity.UserID(), timeRange)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// History returns the most recent match history records.
// GET /api/v1/matches/history?limit=
func (h *Handler) History(c *gin.Context) {
	var req transport.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	records, err := h.store.ListRecent(c.Request.Context(), identity.UserID(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"records": records, "total": len(records)})
}
