package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collabmatch_backend/internal/profiles/service"
	"collabmatch_backend/platform/httpkit"
)

// Handler handles HTTP requests for profile projections.
type Handler struct {
	svc *service.Service
}

// New creates a new profiles handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe retrieves the authenticated user's own profile.
// GET /api/v1/profiles/me
func (h *Handler) GetMe(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves a profile by user ID.
// GET /api/v1/profiles/:id
func (h *Handler) GetByID(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user ID", nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
