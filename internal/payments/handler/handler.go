// Package handler provides HTTP handlers for payments.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collabmatch_backend/internal/payments/service"
	"collabmatch_backend/platform/httpkit"
)

// Handler handles payment HTTP requests
type Handler struct {
	svc *service.Service
}

// New creates a new payments handler
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// ListByConnection handles GET /payments/connection/:id
func (h *Handler) ListByConnection(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, "invalid connection id", nil)
		return
	}

	payments, err := h.svc.ListByConnection(c.Request.Context(), identity.UserID(), connectionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, payments)
}
