// Package handler provides HTTP handlers for connections and collaboration
// requests.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collabmatch_backend/internal/connections/service"
	"collabmatch_backend/internal/connections/transport"
	"collabmatch_backend/platform/httpkit"
	"collabmatch_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidIDParam   = "invalid id parameter"
)

// Handler handles connection HTTP requests
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new connections handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create handles POST /connections
func (h *Handler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req transport.CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		httpkit.Error(c, 400, msgInvalidIDParam, nil)
		return
	}

	conn, err := h.svc.CreateConnection(c.Request.Context(), userID, recipientID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, conn)
}

// List handles GET /connections
func (h *Handler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	httpkit.OK(c, h.svc.GetMyConnections(c.Request.Context(), userID))
}

// Status handles GET /connections/status/:id where :id is the other user.
func (h *Handler) Status(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	otherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidIDParam, nil)
		return
	}
	httpkit.OK(c, h.svc.GetConnectionStatus(c.Request.Context(), userID, otherID))
}

// WithUser handles GET /connections/user/:userId, the connection between the
// caller and the given user, null when none exists.
func (h *Handler) WithUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	otherID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidIDParam, nil)
		return
	}
	status := h.svc.GetConnectionStatus(c.Request.Context(), userID, otherID)
	httpkit.OK(c, gin.H{"connection": status.Connection})
}

// Delete handles DELETE /connections/:id
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidIDParam, nil)
		return
	}
	if err := h.svc.DeleteConnection(c.Request.Context(), userID, connectionID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "connection removed"})
}

// CreateCollaboration handles POST /collaboration-requests
func (h *Handler) CreateCollaboration(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input transport.CollaborationRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpkit.Error(c, 400, msgInvalidRequest, err.Error())
		return
	}

	conn, err := h.svc.CreateCollaborationRequest(c.Request.Context(), userID, input)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, conn)
}

// ListReceived handles GET /collaboration-requests/received
func (h *Handler) ListReceived(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	views, err := h.svc.ListCollaborationReceived(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, views)
}

// ListSent handles GET /collaboration-requests/sent
func (h *Handler) ListSent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	views, err := h.svc.ListCollaborationSent(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, views)
}

// Accept handles POST /collaboration-requests/:id/accept
func (h *Handler) Accept(c *gin.Context) {
	h.decide(c, "accepted")
}

// Reject handles POST /collaboration-requests/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, "rejected")
}

// Resolve handles PATCH /collaboration-requests/:id
func (h *Handler) Resolve(c *gin.Context) {
	var req transport.UpdateCollaborationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, msgValidationFailed, err.Error())
		return
	}
	h.decide(c, req.Status)
}

func (h *Handler) decide(c *gin.Context, status string) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, msgInvalidIDParam, nil)
		return
	}

	resp, err := h.svc.ResolveCollaborationRequest(c.Request.Context(), userID, connectionID, status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, false
	}
	return identity.UserID(), true
}
