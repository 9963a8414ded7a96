// Package handler provides HTTP handlers for messaging.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collabmatch_backend/internal/messaging/service"
	"collabmatch_backend/internal/messaging/transport"
	"collabmatch_backend/platform/httpkit"
	"collabmatch_backend/platform/validator"
)

// Handler handles messaging HTTP requests
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new messaging handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Send handles POST /messages
func (h *Handler) Send(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request", err.Error())
		return
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		httpkit.Error(c, 400, "invalid recipient id", nil)
		return
	}

	msg, err := h.svc.CreateMessage(c.Request.Context(), identity.UserID(), recipientID, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, msg)
}

// ListConversations handles GET /conversations
func (h *Handler) ListConversations(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	convs, err := h.svc.ListConversations(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, convs)
}

// ListMessages handles GET /conversations/:id/messages
func (h *Handler) ListMessages(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, 400, "invalid conversation id", nil)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			httpkit.Error(c, 400, "limit must be between 1 and 500", nil)
			return
		}
	}

	msgs, err := h.svc.ListMessages(c.Request.Context(), identity.UserID(), conversationID, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, msgs)
}
