// Package transport defines the request and response shapes for the
// connections API.
package transport

import (
	"time"

	"github.com/google/uuid"

	"collabmatch_backend/internal/connections/repository"
	profilestransport "collabmatch_backend/internal/profiles/transport"
)

// CreateConnectionRequest is the payload for a plain connection request.
type CreateConnectionRequest struct {
	RecipientID string `json:"recipientId" binding:"required,uuid"`
}

// CollaborationRequestInput is the payload for creating or overwriting a
// collaboration request. The target may arrive as recipientId or
// targetUserId; at least one is required.
type CollaborationRequestInput struct {
	RecipientID  *string  `json:"recipientId" binding:"omitempty,uuid"`
	TargetUserID *string  `json:"targetUserId" binding:"omitempty,uuid"`
	Message      string   `json:"message" binding:"required,min=1,max=2000"`
	ProjectTitle *string  `json:"projectTitle" binding:"omitempty,max=200"`
	BudgetMin    *int64   `json:"budgetMin" binding:"omitempty,min=0"`
	BudgetMax    *int64   `json:"budgetMax" binding:"omitempty,min=0"`
	Budget       *int64   `json:"budget" binding:"omitempty,min=0"`
	Timeline     *string  `json:"timeline" binding:"omitempty,max=500"`
	Deliverables []string `json:"deliverables" binding:"omitempty,max=20,dive,max=200"`
}

// UpdateCollaborationStatusRequest is the PATCH payload for resolving a
// collaboration request without the dedicated accept/reject endpoints.
type UpdateCollaborationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected"`
}

// RequestData mirrors the stored collaboration proposal in responses.
type RequestData struct {
	Message      string   `json:"message"`
	ProjectTitle *string  `json:"projectTitle,omitempty"`
	BudgetMin    *int64   `json:"budgetMin,omitempty"`
	BudgetMax    *int64   `json:"budgetMax,omitempty"`
	Budget       *int64   `json:"budget,omitempty"`
	Timeline     *string  `json:"timeline,omitempty"`
	Deliverables []string `json:"deliverables,omitempty"`
}

// ConnectionResponse is the API representation of a connection.
type ConnectionResponse struct {
	ID                  uuid.UUID    `json:"id"`
	RequesterID         uuid.UUID    `json:"requesterId"`
	RecipientID         uuid.UUID    `json:"recipientId"`
	Status              string       `json:"status"`
	CollaborationStatus string       `json:"collaborationStatus"`
	Request             *RequestData `json:"collaborationRequest,omitempty"`
	RequestedBy         *uuid.UUID   `json:"requestedBy,omitempty"`
	RespondedAt         *time.Time   `json:"respondedAt,omitempty"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// ConnectionStatusResponse is the never-failing status projection between
// the caller and another user.
type ConnectionStatusResponse struct {
	Status     string              `json:"status"`
	Connection *ConnectionResponse `json:"connection"`
}

// PaymentSummary is the slice of a payment the connections API exposes.
type PaymentSummary struct {
	ID              uuid.UUID `json:"id"`
	Status          string    `json:"status"`
	AmountTotal     int64     `json:"amountTotal"`
	CollaborationID uuid.UUID `json:"collaborationId"`
}

// DecisionResponse is returned by accept and reject. On accept it carries
// the side-effect summary; a failed payment shows up as a nil Payment with
// PaymentError set while the request itself still succeeds.
type DecisionResponse struct {
	Connection      ConnectionResponse `json:"connection"`
	Message         string             `json:"message"`
	RequiresPayment bool               `json:"requiresPayment"`
	Payment         *PaymentSummary    `json:"payment"`
	PaymentError    *string            `json:"paymentError"`
	ConversationID  *uuid.UUID         `json:"conversationId"`
}

// CollaborationRequestView is a collaboration request joined with the
// counterpart's profile, as shown in received/sent listings.
type CollaborationRequestView struct {
	Connection ConnectionResponse                 `json:"connection"`
	Profile    *profilestransport.ProfileResponse `json:"profile"`
}

// ToConnectionResponse maps the database model to its API shape.
func ToConnectionResponse(c *repository.Connection) ConnectionResponse {
	resp := ConnectionResponse{
		ID:                  c.ID,
		RequesterID:         c.RequesterID,
		RecipientID:         c.RecipientID,
		Status:              c.Status,
		CollaborationStatus: c.CollaborationStatus,
		RequestedBy:         c.RequestedBy,
		RespondedAt:         c.RespondedAt,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
	if c.Request != nil {
		resp.Request = &RequestData{
			Message:      c.Request.Message,
			ProjectTitle: c.Request.ProjectTitle,
			BudgetMin:    c.Request.BudgetMin,
			BudgetMax:    c.Request.BudgetMax,
			Budget:       c.Request.Budget,
			Timeline:     c.Request.Timeline,
			Deliverables: c.Request.Deliverables,
		}
	}
	return resp
}
