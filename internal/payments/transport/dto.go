// Package transport defines the response shapes for the payments API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// PaymentResponse is the API representation of a payment.
type PaymentResponse struct {
	ID              uuid.UUID `json:"id"`
	Status          string    `json:"status"`
	AmountTotal     int64     `json:"amountTotal"`
	CollaborationID uuid.UUID `json:"collaborationId"`
	PayerID         uuid.UUID `json:"payerId"`
	PayeeID         uuid.UUID `json:"payeeId"`
	CreatedAt       time.Time `json:"createdAt"`
}
