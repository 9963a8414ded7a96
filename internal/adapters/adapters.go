// Package adapters bridges module services to the narrow ports other modules
// consume. Most ports are satisfied by the services directly; the adapters
// here exist only where the shapes differ.
package adapters

import (
	"context"

	connsvc "collabmatch_backend/internal/connections/service"
	msgsvc "collabmatch_backend/internal/messaging/service"
	paysvc "collabmatch_backend/internal/payments/service"

	"github.com/google/uuid"
)

// Messenger adapts the messaging service to the connections Messenger port,
// dropping the created-message projection the port has no use for.
type Messenger struct {
	Service *msgsvc.Service
}

func (a Messenger) CreateMessage(ctx context.Context, senderID, recipientID uuid.UUID, content string) error {
	_, err := a.Service.CreateMessage(ctx, senderID, recipientID, content)
	return err
}

// PaymentCreator adapts the payments service to the connections
// PaymentCreator port, narrowing the response to the fields connections
// consumes.
type PaymentCreator struct {
	Service *paysvc.Service
}

func (a PaymentCreator) CreateCollaborationPayment(ctx context.Context, connectionID, companyID, influencerID uuid.UUID, amount int64) (connsvc.Payment, error) {
	resp, err := a.Service.CreateCollaborationPayment(ctx, connectionID, companyID, influencerID, amount)
	if err != nil {
		return connsvc.Payment{}, err
	}
	return connsvc.Payment{
		ID:              resp.ID,
		Status:          resp.Status,
		AmountTotal:     resp.AmountTotal,
		CollaborationID: resp.CollaborationID,
	}, nil
}

var _ connsvc.Messenger = Messenger{}
var _ connsvc.PaymentCreator = PaymentCreator{}
