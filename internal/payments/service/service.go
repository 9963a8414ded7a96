// Package service implements collaboration payment creation and lookup.
// Settlement happens with an external provider; this core only records the
// pending obligation created when a collaboration is accepted.
package service

import (
	"context"

	"github.com/google/uuid"

	"collabmatch_backend/internal/events"
	"collabmatch_backend/internal/payments/repository"
	"collabmatch_backend/internal/payments/transport"
	"collabmatch_backend/platform/apperr"
)

// Store is the persistence port for payments.
type Store interface {
	Create(ctx context.Context, p *repository.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Payment, error)
	ListByConnection(ctx context.Context, connectionID uuid.UUID) ([]repository.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// Service provides payment operations.
type Service struct {
	store Store
	bus   events.Bus
}

// New creates a new payments service.
func New(store Store, bus events.Bus) *Service {
	return &Service{store: store, bus: bus}
}

// CreateCollaborationPayment records a pending payment from the company to
// the influencer for an accepted collaboration.
func (s *Service) CreateCollaborationPayment(ctx context.Context, connectionID, companyID, influencerID uuid.UUID, amount int64) (transport.PaymentResponse, error) {
	if amount <= 0 {
		return transport.PaymentResponse{}, apperr.Validation("payment amount must be positive")
	}

	payment := &repository.Payment{
		ConnectionID: connectionID,
		PayerID:      companyID,
		PayeeID:      influencerID,
		AmountTotal:  amount,
		Status:       repository.StatusPending,
	}
	if err := s.store.Create(ctx, payment); err != nil {
		return transport.PaymentResponse{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.PaymentCreated{
			BaseEvent:    events.NewBaseEvent(),
			PaymentID:    payment.ID,
			ConnectionID: connectionID,
			PayerID:      companyID,
			PayeeID:      influencerID,
			AmountTotal:  amount,
			Status:       payment.Status,
		})
	}

	return toResponse(payment), nil
}

// ListByConnection returns a connection's payments to one of its parties.
func (s *Service) ListByConnection(ctx context.Context, userID, connectionID uuid.UUID) ([]transport.PaymentResponse, error) {
	payments, err := s.store.ListByConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.PaymentResponse, 0, len(payments))
	for i := range payments {
		p := &payments[i]
		if p.PayerID != userID && p.PayeeID != userID {
			return nil, apperr.Forbidden("not a party of this payment")
		}
		out = append(out, toResponse(p))
	}
	return out, nil
}

func toResponse(p *repository.Payment) transport.PaymentResponse {
	return transport.PaymentResponse{
		ID:              p.ID,
		Status:          p.Status,
		AmountTotal:     p.AmountTotal,
		CollaborationID: p.ConnectionID,
		PayerID:         p.PayerID,
		PayeeID:         p.PayeeID,
		CreatedAt:       p.CreatedAt,
	}
}
