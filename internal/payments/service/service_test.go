package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"collabmatch_backend/internal/payments/repository"
	"collabmatch_backend/platform/apperr"
)

type fakeStore struct {
	payments []repository.Payment
}

func (f *fakeStore) Create(ctx context.Context, p *repository.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*repository.Payment, error) {
	for i := range f.payments {
		if f.payments[i].ID == id {
			return &f.payments[i], nil
		}
	}
	return nil, apperr.NotFound("payment not found")
}

func (f *fakeStore) ListByConnection(ctx context.Context, connectionID uuid.UUID) ([]repository.Payment, error) {
	var out []repository.Payment
	for _, p := range f.payments {
		if p.ConnectionID == connectionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	for i := range f.payments {
		if f.payments[i].ID == id {
			f.payments[i].Status = status
			return nil
		}
	}
	return apperr.NotFound("payment not found")
}

func TestCreateCollaborationPayment(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil)

	connID := uuid.New()
	payer := uuid.New()
	payee := uuid.New()

	resp, err := svc.CreateCollaborationPayment(context.Background(), connID, payer, payee, 5000)
	if err != nil {
		t.Fatalf("CreateCollaborationPayment failed: %v", err)
	}
	if resp.Status != repository.StatusPending {
		t.Fatalf("status = %q, want %q", resp.Status, repository.StatusPending)
	}
	if resp.AmountTotal != 5000 {
		t.Fatalf("amount = %d, want 5000", resp.AmountTotal)
	}
	if resp.CollaborationID != connID {
		t.Fatalf("collaboration id = %s, want %s", resp.CollaborationID, connID)
	}
	if len(store.payments) != 1 {
		t.Fatalf("stored payments = %d, want 1", len(store.payments))
	}
}

func TestCreateCollaborationPayment_RejectsNonPositiveAmount(t *testing.T) {
	svc := New(&fakeStore{}, nil)

	for _, amount := range []int64{0, -100} {
		_, err := svc.CreateCollaborationPayment(context.Background(), uuid.New(), uuid.New(), uuid.New(), amount)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("amount %d: err = %v, want validation error", amount, err)
		}
	}
}

func TestListByConnection_PartyOnly(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil)

	connID := uuid.New()
	payer := uuid.New()
	payee := uuid.New()
	if _, err := svc.CreateCollaborationPayment(context.Background(), connID, payer, payee, 1000); err != nil {
		t.Fatalf("CreateCollaborationPayment failed: %v", err)
	}

	for _, party := range []uuid.UUID{payer, payee} {
		got, err := svc.ListByConnection(context.Background(), party, connID)
		if err != nil {
			t.Fatalf("ListByConnection as party failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("payments = %d, want 1", len(got))
		}
	}

	if _, err := svc.ListByConnection(context.Background(), uuid.New(), connID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("stranger err = %v, want forbidden", err)
	}
}
