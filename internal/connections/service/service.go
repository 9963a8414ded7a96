// Package service implements the connection and collaboration lifecycle:
// who may connect with whom, how a collaboration request advances through
// its states, and which side effects each transition triggers.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"collabmatch_backend/internal/connections/repository"
	"collabmatch_backend/internal/connections/transport"
	"collabmatch_backend/internal/events"
	"collabmatch_backend/internal/matching/scoring"
	"collabmatch_backend/platform/apperr"
	"collabmatch_backend/platform/logger"
)

// Store is the persistence port for connections.
type Store interface {
	Create(ctx context.Context, conn *repository.Connection) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Connection, error)
	GetByPair(ctx context.Context, a, b uuid.UUID) (*repository.Connection, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.Connection, error)
	ListCollaborationReceived(ctx context.Context, userID uuid.UUID) ([]repository.Connection, error)
	ListCollaborationSent(ctx context.Context, userID uuid.UUID) ([]repository.Connection, error)
	SetCollaborationRequest(ctx context.Context, id uuid.UUID, status string, requestedBy uuid.UUID, req *repository.RequestData) error
	Resolve(ctx context.Context, id uuid.UUID, status, collabStatus string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service orchestrates the connection lifecycle. It owns all writes to the
// two status axes; other modules only reach them through EnsureAccepted.
type Service struct {
	store         Store
	profiles      ProfileDirectory
	conversations ConversationCreator
	messenger     Messenger
	payments      PaymentCreator
	reminders     ReminderScheduler
	bus           events.Bus
	log           *logger.Logger
	reminderDelay time.Duration
	now           func() time.Time
}

// Options carries the optional collaborator ports. Any nil port disables the
// corresponding side effect; the lifecycle itself does not depend on them.
type Options struct {
	Conversations ConversationCreator
	Messenger     Messenger
	Payments      PaymentCreator
	Reminders     ReminderScheduler
	ReminderDelay time.Duration
}

// New creates a new connection lifecycle service.
func New(store Store, profiles ProfileDirectory, bus events.Bus, log *logger.Logger, opts Options) *Service {
	return &Service{
		store:         store,
		profiles:      profiles,
		conversations: opts.Conversations,
		messenger:     opts.Messenger,
		payments:      opts.Payments,
		reminders:     opts.Reminders,
		bus:           bus,
		log:           log,
		reminderDelay: opts.ReminderDelay,
		now:           time.Now,
	}
}

// CreateConnection creates a PENDING connection from requester to recipient.
// At most one connection exists per user pair; a duplicate in either
// direction is a Conflict.
func (s *Service) CreateConnection(ctx context.Context, requesterID, recipientID uuid.UUID) (transport.ConnectionResponse, error) {
	if requesterID == recipientID {
		return transport.ConnectionResponse{}, apperr.BadRequest("cannot create a connection with yourself")
	}

	if _, err := s.profiles.Get(ctx, recipientID); err != nil {
		return transport.ConnectionResponse{}, err
	}

	conn := &repository.Connection{
		RequesterID:         requesterID,
		RecipientID:         recipientID,
		Status:              repository.StatusPending,
		CollaborationStatus: repository.CollabNone,
	}
	if err := s.store.Create(ctx, conn); err != nil {
		return transport.ConnectionResponse{}, err
	}

	s.publish(ctx, events.ConnectionRequested{
		BaseEvent:    events.NewBaseEvent(),
		ConnectionID: conn.ID,
		RequesterID:  requesterID,
		RecipientID:  recipientID,
	})

	return transport.ToConnectionResponse(conn), nil
}

// CreateCollaborationRequest attaches a structured proposal to the pair's
// connection, creating the connection if none exists yet. An existing
// request is overwritten in place, and a previously rejected connection is
// reopened to PENDING so the recipient can decide again.
func (s *Service) CreateCollaborationRequest(ctx context.Context, requesterID uuid.UUID, input transport.CollaborationRequestInput) (transport.ConnectionResponse, error) {
	recipientID, err := resolveTarget(input)
	if err != nil {
		return transport.ConnectionResponse{}, err
	}
	if requesterID == recipientID {
		return transport.ConnectionResponse{}, apperr.BadRequest("cannot send a collaboration request to yourself")
	}
	if strings.TrimSpace(input.Message) == "" {
		return transport.ConnectionResponse{}, apperr.Validation("message is required")
	}

	if _, err := s.profiles.Get(ctx, recipientID); err != nil {
		return transport.ConnectionResponse{}, err
	}

	data := &repository.RequestData{
		Message:      input.Message,
		ProjectTitle: input.ProjectTitle,
		BudgetMin:    input.BudgetMin,
		BudgetMax:    input.BudgetMax,
		Budget:       input.Budget,
		Timeline:     input.Timeline,
		Deliverables: input.Deliverables,
	}

	conn, err := s.store.GetByPair(ctx, requesterID, recipientID)
	if err != nil {
		return transport.ConnectionResponse{}, err
	}

	if conn != nil {
		status := conn.Status
		if status == repository.StatusRejected {
			status = repository.StatusPending
		}
		if err := s.store.SetCollaborationRequest(ctx, conn.ID, status, requesterID, data); err != nil {
			return transport.ConnectionResponse{}, err
		}
		conn.Status = status
		conn.CollaborationStatus = repository.CollabRequested
		conn.Request = data
		conn.RequestedBy = &requesterID
		conn.RespondedAt = nil
	} else {
		conn = &repository.Connection{
			RequesterID:         requesterID,
			RecipientID:         recipientID,
			Status:              repository.StatusPending,
			CollaborationStatus: repository.CollabRequested,
			Request:             data,
			RequestedBy:         &requesterID,
		}
		if err := s.store.Create(ctx, conn); err != nil {
			return transport.ConnectionResponse{}, err
		}
	}

	if s.messenger != nil {
		if err := s.messenger.CreateMessage(ctx, requesterID, recipientID, summaryMessage(data)); err != nil {
			s.log.BestEffortFailure("collaboration_request_message", err, "connection_id", conn.ID.String())
		}
	}
	if s.reminders != nil && s.reminderDelay > 0 {
		runAt := s.now().Add(s.reminderDelay)
		if err := s.reminders.ScheduleCollaborationReminder(ctx, conn.ID, recipientID, runAt); err != nil {
			s.log.BestEffortFailure("collaboration_reminder_schedule", err, "connection_id", conn.ID.String())
		}
	}

	requested := events.CollaborationRequested{
		BaseEvent:    events.NewBaseEvent(),
		ConnectionID: conn.ID,
		RequesterID:  requesterID,
		RecipientID:  recipientID,
	}
	if data.ProjectTitle != nil {
		requested.ProjectTitle = *data.ProjectTitle
	}
	s.publish(ctx, requested)

	return transport.ToConnectionResponse(conn), nil
}

// AcceptCollaborationRequest transitions a requested collaboration to
// active and the connection to ACCEPTED. Only the party who did not send
// the request may accept. Conversation and payment creation are attempted
// afterwards; a payment failure is reported in the response body, never as
// a failed request.
func (s *Service) AcceptCollaborationRequest(ctx context.Context, userID, connectionID uuid.UUID) (transport.DecisionResponse, error) {
	conn, err := s.authorizeDecision(ctx, userID, connectionID)
	if err != nil {
		return transport.DecisionResponse{}, err
	}

	updated, err := s.store.Resolve(ctx, connectionID, repository.StatusAccepted, repository.CollabActive)
	if err != nil {
		return transport.DecisionResponse{}, err
	}
	if !updated {
		return transport.DecisionResponse{}, apperr.BadRequest("collaboration request is no longer pending")
	}
	now := s.now().UTC()
	conn.Status = repository.StatusAccepted
	conn.CollaborationStatus = repository.CollabActive
	conn.RespondedAt = &now
	conn.UpdatedAt = now

	requesterID := *conn.RequestedBy

	resp := transport.DecisionResponse{
		Connection: transport.ToConnectionResponse(conn),
		Message:    "collaboration request accepted",
	}

	if s.conversations != nil {
		convID, convErr := s.conversations.GetOrCreateConversation(ctx, conn.RequesterID, conn.RecipientID)
		if convErr != nil {
			s.log.BestEffortFailure("collaboration_conversation_create", convErr, "connection_id", conn.ID.String())
		} else {
			resp.ConversationID = &convID
		}
	}

	amount := collaborationAmount(conn.Request)
	resp.RequiresPayment = amount > 0
	if resp.RequiresPayment && s.payments != nil {
		payment, payErr := s.createPayment(ctx, conn, amount)
		if payErr != nil {
			// Soft failure: acceptance already happened, the caller
			// retries payment separately.
			s.log.BestEffortFailure("collaboration_payment_create", payErr, "connection_id", conn.ID.String())
			msg := payErr.Error()
			resp.PaymentError = &msg
		} else {
			resp.Payment = &transport.PaymentSummary{
				ID:              payment.ID,
				Status:          payment.Status,
				AmountTotal:     payment.AmountTotal,
				CollaborationID: payment.CollaborationID,
			}
		}
	}

	accepted := events.CollaborationAccepted{
		BaseEvent:      events.NewBaseEvent(),
		ConnectionID:   conn.ID,
		RequesterID:    requesterID,
		RecipientID:    userID,
		ConversationID: resp.ConversationID,
	}
	if resp.Payment != nil {
		accepted.PaymentID = &resp.Payment.ID
	}
	s.publish(ctx, accepted)

	return resp, nil
}

// RejectCollaborationRequest transitions a requested collaboration to
// rejected and the connection to REJECTED. Recipient only.
func (s *Service) RejectCollaborationRequest(ctx context.Context, userID, connectionID uuid.UUID) (transport.DecisionResponse, error) {
	conn, err := s.authorizeDecision(ctx, userID, connectionID)
	if err != nil {
		return transport.DecisionResponse{}, err
	}

	updated, err := s.store.Resolve(ctx, connectionID, repository.StatusRejected, repository.CollabRejected)
	if err != nil {
		return transport.DecisionResponse{}, err
	}
	if !updated {
		return transport.DecisionResponse{}, apperr.BadRequest("collaboration request is no longer pending")
	}
	now := s.now().UTC()
	conn.Status = repository.StatusRejected
	conn.CollaborationStatus = repository.CollabRejected
	conn.RespondedAt = &now
	conn.UpdatedAt = now

	s.publish(ctx, events.CollaborationRejected{
		BaseEvent:    events.NewBaseEvent(),
		ConnectionID: conn.ID,
		RequesterID:  *conn.RequestedBy,
		RecipientID:  userID,
	})

	return transport.DecisionResponse{
		Connection: transport.ToConnectionResponse(conn),
		Message:    "collaboration request rejected",
	}, nil
}

// ResolveCollaborationRequest dispatches a PATCH-style status update to the
// dedicated accept or reject path.
func (s *Service) ResolveCollaborationRequest(ctx context.Context, userID, connectionID uuid.UUID, status string) (transport.DecisionResponse, error) {
	switch status {
	case "accepted":
		return s.AcceptCollaborationRequest(ctx, userID, connectionID)
	case "rejected":
		return s.RejectCollaborationRequest(ctx, userID, connectionID)
	default:
		return transport.DecisionResponse{}, apperr.Validation("status must be accepted or rejected")
	}
}

// GetConnectionStatus reports the connection state between the caller and
// another user. Read path failures degrade to the "none" default instead of
// surfacing an error.
func (s *Service) GetConnectionStatus(ctx context.Context, userID, otherUserID uuid.UUID) transport.ConnectionStatusResponse {
	none := transport.ConnectionStatusResponse{Status: "none"}

	conn, err := s.store.GetByPair(ctx, userID, otherUserID)
	if err != nil {
		s.log.BestEffortFailure("connection_status_read", err, "user_id", userID.String())
		return none
	}
	if conn == nil {
		return none
	}

	resp := transport.ToConnectionResponse(conn)
	return transport.ConnectionStatusResponse{Status: conn.Status, Connection: &resp}
}

// GetMyConnections lists the caller's connections. Failures degrade to an
// empty list.
func (s *Service) GetMyConnections(ctx context.Context, userID uuid.UUID) []transport.ConnectionResponse {
	conns, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		s.log.BestEffortFailure("connection_list_read", err, "user_id", userID.String())
		return []transport.ConnectionResponse{}
	}

	out := make([]transport.ConnectionResponse, 0, len(conns))
	for i := range conns {
		out = append(out, transport.ToConnectionResponse(&conns[i]))
	}
	return out
}

// ListCollaborationReceived returns collaboration requests awaiting or past
// the caller's decision, each joined with the requester's profile.
func (s *Service) ListCollaborationReceived(ctx context.Context, userID uuid.UUID) ([]transport.CollaborationRequestView, error) {
	conns, err := s.store.ListCollaborationReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.joinProfiles(ctx, userID, conns), nil
}

// ListCollaborationSent returns collaboration requests the caller initiated,
// each joined with the counterpart's profile.
func (s *Service) ListCollaborationSent(ctx context.Context, userID uuid.UUID) ([]transport.CollaborationRequestView, error) {
	conns, err := s.store.ListCollaborationSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.joinProfiles(ctx, userID, conns), nil
}

// DeleteConnection removes a connection. Only a participant may remove it.
func (s *Service) DeleteConnection(ctx context.Context, userID, connectionID uuid.UUID) error {
	conn, err := s.store.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if _, ok := conn.Other(userID); !ok {
		return apperr.Forbidden("only a participant can remove a connection")
	}
	return s.store.Delete(ctx, connectionID)
}

// EnsureAccepted is the narrow write granted to the messaging module: a
// first message between two users promotes their connection to ACCEPTED,
// creating it if necessary. The collaboration axis is never touched here.
func (s *Service) EnsureAccepted(ctx context.Context, a, b uuid.UUID) error {
	conn, err := s.store.GetByPair(ctx, a, b)
	if err != nil {
		return err
	}

	if conn == nil {
		conn = &repository.Connection{
			RequesterID:         a,
			RecipientID:         b,
			Status:              repository.StatusAccepted,
			CollaborationStatus: repository.CollabNone,
		}
		err := s.store.Create(ctx, conn)
		if err == nil {
			return nil
		}
		if !apperr.Is(err, apperr.KindConflict) {
			return err
		}
		// Lost the creation race; fall through to promote whatever won.
		conn, err = s.store.GetByPair(ctx, a, b)
		if err != nil || conn == nil {
			return err
		}
	}

	if conn.Status != repository.StatusPending {
		return nil
	}
	return s.store.UpdateStatus(ctx, conn.ID, repository.StatusAccepted)
}

// IsRequestPending reports whether the connection still has an unanswered
// collaboration request, used by the reminder worker.
func (s *Service) IsRequestPending(ctx context.Context, connectionID uuid.UUID) (bool, error) {
	conn, err := s.store.GetByID(ctx, connectionID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return conn.CollaborationStatus == repository.CollabRequested, nil
}

func (s *Service) authorizeDecision(ctx context.Context, userID, connectionID uuid.UUID) (*repository.Connection, error) {
	conn, err := s.store.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if _, ok := conn.Other(userID); !ok {
		return nil, apperr.Forbidden("not a participant of this connection")
	}
	if conn.CollaborationStatus != repository.CollabRequested {
		return nil, apperr.BadRequest("connection has no pending collaboration request")
	}
	if conn.RequestedBy == nil || *conn.RequestedBy == userID {
		return nil, apperr.Forbidden("only the recipient can respond to a collaboration request")
	}
	return conn, nil
}

func (s *Service) createPayment(ctx context.Context, conn *repository.Connection, amount int64) (Payment, error) {
	companyID, influencerID, err := s.paymentParties(ctx, conn)
	if err != nil {
		return Payment{}, err
	}
	return s.payments.CreateCollaborationPayment(ctx, conn.ID, companyID, influencerID, amount)
}

// paymentParties resolves which participant pays. The organization side
// funds the collaboration regardless of who sent the request.
func (s *Service) paymentParties(ctx context.Context, conn *repository.Connection) (companyID, influencerID uuid.UUID, err error) {
	role, err := s.profiles.Role(ctx, conn.RequesterID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("resolve payer role: %w", err)
	}
	if role == scoring.RoleOrganization {
		return conn.RequesterID, conn.RecipientID, nil
	}
	return conn.RecipientID, conn.RequesterID, nil
}

func (s *Service) joinProfiles(ctx context.Context, userID uuid.UUID, conns []repository.Connection) []transport.CollaborationRequestView {
	views := make([]transport.CollaborationRequestView, 0, len(conns))
	for i := range conns {
		view := transport.CollaborationRequestView{
			Connection: transport.ToConnectionResponse(&conns[i]),
		}
		if otherID, ok := conns[i].Other(userID); ok {
			profile, err := s.profiles.Get(ctx, otherID)
			if err != nil {
				s.log.BestEffortFailure("collaboration_profile_join", err, "user_id", otherID.String())
			} else {
				view.Profile = &profile
			}
		}
		views = append(views, view)
	}
	return views
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

func resolveTarget(input transport.CollaborationRequestInput) (uuid.UUID, error) {
	raw := input.RecipientID
	if raw == nil {
		raw = input.TargetUserID
	}
	if raw == nil {
		return uuid.Nil, apperr.Validation("recipientId or targetUserId is required")
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid recipient id")
	}
	return id, nil
}

// collaborationAmount picks the payment amount from the proposal: the
// largest of budgetMin, budgetMax and the flat budget.
func collaborationAmount(req *repository.RequestData) int64 {
	if req == nil {
		return 0
	}
	var amount int64
	for _, v := range []*int64{req.BudgetMin, req.BudgetMax, req.Budget} {
		if v != nil && *v > amount {
			amount = *v
		}
	}
	return amount
}

// summaryMessage renders the proposal into the confirmation message sent to
// the recipient.
func summaryMessage(req *repository.RequestData) string {
	var b strings.Builder
	b.WriteString("New collaboration request")
	if req.ProjectTitle != nil && *req.ProjectTitle != "" {
		b.WriteString(": ")
		b.WriteString(*req.ProjectTitle)
	}
	b.WriteString("\n\n")
	b.WriteString(req.Message)

	switch {
	case req.BudgetMin != nil && req.BudgetMax != nil:
		fmt.Fprintf(&b, "\n\nBudget: $%d - $%d", *req.BudgetMin, *req.BudgetMax)
	case req.Budget != nil:
		fmt.Fprintf(&b, "\n\nBudget: $%d", *req.Budget)
	}
	if req.Timeline != nil && *req.Timeline != "" {
		fmt.Fprintf(&b, "\nTimeline: %s", *req.Timeline)
	}
	if len(req.Deliverables) > 0 {
		fmt.Fprintf(&b, "\nDeliverables: %s", strings.Join(req.Deliverables, ", "))
	}
	return b.String()
}
