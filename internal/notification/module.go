// Package notification subscribes to domain events and fans them out to the
// channels a user can be reached on: a persisted in-app notification, an SSE
// push when the user is online, and a best-effort email. Domain modules
// publish events and never know about delivery channels.
package notification

import (
	"context"
	"strings"
	"sync"
	"time"

	"collabmatch_backend/internal/email"
	"collabmatch_backend/internal/events"
	apphttp "collabmatch_backend/internal/http"
	notifhandler "collabmatch_backend/internal/notification/handler"
	"collabmatch_backend/internal/notification/inapp"
	"collabmatch_backend/internal/notification/sse"
	"collabmatch_backend/platform/httpkit"
	"collabmatch_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userCacheTTL = 10 * time.Minute

// userContact is a resolved display name and email for a user.
type userContact struct {
	name      string
	email     string
	expiresAt time.Time
}

// Module handles all notification-related event subscriptions.
type Module struct {
	pool         *pgxpool.Pool
	sender       email.Sender
	log          *logger.Logger
	sse          *sse.Service
	inAppService *inapp.Service
	inAppHandler *notifhandler.HTTPHandler
	userCache    sync.Map // map[uuid.UUID]userContact
}

// New creates a new notification module.
func New(pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) *Module {
	inAppRepo := inapp.NewRepository(pool)
	inAppSvc := inapp.NewService(inAppRepo, log)
	sseSvc := sse.New()
	inAppSvc.SetSSE(sseSvc)

	if sender == nil {
		sender = email.NopSender{}
	}

	return &Module{
		pool:         pool,
		sender:       sender,
		log:          log,
		sse:          sseSvc,
		inAppService: inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes registers notification API routes, including the SSE stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notifications := ctx.Protected.Group("/notifications")
	m.inAppHandler.RegisterRoutes(notifications)

	notifications.GET("/stream", m.sse.Handler(func(c *gin.Context) (uuid.UUID, bool) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() {
			return uuid.Nil, false
		}
		return identity.UserID(), true
	}))
}

// SSE exposes the realtime gateway for shutdown and integration points.
func (m *Module) SSE() *sse.Service { return m.sse }

// InAppService exposes the in-app notification service for integration points.
func (m *Module) InAppService() *inapp.Service { return m.inAppService }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ConnectionRequested{}.EventName(), m)
	bus.Subscribe(events.CollaborationRequested{}.EventName(), m)
	bus.Subscribe(events.CollaborationAccepted{}.EventName(), m)
	bus.Subscribe(events.CollaborationRejected{}.EventName(), m)
	bus.Subscribe(events.CollaborationReminderDue{}.EventName(), m)
	bus.Subscribe(events.PaymentCreated{}.EventName(), m)
	bus.Subscribe(events.MessageSent{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ConnectionRequested:
		return m.handleConnectionRequested(ctx, e)
	case events.CollaborationRequested:
		return m.handleCollaborationRequested(ctx, e)
	case events.CollaborationAccepted:
		return m.handleCollaborationAccepted(ctx, e)
	case events.CollaborationRejected:
		return m.handleCollaborationRejected(ctx, e)
	case events.CollaborationReminderDue:
		return m.handleCollaborationReminderDue(ctx, e)
	case events.PaymentCreated:
		return m.handlePaymentCreated(ctx, e)
	case events.MessageSent:
		return m.handleMessageSent(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleConnectionRequested(ctx context.Context, e events.ConnectionRequested) error {
	requester := m.resolveUser(ctx, e.RequesterID)

	return m.inAppService.Send(ctx, inapp.SendParams{
		UserID:   e.RecipientID,
		SenderID: &e.RequesterID,
		Type:     inapp.TypeConnectionRequest,
		Content:  requester.name + " wants to connect with you",
		Metadata: map[string]any{"connectionId": e.ConnectionID.String()},
	})
}

func (m *Module) handleCollaborationRequested(ctx context.Context, e events.CollaborationRequested) error {
	requester := m.resolveUser(ctx, e.RequesterID)
	recipient := m.resolveUser(ctx, e.RecipientID)

	content := requester.name + " sent you a collaboration request"
	if e.ProjectTitle != "" {
		content += ": " + e.ProjectTitle
	}

	err := m.inAppService.Send(ctx, inapp.SendParams{
		UserID:   e.RecipientID,
		SenderID: &e.RequesterID,
		Type:     inapp.TypeCollaborationRequest,
		Content:  content,
		Metadata: map[string]any{"connectionId": e.ConnectionID.String()},
	})

	if recipient.email != "" {
		if mailErr := m.sender.SendCollaborationRequestEmail(ctx, recipient.email, requester.name, e.ProjectTitle); mailErr != nil {
			m.log.BestEffortFailure("collaboration_request_email", mailErr, "user_id", e.RecipientID.String())
		}
	}

	return err
}

func (m *Module) handleCollaborationAccepted(ctx context.Context, e events.CollaborationAccepted) error {
	accepter := m.resolveUser(ctx, e.RecipientID)
	requester := m.resolveUser(ctx, e.RequesterID)

	metadata := map[string]any{"connectionId": e.ConnectionID.String()}
	if e.ConversationID != nil {
		metadata["conversationId"] = e.ConversationID.String()
	}
	if e.PaymentID != nil {
		metadata["paymentId"] = e.PaymentID.String()
	}

	err := m.inAppService.Send(ctx, inapp.SendParams{
		UserID:   e.RequesterID,
		SenderID: &e.RecipientID,
		Type:     inapp.TypeCollaborationAccepted,
		Content:  accepter.name + " accepted your collaboration request",
		Metadata: metadata,
	})

	if requester.email != "" {
		if mailErr := m.sender.SendCollaborationAcceptedEmail(ctx, requester.email, accepter.name); mailErr != nil {
			m.log.BestEffortFailure("collaboration_accepted_email", mailErr, "user_id", e.RequesterID.String())
		}
	}

	return err
}

func (m *Module) handleCollaborationRejected(ctx context.Context, e events.CollaborationRejected) error {
	rejecter := m.resolveUser(ctx, e.RecipientID)
	requester := m.resolveUser(ctx, e.RequesterID)

	err := m.inAppService.Send(ctx, inapp.SendParams{
		UserID:   e.RequesterID,
		SenderID: &e.RecipientID,
		Type:     inapp.TypeCollaborationRejected,
		Content:  rejecter.name + " declined your collaboration request",
		Metadata: map[string]any{"connectionId": e.ConnectionID.String()},
	})

	if requester.email != "" {
		if mailErr := m.sender.SendCollaborationRejectedEmail(ctx, requester.email, rejecter.name); mailErr != nil {
			m.log.BestEffortFailure("collaboration_rejected_email", mailErr, "user_id", e.RequesterID.String())
		}
	}

	return err
}

func (m *Module) handleCollaborationReminderDue(ctx context.Context, e events.CollaborationReminderDue) error {
	requester := m.resolveUser(ctx, e.RequesterID)

	content := requester.name + "'s collaboration request is still waiting for your response"
	if e.ProjectTitle != "" {
		content += ": " + e.ProjectTitle
	}

	return m.inAppService.Send(ctx, inapp.SendParams{
		UserID:   e.RecipientID,
		SenderID: &e.RequesterID,
		Type:     inapp.TypeCollaborationRequest,
		Content:  content,
		Metadata: map[string]any{"connectionId": e.ConnectionID.String(), "reminder": true},
	})
}

func (m *Module) handlePaymentCreated(ctx context.Context, e events.PaymentCreated) error {
	payload := map[string]any{
		"paymentId":    e.PaymentID.String(),
		"connectionId": e.ConnectionID.String(),
		"amountTotal":  e.AmountTotal,
		"status":       e.Status,
	}
	m.sse.EmitPaymentUpdate(e.PayerID, payload)
	m.sse.EmitPaymentUpdate(e.PayeeID, payload)

	payee := m.resolveUser(ctx, e.PayeeID)
	err := m.inAppService.Send(ctx, inapp.SendParams{
		UserID:   e.PayeeID,
		SenderID: &e.PayerID,
		Type:     inapp.TypePaymentCreated,
		Content:  "A collaboration payment is pending",
		Metadata: payload,
	})

	if payee.email != "" {
		if mailErr := m.sender.SendPaymentCreatedEmail(ctx, payee.email, e.AmountTotal); mailErr != nil {
			m.log.BestEffortFailure("payment_created_email", mailErr, "user_id", e.PayeeID.String())
		}
	}

	return err
}

func (m *Module) handleMessageSent(ctx context.Context, e events.MessageSent) error {
	sender := m.resolveUser(ctx, e.SenderID)

	// Realtime push only; messages are their own record.
	m.sse.Publish(e.RecipientID, sse.Event{
		Type:    sse.EventNewMessage,
		Message: sender.name + " sent you a message",
		Data: map[string]any{
			"messageId":      e.MessageID.String(),
			"conversationId": e.ConversationID.String(),
			"senderId":       e.SenderID.String(),
		},
	})
	return nil
}

// resolveUser looks up a user's display name and email, with a short TTL
// cache. Lookup failures degrade to a generic name and no email.
func (m *Module) resolveUser(ctx context.Context, userID uuid.UUID) userContact {
	if cached, ok := m.userCache.Load(userID); ok {
		entry := cached.(userContact)
		if time.Now().Before(entry.expiresAt) {
			return entry
		}
		m.userCache.Delete(userID)
	}

	contact := userContact{name: "Someone"}
	if m.pool == nil {
		return contact
	}

	var name, mail string
	err := m.pool.QueryRow(ctx, `
		SELECT COALESCE(p.display_name, ''), COALESCE(u.email, '')
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1`, userID).Scan(&name, &mail)
	if err != nil {
		return contact
	}

	if trimmed := strings.TrimSpace(name); trimmed != "" {
		contact.name = trimmed
	}
	contact.email = strings.TrimSpace(mail)
	contact.expiresAt = time.Now().Add(userCacheTTL)
	m.userCache.Store(userID, contact)
	return contact
}

// Close shuts down realtime streams.
func (m *Module) Close() {
	m.sse.Close()
}

// Compile-time checks
var _ apphttp.Module = (*Module)(nil)
var _ events.Handler = (*Module)(nil)
