package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"collabmatch_backend/internal/connections/repository"
	"collabmatch_backend/internal/connections/transport"
	"collabmatch_backend/internal/matching/scoring"
	profilestransport "collabmatch_backend/internal/profiles/transport"
	"collabmatch_backend/platform/apperr"
	"collabmatch_backend/platform/logger"
)

type fakeStore struct {
	connections map[uuid.UUID]*repository.Connection
	failAll     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{connections: make(map[uuid.UUID]*repository.Connection)}
}

var errStore = errors.New("store unavailable")

func (f *fakeStore) Create(ctx context.Context, conn *repository.Connection) error {
	if f.failAll {
		return errStore
	}
	for _, existing := range f.connections {
		if samePair(existing, conn.RequesterID, conn.RecipientID) {
			return apperr.Conflict("connection already exists between these users")
		}
	}
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	now := time.Now().UTC()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	copied := *conn
	f.connections[conn.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*repository.Connection, error) {
	if f.failAll {
		return nil, errStore
	}
	conn, ok := f.connections[id]
	if !ok {
		return nil, apperr.NotFound("connection not found")
	}
	copied := *conn
	return &copied, nil
}

func (f *fakeStore) GetByPair(ctx context.Context, a, b uuid.UUID) (*repository.Connection, error) {
	if f.failAll {
		return nil, errStore
	}
	for _, conn := range f.connections {
		if samePair(conn, a, b) {
			copied := *conn
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]repository.Connection, error) {
	if f.failAll {
		return nil, errStore
	}
	var out []repository.Connection
	for _, conn := range f.connections {
		if conn.RequesterID == userID || conn.RecipientID == userID {
			out = append(out, *conn)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCollaborationReceived(ctx context.Context, userID uuid.UUID) ([]repository.Connection, error) {
	if f.failAll {
		return nil, errStore
	}
	var out []repository.Connection
	for _, conn := range f.connections {
		participant := conn.RequesterID == userID || conn.RecipientID == userID
		if participant && conn.CollaborationStatus != repository.CollabNone &&
			conn.RequestedBy != nil && *conn.RequestedBy != userID {
			out = append(out, *conn)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCollaborationSent(ctx context.Context, userID uuid.UUID) ([]repository.Connection, error) {
	if f.failAll {
		return nil, errStore
	}
	var out []repository.Connection
	for _, conn := range f.connections {
		if conn.RequestedBy != nil && *conn.RequestedBy == userID && conn.CollaborationStatus != repository.CollabNone {
			out = append(out, *conn)
		}
	}
	return out, nil
}

func (f *fakeStore) SetCollaborationRequest(ctx context.Context, id uuid.UUID, status string, requestedBy uuid.UUID, req *repository.RequestData) error {
	if f.failAll {
		return errStore
	}
	conn, ok := f.connections[id]
	if !ok {
		return apperr.NotFound("connection not found")
	}
	conn.Status = status
	conn.CollaborationStatus = repository.CollabRequested
	conn.Request = req
	conn.RequestedBy = &requestedBy
	conn.RespondedAt = nil
	conn.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeStore) Resolve(ctx context.Context, id uuid.UUID, status, collabStatus string) (bool, error) {
	if f.failAll {
		return false, errStore
	}
	conn, ok := f.connections[id]
	if !ok || conn.CollaborationStatus != repository.CollabRequested {
		return false, nil
	}
	now := time.Now().UTC()
	conn.Status = status
	conn.CollaborationStatus = collabStatus
	conn.RespondedAt = &now
	conn.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if f.failAll {
		return errStore
	}
	conn, ok := f.connections[id]
	if !ok {
		return apperr.NotFound("connection not found")
	}
	conn.Status = status
	conn.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.failAll {
		return errStore
	}
	if _, ok := f.connections[id]; !ok {
		return apperr.NotFound("connection not found")
	}
	delete(f.connections, id)
	return nil
}

func samePair(conn *repository.Connection, a, b uuid.UUID) bool {
	return (conn.RequesterID == a && conn.RecipientID == b) ||
		(conn.RequesterID == b && conn.RecipientID == a)
}

type fakeProfiles struct {
	roles map[uuid.UUID]scoring.Role
}

func (f *fakeProfiles) Role(ctx context.Context, userID uuid.UUID) (scoring.Role, error) {
	role, ok := f.roles[userID]
	if !ok {
		return "", apperr.NotFound("profile not found")
	}
	return role, nil
}

func (f *fakeProfiles) Get(ctx context.Context, userID uuid.UUID) (profilestransport.ProfileResponse, error) {
	role, ok := f.roles[userID]
	if !ok {
		return profilestransport.ProfileResponse{}, apperr.NotFound("profile not found")
	}
	return profilestransport.ProfileResponse{UserID: userID, Role: string(role)}, nil
}

type fakePayments struct {
	err     error
	calls   int
	amounts []int64
}

func (f *fakePayments) CreateCollaborationPayment(ctx context.Context, connectionID, companyID, influencerID uuid.UUID, amount int64) (Payment, error) {
	f.calls++
	f.amounts = append(f.amounts, amount)
	if f.err != nil {
		return Payment{}, f.err
	}
	return Payment{
		ID:              uuid.New(),
		Status:          "pending",
		AmountTotal:     amount,
		CollaborationID: connectionID,
	}, nil
}

type fakeMessenger struct {
	messages []string
}

func (f *fakeMessenger) CreateMessage(ctx context.Context, senderID, recipientID uuid.UUID, content string) error {
	f.messages = append(f.messages, content)
	return nil
}

type fakeConversations struct {
	id  uuid.UUID
	err error
}

func (f *fakeConversations) GetOrCreateConversation(ctx context.Context, a, b uuid.UUID) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return f.id, nil
}

type testEnv struct {
	svc           *Service
	store         *fakeStore
	payments      *fakePayments
	messenger     *fakeMessenger
	conversations *fakeConversations
	creator       uuid.UUID
	org           uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	creator := uuid.New()
	org := uuid.New()

	store := newFakeStore()
	payments := &fakePayments{}
	messenger := &fakeMessenger{}
	conversations := &fakeConversations{id: uuid.New()}
	profiles := &fakeProfiles{roles: map[uuid.UUID]scoring.Role{
		creator: scoring.RoleCreator,
		org:     scoring.RoleOrganization,
	}}

	svc := New(store, profiles, nil, logger.New("development"), Options{
		Conversations: conversations,
		Messenger:     messenger,
		Payments:      payments,
	})

	return &testEnv{
		svc:           svc,
		store:         store,
		payments:      payments,
		messenger:     messenger,
		conversations: conversations,
		creator:       creator,
		org:           org,
	}
}

func intPtr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func requestInput(env *testEnv) transport.CollaborationRequestInput {
	target := env.org.String()
	return transport.CollaborationRequestInput{
		RecipientID:  &target,
		Message:      "Let's work together on the spring campaign",
		ProjectTitle: strPtr("Spring Campaign"),
		BudgetMin:    intPtr(1000),
		BudgetMax:    intPtr(5000),
	}
}

func TestCreateConnection_DuplicateConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateConnection(ctx, env.creator, env.org); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Duplicate from the opposite direction must also conflict.
	_, err := env.svc.CreateConnection(ctx, env.org, env.creator)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(env.store.connections) != 1 {
		t.Fatalf("expected exactly one connection, got %d", len(env.store.connections))
	}
}

func TestCreateConnection_SelfRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateConnection(context.Background(), env.creator, env.creator)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestCreateCollaborationRequest_CreatesConnection(t *testing.T) {
	env := newTestEnv(t)

	conn, err := env.svc.CreateCollaborationRequest(context.Background(), env.creator, requestInput(env))
	if err != nil {
		t.Fatalf("create collaboration request failed: %v", err)
	}
	if conn.Status != repository.StatusPending {
		t.Fatalf("expected status PENDING, got %q", conn.Status)
	}
	if conn.CollaborationStatus != repository.CollabRequested {
		t.Fatalf("expected collaboration status requested, got %q", conn.CollaborationStatus)
	}
	if conn.RequestedBy == nil || *conn.RequestedBy != env.creator {
		t.Fatalf("expected requestedBy to be the requester")
	}
	if len(env.messenger.messages) != 1 {
		t.Fatalf("expected one summary message, got %d", len(env.messenger.messages))
	}
}

func TestCreateCollaborationRequest_OverwritesAndReopensRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateCollaborationRequest(ctx, env.creator, requestInput(env)); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	var connID uuid.UUID
	for id := range env.store.connections {
		connID = id
	}
	if _, err := env.svc.RejectCollaborationRequest(ctx, env.org, connID); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	input := requestInput(env)
	input.Message = "Second attempt with a bigger budget"
	input.BudgetMax = intPtr(9000)

	conn, err := env.svc.CreateCollaborationRequest(ctx, env.creator, input)
	if err != nil {
		t.Fatalf("re-request failed: %v", err)
	}
	if conn.Status != repository.StatusPending {
		t.Fatalf("expected rejected connection reopened to PENDING, got %q", conn.Status)
	}
	if conn.CollaborationStatus != repository.CollabRequested {
		t.Fatalf("expected collaboration status requested, got %q", conn.CollaborationStatus)
	}
	if conn.Request == nil || conn.Request.Message != input.Message {
		t.Fatalf("expected request data overwritten")
	}
	if len(env.store.connections) != 1 {
		t.Fatalf("expected overwrite in place, got %d connections", len(env.store.connections))
	}
}

func TestAcceptCollaborationRequest_RecipientOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateCollaborationRequest(ctx, env.creator, requestInput(env)); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var connID uuid.UUID
	for id := range env.store.connections {
		connID = id
	}

	// The requester cannot accept their own request.
	_, err := env.svc.AcceptCollaborationRequest(ctx, env.creator, connID)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for requester, got %v", err)
	}

	// A non-participant cannot accept either.
	_, err = env.svc.AcceptCollaborationRequest(ctx, uuid.New(), connID)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
}

func TestAcceptCollaborationRequest_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateCollaborationRequest(ctx, env.creator, requestInput(env)); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var connID uuid.UUID
	for id := range env.store.connections {
		connID = id
	}

	resp, err := env.svc.AcceptCollaborationRequest(ctx, env.org, connID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if resp.Connection.Status != repository.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %q", resp.Connection.Status)
	}
	if resp.Connection.CollaborationStatus != repository.CollabActive {
		t.Fatalf("expected active, got %q", resp.Connection.CollaborationStatus)
	}
	if !resp.RequiresPayment {
		t.Fatalf("expected requiresPayment with a budgeted request")
	}
	if resp.Payment == nil {
		t.Fatalf("expected payment summary")
	}
	// Amount is the largest of budgetMin, budgetMax and flat budget.
	if resp.Payment.AmountTotal != 5000 {
		t.Fatalf("expected amount 5000, got %d", resp.Payment.AmountTotal)
	}
	if resp.PaymentError != nil {
		t.Fatalf("unexpected payment error: %s", *resp.PaymentError)
	}
	if resp.ConversationID == nil || *resp.ConversationID != env.conversations.id {
		t.Fatalf("expected conversation id in response")
	}
}

func TestAcceptCollaborationRequest_WrongState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateCollaborationRequest(ctx, env.creator, requestInput(env)); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var connID uuid.UUID
	for id := range env.store.connections {
		connID = id
	}
	if _, err := env.svc.AcceptCollaborationRequest(ctx, env.org, connID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	// Second accept hits an active collaboration and must fail without
	// changing state.
	_, err := env.svc.AcceptCollaborationRequest(ctx, env.org, connID)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	conn := env.store.connections[connID]
	if conn.CollaborationStatus != repository.CollabActive || conn.Status != repository.StatusAccepted {
		t.Fatalf("state changed by failed accept: %s/%s", conn.Status, conn.CollaborationStatus)
	}
	if env.payments.calls != 1 {
		t.Fatalf("expected one payment creation, got %d", env.payments.calls)
	}
}

func TestAcceptCollaborationRequest_PaymentFailureIsSoft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.payments.err = errors.New("payment provider unavailable")

	if _, err := env.svc.CreateCollaborationRequest(ctx, env.creator, requestInput(env)); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var connID uuid.UUID
	for id := range env.store.connections {
		connID = id
	}

	resp, err := env.svc.AcceptCollaborationRequest(ctx, env.org, connID)
	if err != nil {
		t.Fatalf("accept must not fail on payment error, got %v", err)
	}
	if resp.Payment != nil {
		t.Fatalf("expected nil payment on failure")
	}
	if resp.PaymentError == nil {
		t.Fatalf("expected payment error to be reported")
	}
	if resp.Connection.CollaborationStatus != repository.CollabActive {
		t.Fatalf("collaboration must still be active, got %q", resp.Connection.CollaborationStatus)
	}
}

func TestRejectCollaborationRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateCollaborationRequest(ctx, env.creator, requestInput(env)); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var connID uuid.UUID
	for id := range env.store.connections {
		connID = id
	}

	resp, err := env.svc.RejectCollaborationRequest(ctx, env.org, connID)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if resp.Connection.Status != repository.StatusRejected {
		t.Fatalf("expected REJECTED, got %q", resp.Connection.Status)
	}
	if resp.Connection.CollaborationStatus != repository.CollabRejected {
		t.Fatalf("expected rejected, got %q", resp.Connection.CollaborationStatus)
	}
	if env.payments.calls != 0 {
		t.Fatalf("reject must not create a payment")
	}
}

func TestReadProjections_DegradeOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.store.failAll = true

	status := env.svc.GetConnectionStatus(ctx, env.creator, env.org)
	if status.Status != "none" || status.Connection != nil {
		t.Fatalf("expected none/nil default, got %+v", status)
	}

	conns := env.svc.GetMyConnections(ctx, env.creator)
	if conns == nil || len(conns) != 0 {
		t.Fatalf("expected empty slice, got %v", conns)
	}
}

func TestDeleteConnection_ParticipantOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn, err := env.svc.CreateConnection(ctx, env.creator, env.org)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = env.svc.DeleteConnection(ctx, uuid.New(), conn.ID)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	if err := env.svc.DeleteConnection(ctx, env.org, conn.ID); err != nil {
		t.Fatalf("participant delete failed: %v", err)
	}
	if len(env.store.connections) != 0 {
		t.Fatalf("connection not removed")
	}
}

func TestEnsureAccepted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// No connection yet: one is created directly in ACCEPTED.
	if err := env.svc.EnsureAccepted(ctx, env.creator, env.org); err != nil {
		t.Fatalf("ensure accepted failed: %v", err)
	}
	conn, err := env.store.GetByPair(ctx, env.creator, env.org)
	if err != nil || conn == nil {
		t.Fatalf("expected connection created: %v", err)
	}
	if conn.Status != repository.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %q", conn.Status)
	}
	if conn.CollaborationStatus != repository.CollabNone {
		t.Fatalf("collaboration axis must stay none, got %q", conn.CollaborationStatus)
	}

	// A pending connection is promoted in place.
	env2 := newTestEnv(t)
	created, err := env2.svc.CreateConnection(ctx, env2.creator, env2.org)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := env2.svc.EnsureAccepted(ctx, env2.org, env2.creator); err != nil {
		t.Fatalf("ensure accepted failed: %v", err)
	}
	promoted, _ := env2.store.GetByPair(ctx, env2.creator, env2.org)
	if promoted.ID != created.ID {
		t.Fatalf("expected promotion in place, got a new connection")
	}
	if promoted.Status != repository.StatusAccepted {
		t.Fatalf("expected ACCEPTED after promotion, got %q", promoted.Status)
	}
}

func TestPaymentAmountSelection(t *testing.T) {
	cases := []struct {
		name string
		req  *repository.RequestData
		want int64
	}{
		{"nil request", nil, 0},
		{"no budget", &repository.RequestData{Message: "hi"}, 0},
		{"flat budget only", &repository.RequestData{Budget: intPtr(700)}, 700},
		{"max wins", &repository.RequestData{BudgetMin: intPtr(100), BudgetMax: intPtr(900), Budget: intPtr(500)}, 900},
		{"flat beats range", &repository.RequestData{BudgetMin: intPtr(100), BudgetMax: intPtr(200), Budget: intPtr(800)}, 800},
	}

	for _, tc := range cases {
		if got := collaborationAmount(tc.req); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
