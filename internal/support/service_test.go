package support

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagio/garagio-backend/internal/notifications"
	"github.com/garagio/garagio-backend/internal/refunds"
	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/outbox"
)

type fakeRepo struct {
	orders      map[uuid.UUID]*models.Order
	assignments map[uuid.UUID]*models.DeliveryAssignment
	payouts     map[uuid.UUID]*models.GaragePayout

	orderUpdates      map[uuid.UUID]map[string]any
	assignmentUpdates map[uuid.UUID]map[string]any
	payoutUpdates     map[uuid.UUID]map[string]any
	createdPayouts    []*models.GaragePayout
	statusHistory     []*models.OrderStatusHistory
	resolutionLogs    []*models.ResolutionLog
	escalations       []*models.SupportEscalation
	resolutionLogErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:            map[uuid.UUID]*models.Order{},
		assignments:       map[uuid.UUID]*models.DeliveryAssignment{},
		payouts:           map[uuid.UUID]*models.GaragePayout{},
		orderUpdates:      map[uuid.UUID]map[string]any{},
		assignmentUpdates: map[uuid.UUID]map[string]any{},
		payoutUpdates:     map[uuid.UUID]map[string]any{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (f *fakeRepo) FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return f.FindOrder(ctx, orderID)
}

func (f *fakeRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	f.orderUpdates[orderID] = updates
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		f.orders[orderID].Status = status
	}
	return nil
}

func (f *fakeRepo) CreateStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	f.statusHistory = append(f.statusHistory, entry)
	return nil
}

func (f *fakeRepo) FindActiveAssignmentForUpdate(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error) {
	for _, assignment := range f.assignments {
		if assignment.OrderID == orderID && assignment.Status.IsActive() {
			return assignment, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) UpdateAssignment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.assignmentUpdates[id] = updates
	if status, ok := updates["status"].(enums.AssignmentStatus); ok {
		f.assignments[id].Status = status
	}
	return nil
}

func (f *fakeRepo) FindStandardPayoutByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.GaragePayout, error) {
	for _, payout := range f.payouts {
		if payout.OrderID == orderID && payout.PayoutType == enums.PayoutTypeStandard {
			return payout, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) UpdatePayout(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.payoutUpdates[id] = updates
	if status, ok := updates["status"].(enums.PayoutStatus); ok {
		f.payouts[id].Status = status
	}
	return nil
}

func (f *fakeRepo) CreatePayout(ctx context.Context, payout *models.GaragePayout) error {
	payout.ID = uuid.New()
	f.createdPayouts = append(f.createdPayouts, payout)
	return nil
}

func (f *fakeRepo) CreateResolutionLog(ctx context.Context, entry *models.ResolutionLog) error {
	if f.resolutionLogErr != nil {
		return f.resolutionLogErr
	}
	f.resolutionLogs = append(f.resolutionLogs, entry)
	return nil
}

func (f *fakeRepo) CreateEscalation(ctx context.Context, escalation *models.SupportEscalation) error {
	escalation.ID = uuid.New()
	f.escalations = append(f.escalations, escalation)
	return nil
}

type fakeTx struct{}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeNotifier struct {
	sent []notifications.Input
}

func (f *fakeNotifier) Send(ctx context.Context, input notifications.Input) error {
	f.sent = append(f.sent, input)
	return nil
}

type fakeRefunds struct {
	createInput   *refunds.CreateRefundInput
	createResp    *refunds.RefundResponse
	createErr     error
	customerInput *refunds.ProcessCustomerRefundInput
	customerResp  *refunds.RefundResponse
	customerErr   error
	approvedInput *refunds.ProcessApprovedRefundInput
	approvedResp  *refunds.RefundResponse
	approvedErr   error
}

func (f *fakeRefunds) CreateRefundIn(ctx context.Context, tx *gorm.DB, input refunds.CreateRefundInput) (*refunds.RefundResponse, error) {
	f.createInput = &input
	return f.createResp, f.createErr
}

func (f *fakeRefunds) ProcessCustomerRefund(ctx context.Context, input refunds.ProcessCustomerRefundInput) (*refunds.RefundResponse, error) {
	f.customerInput = &input
	return f.customerResp, f.customerErr
}

func (f *fakeRefunds) ProcessApprovedRefund(ctx context.Context, input refunds.ProcessApprovedRefundInput) (*refunds.RefundResponse, error) {
	f.approvedInput = &input
	if f.approvedErr != nil {
		return f.approvedResp, f.approvedErr
	}
	if input.OnCompleted != nil && f.approvedResp != nil {
		completed := &models.Refund{
			ID:              f.approvedResp.ID,
			OrderID:         f.approvedResp.OrderID,
			CustomerID:      f.approvedResp.CustomerID,
			Status:          enums.RefundStatusCompleted,
			Amount:          f.approvedResp.Amount,
			Currency:        f.approvedResp.Currency,
			GatewayRefundID: f.approvedResp.GatewayRefundID,
		}
		if err := input.OnCompleted(nil, completed); err != nil {
			return nil, err
		}
	}
	return f.approvedResp, nil
}

type supportFixture struct {
	repo     *fakeRepo
	emitter  *fakeEmitter
	notifier *fakeNotifier
	refunds  *fakeRefunds
	svc      Service
	now      time.Time
	agentID  uuid.UUID
}

func newFixture(t *testing.T) *supportFixture {
	t.Helper()
	repo := newFakeRepo()
	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	refundSvc := &fakeRefunds{}
	svc, err := NewService(repo, &fakeTx{}, emitter, refundSvc, notifier, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return now }
	return &supportFixture{
		repo:     repo,
		emitter:  emitter,
		notifier: notifier,
		refunds:  refundSvc,
		svc:      svc,
		now:      now,
		agentID:  uuid.New(),
	}
}

func (fx *supportFixture) seedOrder(status enums.OrderStatus, paid bool, completedDaysAgo int) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		GarageID:      uuid.New(),
		Status:        status,
		PaymentStatus: enums.PaymentStatusUnpaid,
		TotalAmount:   decimal.RequireFromString("500.00"),
		Currency:      enums.CurrencyQAR,
	}
	if paid {
		order.PaymentStatus = enums.PaymentStatusPaid
		intent := "pi_test_123"
		order.PaymentIntentID = &intent
	}
	if completedDaysAgo >= 0 {
		completed := fx.now.AddDate(0, 0, -completedDaysAgo)
		order.CompletedAt = &completed
	}
	fx.repo.orders[order.ID] = order
	return order
}

func (fx *supportFixture) seedPayout(order *models.Order, status enums.PayoutStatus) *models.GaragePayout {
	payout := &models.GaragePayout{
		ID:               uuid.New(),
		OrderID:          order.ID,
		GarageID:         order.GarageID,
		Status:           status,
		PayoutType:       enums.PayoutTypeStandard,
		GrossAmount:      decimal.RequireFromString("500.00"),
		CommissionAmount: decimal.RequireFromString("75.00"),
		NetAmount:        decimal.RequireFromString("425.00"),
		Currency:         enums.CurrencyQAR,
	}
	fx.repo.payouts[payout.ID] = payout
	return payout
}

func (fx *supportFixture) seedAssignment(order *models.Order) *models.DeliveryAssignment {
	assignment := &models.DeliveryAssignment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		DriverID:   uuid.New(),
		Status:     enums.AssignmentStatusAssigned,
		AssignedAt: fx.now.Add(-2 * time.Hour),
	}
	fx.repo.assignments[assignment.ID] = assignment
	return assignment
}

func TestExecuteFullRefund(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusCompleted, true, 3)
	refundID := uuid.New()
	fx.refunds.createResp = &refunds.RefundResponse{
		ID:               refundID,
		OrderID:          order.ID,
		Amount:           order.TotalAmount,
		Currency:         order.Currency,
		PayoutAdjustment: refunds.PayoutAdjustmentReduced,
	}

	result := fx.svc.ExecuteFullRefund(context.Background(), FullRefundInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "customer complaint upheld",
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Action != enums.SupportActionFullRefund {
		t.Fatalf("unexpected action %s", result.Action)
	}
	if result.PayoutEffect != string(refunds.PayoutAdjustmentReduced) {
		t.Fatalf("unexpected payout effect %q", result.PayoutEffect)
	}
	if result.RefundID == nil || *result.RefundID != refundID {
		t.Fatalf("expected refund id %s on result", refundID)
	}
	if fx.refunds.createInput == nil {
		t.Fatal("expected CreateRefund call")
	}
	if fx.refunds.createInput.RefundType != enums.RefundTypeSupportRequest {
		t.Fatalf("unexpected refund type %s", fx.refunds.createInput.RefundType)
	}
	if !fx.refunds.createInput.Amount.Equal(order.TotalAmount) {
		t.Fatalf("expected full amount, got %s", fx.refunds.createInput.Amount)
	}
	if len(fx.repo.resolutionLogs) != 1 {
		t.Fatalf("expected 1 resolution log, got %d", len(fx.repo.resolutionLogs))
	}
	if fx.repo.resolutionLogs[0].CustomerID != order.CustomerID {
		t.Fatal("resolution log should carry the order's customer")
	}
	if len(fx.notifier.sent) != 2 {
		t.Fatalf("expected customer and garage notifications, got %d", len(fx.notifier.sent))
	}
}

func TestExecuteFullRefundWarrantyElapsed(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusCompleted, true, 8)

	result := fx.svc.ExecuteFullRefund(context.Background(), FullRefundInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "too late",
	})

	if result.Success {
		t.Fatal("expected failure after the complaint window closed")
	}
	if fx.refunds.createInput != nil {
		t.Fatal("refund must not be created after the window closed")
	}
	if !strings.Contains(result.Message, "complaint window") {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestExecuteFullRefundNotRefundable(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusProcessing, true, -1)

	result := fx.svc.ExecuteFullRefund(context.Background(), FullRefundInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "wrong flow",
	})

	if result.Success {
		t.Fatal("expected failure for a non-refundable status")
	}
	if fx.refunds.createInput != nil {
		t.Fatal("refund must not be created")
	}
}

func TestExecuteFullRefundUnpaidOrder(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusCompleted, false, 3)

	result := fx.svc.ExecuteFullRefund(context.Background(), FullRefundInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "customer complaint upheld",
	})

	if result.Success {
		t.Fatal("expected failure for an unpaid order")
	}
	if fx.refunds.createInput != nil {
		t.Fatal("refund must not be created for an unpaid order")
	}
	if !strings.Contains(result.Message, "nothing to refund") {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if len(fx.repo.resolutionLogs) != 0 {
		t.Fatal("no resolution log should be written on failure")
	}
}

func TestExecuteFullRefundMissingPaymentIntent(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusCompleted, true, 3)
	order.PaymentIntentID = nil

	result := fx.svc.ExecuteFullRefund(context.Background(), FullRefundInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "customer complaint upheld",
	})

	if result.Success {
		t.Fatal("expected failure without a payment intent")
	}
	if fx.refunds.createInput != nil {
		t.Fatal("refund must not be created without a payment intent")
	}
	if !strings.Contains(result.Message, "payment intent") {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestExecuteFullRefundLogFailureFailsAction(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusCompleted, true, 3)
	fx.repo.resolutionLogErr = errors.New("resolution_logs unavailable")
	fx.refunds.createResp = &refunds.RefundResponse{
		ID:       uuid.New(),
		OrderID:  order.ID,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
	}

	result := fx.svc.ExecuteFullRefund(context.Background(), FullRefundInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "customer complaint upheld",
	})

	if result.Success {
		t.Fatal("a failed resolution log write must fail the whole action")
	}
	if len(fx.notifier.sent) != 0 {
		t.Fatal("no notifications should go out when the action failed")
	}
}

func TestExecuteCancelOrderUnpaid(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusConfirmed, false, -1)
	payout := fx.seedPayout(order, enums.PayoutStatusPending)
	assignment := fx.seedAssignment(order)

	result := fx.svc.ExecuteCancelOrder(context.Background(), CancelOrderInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "garage unable to fulfil",
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.PayoutEffect != "payout_cancelled" {
		t.Fatalf("unexpected payout effect %q", result.PayoutEffect)
	}
	if order.Status != enums.OrderStatusCancelledByOps {
		t.Fatalf("order status = %s", order.Status)
	}
	if payout.Status != enums.PayoutStatusCancelled {
		t.Fatalf("payout status = %s", payout.Status)
	}
	if assignment.Status != enums.AssignmentStatusCancelled {
		t.Fatalf("assignment status = %s", assignment.Status)
	}
	if len(fx.repo.statusHistory) != 1 {
		t.Fatalf("expected 1 status history row, got %d", len(fx.repo.statusHistory))
	}
	if fx.repo.statusHistory[0].FromStatus != enums.OrderStatusConfirmed {
		t.Fatalf("history from_status = %s", fx.repo.statusHistory[0].FromStatus)
	}
	if fx.refunds.customerInput != nil {
		t.Fatal("unpaid orders must not trigger a gateway refund")
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventOrderCancelled {
		t.Fatalf("expected order cancelled event, got %+v", fx.emitter.events)
	}
	if len(fx.notifier.sent) != 3 {
		t.Fatalf("expected customer, garage, and driver notifications, got %d", len(fx.notifier.sent))
	}
}

func TestExecuteCancelOrderPaidRefundsCustomer(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusAwaitingPickup, true, -1)
	refundID := uuid.New()
	fx.refunds.customerResp = &refunds.RefundResponse{
		ID:      refundID,
		OrderID: order.ID,
		Amount:  order.TotalAmount,
	}

	result := fx.svc.ExecuteCancelOrder(context.Background(), CancelOrderInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "customer request",
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.RefundID == nil || *result.RefundID != refundID {
		t.Fatal("expected refund id on result")
	}
	if fx.refunds.customerInput == nil {
		t.Fatal("expected ProcessCustomerRefund call")
	}
	if fx.refunds.customerInput.RefundType != enums.RefundTypeOrderCancellation {
		t.Fatalf("unexpected refund type %s", fx.refunds.customerInput.RefundType)
	}
	if !fx.refunds.customerInput.Amount.Equal(order.TotalAmount) {
		t.Fatalf("expected full refund, got %s", fx.refunds.customerInput.Amount)
	}
}

func TestExecuteCancelOrderRefundFailureKeepsCancellation(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusConfirmed, true, -1)
	fx.refunds.customerResp = &refunds.RefundResponse{ID: uuid.New(), OrderID: order.ID}
	fx.refunds.customerErr = pkgerrors.New(pkgerrors.CodeDependency, "gateway unavailable")

	result := fx.svc.ExecuteCancelOrder(context.Background(), CancelOrderInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "customer request",
	})

	if !result.Success {
		t.Fatal("cancellation itself should stay committed")
	}
	if result.Err == "" {
		t.Fatal("expected the refund failure to be surfaced")
	}
	if order.Status != enums.OrderStatusCancelledByOps {
		t.Fatalf("order status = %s", order.Status)
	}
}

func TestExecuteCancelOrderReversesSentPayout(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusConfirmed, false, -1)
	payout := fx.seedPayout(order, enums.PayoutStatusConfirmed)

	result := fx.svc.ExecuteCancelOrder(context.Background(), CancelOrderInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "fraud review",
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.PayoutEffect != "reversal_created" {
		t.Fatalf("unexpected payout effect %q", result.PayoutEffect)
	}
	if payout.Status != enums.PayoutStatusConfirmed {
		t.Fatal("confirmed payout must not be mutated")
	}
	if len(fx.repo.createdPayouts) != 1 {
		t.Fatalf("expected 1 reversal row, got %d", len(fx.repo.createdPayouts))
	}
	reversal := fx.repo.createdPayouts[0]
	if reversal.PayoutType != enums.PayoutTypeReversal {
		t.Fatalf("unexpected payout type %s", reversal.PayoutType)
	}
	if !reversal.NetAmount.Equal(decimal.RequireFromString("-425.00")) {
		t.Fatalf("unexpected reversal net %s", reversal.NetAmount)
	}
}

func TestExecuteCancelOrderNotCancellable(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusInDelivery, true, -1)

	result := fx.svc.ExecuteCancelOrder(context.Background(), CancelOrderInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "too late",
	})

	if result.Success {
		t.Fatal("expected failure once the order is in delivery")
	}
	if order.Status != enums.OrderStatusInDelivery {
		t.Fatal("order status must stay untouched")
	}
	if len(fx.emitter.events) != 0 {
		t.Fatal("no event should be emitted on failure")
	}
}

func TestExecuteCancelOrderDeliveredDirectsToRefund(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusDelivered, true, 1)

	result := fx.svc.ExecuteCancelOrder(context.Background(), CancelOrderInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "customer changed mind",
	})

	if result.Success {
		t.Fatal("expected failure for a delivered order")
	}
	if !strings.Contains(result.Message, "use the full refund action instead") {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if order.Status != enums.OrderStatusDelivered {
		t.Fatal("order status must stay untouched")
	}
	if len(fx.repo.statusHistory) != 0 || len(fx.emitter.events) != 0 {
		t.Fatal("no writes or events should happen on failure")
	}
}

func TestExecuteReassignDriver(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusInDelivery, true, -1)
	assignment := fx.seedAssignment(order)

	result := fx.svc.ExecuteReassignDriver(context.Background(), ReassignDriverInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "driver unreachable",
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if assignment.Status != enums.AssignmentStatusReassignmentPending {
		t.Fatalf("assignment status = %s", assignment.Status)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventDriverReassignment {
		t.Fatalf("expected reassignment event, got %+v", fx.emitter.events)
	}
	if len(fx.notifier.sent) != 2 {
		t.Fatalf("expected driver and customer notifications, got %d", len(fx.notifier.sent))
	}
	if fx.notifier.sent[0].RecipientID == nil || *fx.notifier.sent[0].RecipientID != assignment.DriverID {
		t.Fatal("first notification should target the outgoing driver")
	}
}

func TestExecuteReassignDriverNoActiveAssignment(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusInDelivery, true, -1)

	result := fx.svc.ExecuteReassignDriver(context.Background(), ReassignDriverInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "driver unreachable",
	})

	if result.Success {
		t.Fatal("expected failure without an active assignment")
	}
	if !strings.Contains(result.Err, "no active delivery assignment") {
		t.Fatalf("unexpected error %q", result.Err)
	}
}

func TestExecuteEscalateToOpsDefaultsPriority(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusDisputed, true, 2)

	result := fx.svc.ExecuteEscalateToOps(context.Background(), EscalateInput{
		OrderID: order.ID,
		AgentID: fx.agentID,
		Reason:  "customer threatening chargeback",
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(fx.repo.escalations) != 1 {
		t.Fatalf("expected 1 escalation, got %d", len(fx.repo.escalations))
	}
	escalation := fx.repo.escalations[0]
	if escalation.Priority != enums.EscalationPriorityNormal {
		t.Fatalf("expected normal priority, got %s", escalation.Priority)
	}
	if escalation.Status != enums.EscalationStatusOpen {
		t.Fatalf("expected open status, got %s", escalation.Status)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventSupportEscalated {
		t.Fatalf("expected escalation event, got %+v", fx.emitter.events)
	}
	if len(fx.notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(fx.notifier.sent))
	}
	if fx.notifier.sent[0].RecipientID != nil {
		t.Fatal("operations alert should be a role broadcast")
	}
	if fx.notifier.sent[0].Role != enums.ActorRoleOperations {
		t.Fatalf("unexpected role %s", fx.notifier.sent[0].Role)
	}
}

func TestExecuteEscalateToOpsInvalidPriority(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusDisputed, true, 2)

	result := fx.svc.ExecuteEscalateToOps(context.Background(), EscalateInput{
		OrderID:  order.ID,
		AgentID:  fx.agentID,
		Reason:   "bad priority",
		Priority: enums.EscalationPriority("critical"),
	})

	if result.Success {
		t.Fatal("expected failure for unknown priority")
	}
	if len(fx.repo.escalations) != 0 {
		t.Fatal("no escalation row should be written")
	}
}

func TestProcessApprovedRefund(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedOrder(enums.OrderStatusCompleted, true, 3)
	refundID := uuid.New()
	gatewayID := "re_test"
	fx.refunds.approvedResp = &refunds.RefundResponse{
		ID:              refundID,
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		Amount:          order.TotalAmount,
		Currency:        order.Currency,
		GatewayRefundID: &gatewayID,
	}

	result := fx.svc.ProcessApprovedRefund(context.Background(), ApprovedRefundInput{
		RefundID: refundID,
		OrderID:  order.ID,
		AgentID:  fx.agentID,
	})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.RefundID == nil || *result.RefundID != refundID {
		t.Fatal("expected refund id on result")
	}
	if fx.refunds.approvedInput == nil || fx.refunds.approvedInput.RefundID != refundID {
		t.Fatal("expected ProcessApprovedRefund call")
	}
	if len(fx.repo.resolutionLogs) != 1 {
		t.Fatalf("expected 1 resolution log, got %d", len(fx.repo.resolutionLogs))
	}
	if len(fx.notifier.sent) != 1 || fx.notifier.sent[0].Type != enums.NotificationTypeRefundCompleted {
		t.Fatalf("expected refund completed notification, got %+v", fx.notifier.sent)
	}
}

func TestProcessApprovedRefundFailure(t *testing.T) {
	fx := newFixture(t)
	fx.refunds.approvedErr = errors.New("refund is not pending")

	result := fx.svc.ProcessApprovedRefund(context.Background(), ApprovedRefundInput{
		RefundID: uuid.New(),
		AgentID:  fx.agentID,
	})

	if result.Success {
		t.Fatal("expected failure to propagate")
	}
	if !strings.Contains(result.Err, "not pending") {
		t.Fatalf("unexpected error %q", result.Err)
	}
}

func TestActionInputValidation(t *testing.T) {
	fx := newFixture(t)

	result := fx.svc.ExecuteCancelOrder(context.Background(), CancelOrderInput{
		OrderID: uuid.New(),
		AgentID: uuid.New(),
	})
	if result.Success || !strings.Contains(result.Message, "reason") {
		t.Fatalf("expected reason validation failure, got %+v", result)
	}

	result = fx.svc.ExecuteReassignDriver(context.Background(), ReassignDriverInput{
		AgentID: uuid.New(),
		Reason:  "missing order",
	})
	if result.Success || !strings.Contains(result.Message, "order id") {
		t.Fatalf("expected order id validation failure, got %+v", result)
	}
}
