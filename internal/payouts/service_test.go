package payouts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagio/garagio-backend/internal/notifications"
	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/outbox"
	"github.com/garagio/garagio-backend/pkg/pagination"
)

type fakeRepo struct {
	payouts  map[uuid.UUID]*models.GaragePayout
	orders   map[uuid.UUID]*models.Order
	disputes map[uuid.UUID]*models.PayoutDispute
	audits   []models.AdminAuditLog

	updates map[uuid.UUID]map[string]any
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payouts:  map[uuid.UUID]*models.GaragePayout{},
		orders:   map[uuid.UUID]*models.Order{},
		disputes: map[uuid.UUID]*models.PayoutDispute{},
		updates:  map[uuid.UUID]map[string]any{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, payout *models.GaragePayout) error {
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	f.payouts[payout.ID] = payout
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.GaragePayout, error) {
	payout, ok := f.payouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *payout
	return &clone, nil
}

func (f *fakeRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.GaragePayout, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeRepo) FindStandardByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.GaragePayout, error) {
	for _, payout := range f.payouts {
		if payout.OrderID == orderID && payout.PayoutType == enums.PayoutTypeStandard {
			clone := *payout
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	payout, ok := f.payouts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.updates[id] = updates
	if status, ok := updates["status"].(enums.PayoutStatus); ok {
		payout.Status = status
	}
	if note, ok := updates["notes"].(string); ok {
		payout.Notes = &note
	}
	return nil
}

func (f *fakeRepo) List(ctx context.Context, params listPayoutsParams) ([]models.GaragePayout, *pagination.Cursor, error) {
	var out []models.GaragePayout
	for _, payout := range f.payouts {
		if params.GarageID != nil && payout.GarageID != *params.GarageID {
			continue
		}
		if params.Status != nil && payout.Status != *params.Status {
			continue
		}
		out = append(out, *payout)
	}
	return out, nil, nil
}

func (f *fakeRepo) ListAwaitingOlderThanForUpdate(ctx context.Context, cutoff time.Time) ([]models.GaragePayout, error) {
	var out []models.GaragePayout
	for _, payout := range f.payouts {
		if payout.Status == enums.PayoutStatusAwaitingConfirmation && payout.SentAt != nil && payout.SentAt.Before(cutoff) {
			out = append(out, *payout)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAwaitingByGarage(ctx context.Context, garageID uuid.UUID) ([]models.GaragePayout, error) {
	var out []models.GaragePayout
	for _, payout := range f.payouts {
		if payout.GarageID == garageID && payout.Status == enums.PayoutStatusAwaitingConfirmation {
			out = append(out, *payout)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAwaitingByGarageForUpdate(ctx context.Context, garageID uuid.UUID) ([]models.GaragePayout, error) {
	return f.ListAwaitingByGarage(ctx, garageID)
}

func (f *fakeRepo) ListPendingWithBlockingDisputeForUpdate(ctx context.Context) ([]models.GaragePayout, error) {
	var out []models.GaragePayout
	for _, payout := range f.payouts {
		if payout.Status != enums.PayoutStatusPending {
			continue
		}
		for _, dispute := range f.disputes {
			if dispute.PayoutID == payout.ID && dispute.Status.IsBlocking() {
				out = append(out, *payout)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) ListHeldByReasonForUpdate(ctx context.Context, reason string) ([]models.GaragePayout, error) {
	var out []models.GaragePayout
	for _, payout := range f.payouts {
		if payout.Status == enums.PayoutStatusHeld && payout.HoldReason != nil && *payout.HoldReason == reason {
			out = append(out, *payout)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListOrdersAwaitingScheduleForUpdate(ctx context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.Status != enums.OrderStatusCompleted || order.PaymentStatus != enums.PaymentStatusPaid {
			continue
		}
		scheduled := false
		for _, payout := range f.payouts {
			if payout.OrderID == order.ID && payout.PayoutType == enums.PayoutTypeStandard {
				scheduled = true
				break
			}
		}
		if !scheduled {
			out = append(out, *order)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) SummaryByGarage(ctx context.Context, garageID uuid.UUID) ([]payoutStatusAggregate, error) {
	totals := map[enums.PayoutStatus]*payoutStatusAggregate{}
	for _, payout := range f.payouts {
		if payout.GarageID != garageID {
			continue
		}
		agg, ok := totals[payout.Status]
		if !ok {
			agg = &payoutStatusAggregate{Status: payout.Status, Total: decimal.Zero}
			totals[payout.Status] = agg
		}
		agg.Count++
		agg.Total = agg.Total.Add(payout.NetAmount)
	}
	var out []payoutStatusAggregate
	for _, agg := range totals {
		out = append(out, *agg)
	}
	return out, nil
}

func (f *fakeRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeRepo) CreateDispute(ctx context.Context, dispute *models.PayoutDispute) error {
	if dispute.ID == uuid.Nil {
		dispute.ID = uuid.New()
	}
	f.disputes[dispute.ID] = dispute
	return nil
}

func (f *fakeRepo) FindDisputeByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutDispute, error) {
	dispute, ok := f.disputes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *dispute
	return &clone, nil
}

func (f *fakeRepo) FindBlockingDisputeByPayout(ctx context.Context, payoutID uuid.UUID) (*models.PayoutDispute, error) {
	for _, dispute := range f.disputes {
		if dispute.PayoutID == payoutID && dispute.Status.IsBlocking() {
			clone := *dispute
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) UpdateDispute(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	dispute, ok := f.disputes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.DisputeStatus); ok {
		dispute.Status = status
	}
	if resolution, ok := updates["resolution"].(enums.DisputeResolution); ok {
		dispute.Resolution = &resolution
	}
	return nil
}

func (f *fakeRepo) CreateAuditLog(ctx context.Context, entry *models.AdminAuditLog) error {
	f.audits = append(f.audits, *entry)
	return nil
}

type fakeTx struct {
	serializableCalls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func (f *fakeTx) WithSerializableTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.serializableCalls++
	return fn(&gorm.DB{})
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

type payoutFixture struct {
	repo     *fakeRepo
	tx       *fakeTx
	emitter  *fakeEmitter
	notifier *fakeNotifier
	svc      Service
	now      time.Time
}

func newFixture(t *testing.T) *payoutFixture {
	t.Helper()
	repo := newFakeRepo()
	tx := &fakeTx{}
	emitter := &fakeEmitter{}
	notifier := &fakeNotifier{}
	svc, err := NewService(repo, tx, emitter, notifier, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return now }
	return &payoutFixture{repo: repo, tx: tx, emitter: emitter, notifier: notifier, svc: svc, now: now}
}

func (fx *payoutFixture) seedPayout(status enums.PayoutStatus) *models.GaragePayout {
	payout := &models.GaragePayout{
		ID:               uuid.New(),
		OrderID:          uuid.New(),
		GarageID:         uuid.New(),
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

func (fx *payoutFixture) seedPaidOrder(payout *models.GaragePayout, completedDaysAgo int) *models.Order {
	completed := fx.now.AddDate(0, 0, -completedDaysAgo)
	order := &models.Order{
		ID:            payout.OrderID,
		CustomerID:    uuid.New(),
		GarageID:      payout.GarageID,
		Status:        enums.OrderStatusCompleted,
		PaymentStatus: enums.PaymentStatusPaid,
		TotalAmount:   decimal.RequireFromString("500.00"),
		Currency:      enums.CurrencyQAR,
		CompletedAt:   &completed,
	}
	fx.repo.orders[order.ID] = order
	return order
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestSendPayment(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusPending)
	fx.seedPaidOrder(payout, 8)

	got, err := fx.svc.SendPayment(context.Background(), SendPaymentInput{
		PayoutID:         payout.ID,
		ActorID:          uuid.New(),
		PaymentReference: "BANKREF-1",
	})
	if err != nil {
		t.Fatalf("SendPayment error: %v", err)
	}
	if got.Status != enums.PayoutStatusAwaitingConfirmation {
		t.Fatalf("expected awaiting_confirmation, got %s", got.Status)
	}
	if got.SentAt == nil || !got.SentAt.Equal(fx.now) {
		t.Fatalf("expected sent_at %v, got %v", fx.now, got.SentAt)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventPayoutSent {
		t.Fatalf("expected payout_sent event, got %+v", fx.emitter.events)
	}
	if len(fx.notifier.sent) != 1 {
		t.Fatalf("expected garage notification, got %d", len(fx.notifier.sent))
	}
	note := fx.notifier.sent[0]
	if note.RecipientID == nil || *note.RecipientID != payout.GarageID {
		t.Fatalf("notification should target garage, got %+v", note)
	}
}

func TestSendPaymentBlockedByDispute(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusPending)
	fx.seedPaidOrder(payout, 8)
	fx.repo.disputes[uuid.New()] = &models.PayoutDispute{
		ID:       uuid.New(),
		PayoutID: payout.ID,
		GarageID: payout.GarageID,
		Status:   enums.DisputeStatusUnderReview,
	}

	_, err := fx.svc.SendPayment(context.Background(), SendPaymentInput{PayoutID: payout.ID, ActorID: uuid.New()})
	expectCode(t, err, pkgerrors.CodeStateConflict)
	if len(fx.emitter.events) != 0 {
		t.Fatal("no event should be emitted when blocked")
	}
}

func TestSendPaymentWarrantyStillOpen(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusPending)
	fx.seedPaidOrder(payout, 3)

	_, err := fx.svc.SendPayment(context.Background(), SendPaymentInput{PayoutID: payout.ID, ActorID: uuid.New()})
	expectCode(t, err, pkgerrors.CodeStateConflict)

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", pkgerrors.As(err).Details())
	}
	if days, ok := details["days_remaining"].(int); !ok || days != 4 {
		t.Fatalf("expected 4 days remaining, got %v", details["days_remaining"])
	}
}

func TestSendPaymentUnpaidOrder(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusPending)
	order := fx.seedPaidOrder(payout, 8)
	order.PaymentStatus = enums.PaymentStatusUnpaid

	_, err := fx.svc.SendPayment(context.Background(), SendPaymentInput{PayoutID: payout.ID, ActorID: uuid.New()})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSendPaymentInvalidStatus(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusCompleted)
	fx.seedPaidOrder(payout, 8)

	_, err := fx.svc.SendPayment(context.Background(), SendPaymentInput{PayoutID: payout.ID, ActorID: uuid.New()})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestConfirmPayment(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)

	got, err := fx.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		PayoutID: payout.ID,
		GarageID: payout.GarageID,
	})
	if err != nil {
		t.Fatalf("ConfirmPayment error: %v", err)
	}
	if got.Status != enums.PayoutStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", got.Status)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventPayoutConfirmed {
		t.Fatalf("expected payout_confirmed event, got %+v", fx.emitter.events)
	}
	if len(fx.notifier.sent) != 1 || fx.notifier.sent[0].RecipientID != nil {
		t.Fatalf("expected operations broadcast, got %+v", fx.notifier.sent)
	}
}

func TestConfirmPaymentWrongGarage(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)

	_, err := fx.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		PayoutID: payout.ID,
		GarageID: uuid.New(),
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestConfirmAllPayouts(t *testing.T) {
	fx := newFixture(t)
	garageID := uuid.New()

	first := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)
	first.GarageID = garageID
	second := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)
	second.GarageID = garageID
	pending := fx.seedPayout(enums.PayoutStatusPending)
	pending.GarageID = garageID
	other := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)

	result, err := fx.svc.ConfirmAllPayouts(context.Background(), ConfirmAllInput{GarageID: garageID})
	if err != nil {
		t.Fatalf("ConfirmAllPayouts error: %v", err)
	}
	if result.ConfirmedCount != 2 {
		t.Fatalf("expected 2 confirmations, got %d", result.ConfirmedCount)
	}
	if !result.TotalAmount.Equal(decimal.RequireFromString("850.00")) {
		t.Fatalf("expected total 850.00, got %s", result.TotalAmount)
	}
	if fx.tx.serializableCalls != 1 {
		t.Fatal("bulk confirm must run in a serializable transaction")
	}
	if fx.repo.payouts[first.ID].Status != enums.PayoutStatusConfirmed ||
		fx.repo.payouts[second.ID].Status != enums.PayoutStatusConfirmed {
		t.Fatal("both awaiting payouts should be confirmed")
	}
	if note := fx.repo.payouts[first.ID].Notes; note == nil || *note != bulkConfirmNote {
		t.Fatalf("expected bulk confirmation note, got %v", note)
	}
	if fx.repo.payouts[pending.ID].Status != enums.PayoutStatusPending {
		t.Fatal("pending payout must not be confirmed")
	}
	if fx.repo.payouts[other.ID].Status != enums.PayoutStatusAwaitingConfirmation {
		t.Fatal("another garage's payout must stay untouched")
	}
	if len(fx.emitter.events) != 2 {
		t.Fatalf("expected 2 confirmation events, got %d", len(fx.emitter.events))
	}
	for _, event := range fx.emitter.events {
		if event.EventType != enums.EventPayoutConfirmed {
			t.Fatalf("expected payout_confirmed event, got %s", event.EventType)
		}
	}
	if len(fx.notifier.sent) != 1 {
		t.Fatalf("expected a single summary notification, got %d", len(fx.notifier.sent))
	}
	note := fx.notifier.sent[0]
	if note.RecipientID == nil || *note.RecipientID != garageID {
		t.Fatalf("notification should target the garage, got %+v", note)
	}
	if !strings.Contains(note.Message, "2 payouts") || !strings.Contains(note.Message, "850.00") {
		t.Fatalf("notification should summarize the batch, got %q", note.Message)
	}
}

func TestConfirmAllPayoutsNothingAwaiting(t *testing.T) {
	fx := newFixture(t)
	garageID := uuid.New()
	pending := fx.seedPayout(enums.PayoutStatusPending)
	pending.GarageID = garageID

	result, err := fx.svc.ConfirmAllPayouts(context.Background(), ConfirmAllInput{GarageID: garageID})
	if err != nil {
		t.Fatalf("ConfirmAllPayouts error: %v", err)
	}
	if result.ConfirmedCount != 0 || !result.TotalAmount.IsZero() {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if len(fx.notifier.sent) != 0 {
		t.Fatal("no notification should be sent for an empty batch")
	}
	if len(fx.emitter.events) != 0 {
		t.Fatal("no event should be emitted for an empty batch")
	}
}

func TestDisputePayment(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)

	got, err := fx.svc.DisputePayment(context.Background(), DisputePaymentInput{
		PayoutID: payout.ID,
		GarageID: payout.GarageID,
		Reason:   "amount does not match invoice",
	})
	if err != nil {
		t.Fatalf("DisputePayment error: %v", err)
	}
	if got.Status != enums.DisputeStatusPending {
		t.Fatalf("expected pending dispute, got %s", got.Status)
	}
	if fx.repo.payouts[payout.ID].Status != enums.PayoutStatusDisputed {
		t.Fatalf("payout should be disputed, got %s", fx.repo.payouts[payout.ID].Status)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventPayoutDisputed {
		t.Fatalf("expected payout_disputed event, got %+v", fx.emitter.events)
	}
}

func TestDisputePaymentAlreadyOpen(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusDisputed)
	fx.repo.disputes[uuid.New()] = &models.PayoutDispute{
		ID:       uuid.New(),
		PayoutID: payout.ID,
		Status:   enums.DisputeStatusPending,
	}

	_, err := fx.svc.DisputePayment(context.Background(), DisputePaymentInput{
		PayoutID: payout.ID,
		GarageID: payout.GarageID,
		Reason:   "still wrong",
	})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestResolveDisputeResend(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusDisputed)
	dispute := &models.PayoutDispute{
		ID:       uuid.New(),
		PayoutID: payout.ID,
		GarageID: payout.GarageID,
		Status:   enums.DisputeStatusPending,
	}
	fx.repo.disputes[dispute.ID] = dispute

	newAmount := decimal.RequireFromString("450.00")
	got, err := fx.svc.ResolveDispute(context.Background(), ResolveDisputeInput{
		DisputeID:  dispute.ID,
		ResolverID: uuid.New(),
		Resolution: enums.DisputeResolutionReSent,
		NewAmount:  &newAmount,
		Note:       "corrected commission",
	})
	if err != nil {
		t.Fatalf("ResolveDispute error: %v", err)
	}
	if got.Status != enums.PayoutStatusAwaitingConfirmation {
		t.Fatalf("expected awaiting_confirmation, got %s", got.Status)
	}
	if !got.NetAmount.Equal(newAmount) {
		t.Fatalf("expected corrected amount %s, got %s", newAmount, got.NetAmount)
	}
	if fx.repo.disputes[dispute.ID].Status != enums.DisputeStatusResolved {
		t.Fatalf("dispute should be resolved, got %s", fx.repo.disputes[dispute.ID].Status)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventPayoutDisputeResolved {
		t.Fatalf("expected dispute_resolved event, got %+v", fx.emitter.events)
	}
}

func TestResolveDisputeCancelled(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusDisputed)
	dispute := &models.PayoutDispute{
		ID:       uuid.New(),
		PayoutID: payout.ID,
		Status:   enums.DisputeStatusUnderReview,
	}
	fx.repo.disputes[dispute.ID] = dispute

	got, err := fx.svc.ResolveDispute(context.Background(), ResolveDisputeInput{
		DisputeID:  dispute.ID,
		ResolverID: uuid.New(),
		Resolution: enums.DisputeResolutionCancelled,
	})
	if err != nil {
		t.Fatalf("ResolveDispute error: %v", err)
	}
	if got.Status != enums.PayoutStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestResolveDisputeAlreadySettled(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusConfirmed)
	dispute := &models.PayoutDispute{
		ID:       uuid.New(),
		PayoutID: payout.ID,
		Status:   enums.DisputeStatusResolved,
	}
	fx.repo.disputes[dispute.ID] = dispute

	_, err := fx.svc.ResolveDispute(context.Background(), ResolveDisputeInput{
		DisputeID:  dispute.ID,
		ResolverID: uuid.New(),
		Resolution: enums.DisputeResolutionConfirmed,
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAutoConfirmDue(t *testing.T) {
	fx := newFixture(t)

	due := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)
	sentLongAgo := fx.now.AddDate(0, 0, -8)
	due.SentAt = &sentLongAgo

	fresh := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)
	sentRecently := fx.now.AddDate(0, 0, -2)
	fresh.SentAt = &sentRecently

	count, err := fx.svc.AutoConfirmDue(context.Background(), AutoConfirmInput{})
	if err != nil {
		t.Fatalf("AutoConfirmDue error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 confirmation, got %d", count)
	}
	if fx.tx.serializableCalls != 1 {
		t.Fatal("sweep must run in a serializable transaction")
	}
	if fx.repo.payouts[due.ID].Status != enums.PayoutStatusConfirmed {
		t.Fatalf("due payout should be confirmed, got %s", fx.repo.payouts[due.ID].Status)
	}
	if fx.repo.payouts[fresh.ID].Status != enums.PayoutStatusAwaitingConfirmation {
		t.Fatal("recent payout must stay awaiting confirmation")
	}
	if note := fx.repo.payouts[due.ID].Notes; note == nil || *note != autoConfirmNote {
		t.Fatalf("expected auto-confirm note, got %v", note)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventPayoutAutoConfirmed {
		t.Fatalf("expected payout_auto_confirmed event, got %+v", fx.emitter.events)
	}

	// A second sweep finds nothing left to confirm.
	again, err := fx.svc.AutoConfirmDue(context.Background(), AutoConfirmInput{})
	if err != nil {
		t.Fatalf("second AutoConfirmDue error: %v", err)
	}
	if again != 0 {
		t.Fatalf("second sweep must confirm nothing, got %d", again)
	}
	if len(fx.emitter.events) != 1 {
		t.Fatalf("second sweep must not emit events, got %d", len(fx.emitter.events))
	}
}

func TestHoldReleasePayout(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusPending)
	actor := uuid.New()

	if _, err := fx.svc.HoldPayout(context.Background(), HoldPayoutInput{PayoutID: payout.ID, ActorID: actor}); err == nil {
		t.Fatal("hold without reason must fail")
	}

	held, err := fx.svc.HoldPayout(context.Background(), HoldPayoutInput{
		PayoutID: payout.ID,
		ActorID:  actor,
		Reason:   "chargeback review",
	})
	if err != nil {
		t.Fatalf("HoldPayout error: %v", err)
	}
	if held.Status != enums.PayoutStatusHeld {
		t.Fatalf("expected held, got %s", held.Status)
	}

	released, err := fx.svc.ReleasePayout(context.Background(), AdminActionInput{PayoutID: payout.ID, ActorID: actor})
	if err != nil {
		t.Fatalf("ReleasePayout error: %v", err)
	}
	if released.Status != enums.PayoutStatusPending {
		t.Fatalf("expected pending after release, got %s", released.Status)
	}

	if len(fx.repo.audits) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(fx.repo.audits))
	}
	if fx.repo.audits[0].Action != enums.AdminPayoutActionHold || fx.repo.audits[1].Action != enums.AdminPayoutActionRelease {
		t.Fatalf("unexpected audit actions: %+v", fx.repo.audits)
	}
}

func TestForceProcessPayout(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusHeld)

	got, err := fx.svc.ForceProcessPayout(context.Background(), ForceProcessInput{
		PayoutID: payout.ID,
		ActorID:  uuid.New(),
		Reason:   "garage unreachable, settled via bank transfer",
	})
	if err != nil {
		t.Fatalf("ForceProcessPayout error: %v", err)
	}
	if got.Status != enums.PayoutStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(fx.now) {
		t.Fatalf("expected completed_at %v, got %v", fx.now, got.CompletedAt)
	}
	if got.Notes == nil || !strings.Contains(*got.Notes, "garage unreachable") {
		t.Fatalf("expected the override reason on the row, got %v", got.Notes)
	}
	if len(fx.repo.audits) != 1 || fx.repo.audits[0].Action != enums.AdminPayoutActionForceProcess {
		t.Fatalf("expected force_process audit entry, got %+v", fx.repo.audits)
	}
	if !strings.Contains(string(fx.repo.audits[0].Detail), "garage unreachable") {
		t.Fatalf("audit detail should carry the reason, got %s", fx.repo.audits[0].Detail)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventPayoutCompleted {
		t.Fatalf("expected payout_completed event, got %+v", fx.emitter.events)
	}
}

func TestForceProcessRequiresReason(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusHeld)

	_, err := fx.svc.ForceProcessPayout(context.Background(), ForceProcessInput{
		PayoutID: payout.ID,
		ActorID:  uuid.New(),
	})
	expectCode(t, err, pkgerrors.CodeValidation)
	if fx.repo.payouts[payout.ID].Status != enums.PayoutStatusHeld {
		t.Fatal("payout must stay untouched without a reason")
	}
}

func TestForceProcessTerminalPayout(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusCancelled)

	_, err := fx.svc.ForceProcessPayout(context.Background(), ForceProcessInput{
		PayoutID: payout.ID,
		ActorID:  uuid.New(),
		Reason:   "should not matter",
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSendReminder(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)

	got, err := fx.svc.SendReminder(context.Background(), SendReminderInput{
		PayoutID: payout.ID,
		ActorID:  uuid.New(),
	})
	if err != nil {
		t.Fatalf("SendReminder error: %v", err)
	}
	if got.Status != enums.PayoutStatusAwaitingConfirmation {
		t.Fatalf("reminder must not change status, got %s", got.Status)
	}
	if len(fx.repo.updates) != 0 {
		t.Fatalf("reminder must not write the payout row, got %+v", fx.repo.updates)
	}
	if len(fx.emitter.events) != 0 {
		t.Fatal("reminder must not emit events")
	}
	if len(fx.notifier.sent) != 1 {
		t.Fatalf("expected 1 reminder notification, got %d", len(fx.notifier.sent))
	}
	note := fx.notifier.sent[0]
	if note.RecipientID == nil || *note.RecipientID != payout.GarageID {
		t.Fatalf("reminder should target the garage, got %+v", note)
	}
	if !strings.Contains(note.Message, "awaiting your confirmation") {
		t.Fatalf("unexpected reminder message %q", note.Message)
	}
}

func TestSendReminderNotAwaiting(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusConfirmed)

	_, err := fx.svc.SendReminder(context.Background(), SendReminderInput{
		PayoutID: payout.ID,
		ActorID:  uuid.New(),
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
	if len(fx.notifier.sent) != 0 {
		t.Fatal("no reminder should be sent outside awaiting_confirmation")
	}
}

func TestProcessPayout(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusConfirmed)

	got, err := fx.svc.ProcessPayout(context.Background(), ProcessPayoutInput{
		PayoutID:         payout.ID,
		ActorID:          uuid.New(),
		PaymentReference: "FINAL-REF",
	})
	if err != nil {
		t.Fatalf("ProcessPayout error: %v", err)
	}
	if got.Status != enums.PayoutStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventPayoutCompleted {
		t.Fatalf("expected payout_completed event, got %+v", fx.emitter.events)
	}
}

func TestProcessPayoutNotConfirmed(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusPending)

	_, err := fx.svc.ProcessPayout(context.Background(), ProcessPayoutInput{
		PayoutID: payout.ID,
		ActorID:  uuid.New(),
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSummary(t *testing.T) {
	fx := newFixture(t)
	garageID := uuid.New()
	for _, status := range []enums.PayoutStatus{
		enums.PayoutStatusPending,
		enums.PayoutStatusHeld,
		enums.PayoutStatusAwaitingConfirmation,
		enums.PayoutStatusCompleted,
	} {
		payout := fx.seedPayout(status)
		payout.GarageID = garageID
	}

	summary, err := fx.svc.Summary(context.Background(), garageID)
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if summary.PendingCount != 2 {
		t.Fatalf("expected pending count 2 (pending+held), got %d", summary.PendingCount)
	}
	if !summary.PendingTotal.Equal(decimal.RequireFromString("850.00")) {
		t.Fatalf("unexpected pending total %s", summary.PendingTotal)
	}
	if summary.AwaitingCount != 1 || summary.CompletedCount != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestAwaitingConfirmationDaysRemaining(t *testing.T) {
	fx := newFixture(t)
	payout := fx.seedPayout(enums.PayoutStatusAwaitingConfirmation)
	sent := fx.now.AddDate(0, 0, -5)
	payout.SentAt = &sent

	out, err := fx.svc.AwaitingConfirmation(context.Background(), payout.GarageID)
	if err != nil {
		t.Fatalf("AwaitingConfirmation error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 payout, got %d", len(out))
	}
	if out[0].DaysUntilAutoConfirm != 2 {
		t.Fatalf("expected 2 days until auto-confirm, got %d", out[0].DaysUntilAutoConfirm)
	}
}
