package payouts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagio/garagio-backend/internal/notifications"
	"github.com/garagio/garagio-backend/pkg/logger"
	"github.com/garagio/garagio-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithSerializableTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service covers the payout lifecycle, admin operations, and read side.
type Service interface {
	// Lifecycle.
	SendPayment(ctx context.Context, input SendPaymentInput) (*PayoutResponse, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*PayoutResponse, error)
	ConfirmAllPayouts(ctx context.Context, input ConfirmAllInput) (*BulkConfirmResult, error)
	DisputePayment(ctx context.Context, input DisputePaymentInput) (*DisputeResponse, error)
	ResolveDispute(ctx context.Context, input ResolveDisputeInput) (*PayoutResponse, error)
	AutoConfirmDue(ctx context.Context, input AutoConfirmInput) (int, error)

	// Scheduling sweeps.
	SchedulePayouts(ctx context.Context, input SchedulePayoutsInput) (int, error)
	SweepDisputeHolds(ctx context.Context) (SweepResult, error)

	// Admin.
	HoldPayout(ctx context.Context, input HoldPayoutInput) (*PayoutResponse, error)
	ReleasePayout(ctx context.Context, input AdminActionInput) (*PayoutResponse, error)
	ForceProcessPayout(ctx context.Context, input ForceProcessInput) (*PayoutResponse, error)
	ProcessPayout(ctx context.Context, input ProcessPayoutInput) (*PayoutResponse, error)
	SendReminder(ctx context.Context, input SendReminderInput) (*PayoutResponse, error)

	// Queries.
	GetPayout(ctx context.Context, payoutID uuid.UUID) (*PayoutResponse, error)
	ListPayouts(ctx context.Context, params ListPayoutsParams) (*ListPayoutsResult, error)
	Summary(ctx context.Context, garageID uuid.UUID) (*PayoutSummary, error)
	AwaitingConfirmation(ctx context.Context, garageID uuid.UUID) ([]AwaitingPayout, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier notifications.Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the payout service with its persistence and side-effect deps.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, notifier notifications.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("payouts repository required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, errors.New("outbox publisher required")
	}
	if notifier == nil {
		return nil, errors.New("notifier required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// notify delivers queued notifications after the owning transaction commits.
// Delivery failures are logged, never returned.
func (s *service) notify(ctx context.Context, inputs []notifications.Input) {
	for _, input := range inputs {
		if err := s.notifier.Send(ctx, input); err != nil && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"notification_type": input.Type,
				"recipient_role":    input.Role,
			})
			s.logg.Error(logCtx, "notification send failed", err)
		}
	}
}

func (s *service) log(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}
