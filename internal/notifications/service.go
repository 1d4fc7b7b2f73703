package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/logger"
	"github.com/garagio/garagio-backend/pkg/outbox"
	"github.com/garagio/garagio-backend/pkg/outbox/payloads"
	"github.com/garagio/garagio-backend/pkg/pagination"
)

// Input describes a notification to persist and hand off for delivery.
// RecipientID nil broadcasts to every member of Role.
type Input struct {
	RecipientID *uuid.UUID
	Role        enums.ActorRole
	Type        enums.NotificationType
	Title       string
	Message     string
	Data        any
}

// Notifier is the fire-and-forget surface other services depend on. Callers
// invoke Send after their own transaction commits and only log failures.
type Notifier interface {
	Send(ctx context.Context, input Input) error
}

// Service exposes notification reads plus the Notifier surface.
type Service interface {
	Notifier
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the notifications service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("notifications repository is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if outboxSvc == nil {
		return nil, errors.New("outbox publisher is required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// ListParams filter a recipient's notification feed.
type ListParams struct {
	RecipientID uuid.UUID
	Role        enums.ActorRole
	Limit       int
	Cursor      string
	UnreadOnly  bool
}

// ListResult is one page of notifications plus the next cursor.
type ListResult struct {
	Notifications []models.Notification
	NextCursor    string
}

func (s *service) Send(ctx context.Context, input Input) error {
	if !input.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient role is invalid")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification type is invalid")
	}
	if input.Title == "" || input.Message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification title and message are required")
	}

	var data json.RawMessage
	if input.Data != nil {
		encoded, err := json.Marshal(input.Data)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding notification data")
		}
		data = encoded
	}

	notification := &models.Notification{
		RecipientID:   input.RecipientID,
		RecipientRole: input.Role,
		Type:          input.Type,
		Title:         input.Title,
		Message:       input.Message,
		Data:          data,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating notification")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   notification.ID,
			Data: payloads.NotificationRequestedEvent{
				NotificationID: notification.ID,
				RecipientID:    notification.RecipientID,
				RecipientRole:  notification.RecipientRole,
				Type:           notification.Type,
				Title:          notification.Title,
				Message:        notification.Message,
			},
			Version:    1,
			OccurredAt: s.now(),
		})
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"notification_id": notification.ID.String(),
			"type":            notification.Type,
			"recipient_role":  notification.RecipientRole,
		})
		s.logg.Info(logCtx, "notification queued")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id is required")
	}
	if !params.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient role is invalid")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	notifications, next, err := s.repo.List(ctx, listNotificationsParams{
		RecipientID: params.RecipientID,
		Role:        params.Role,
		Limit:       params.Limit,
		Cursor:      cursor,
		UnreadOnly:  params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing notifications")
	}

	result := &ListResult{Notifications: notifications}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if recipientID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id and notification id are required")
	}

	mark, err := s.repo.MarkRead(ctx, recipientID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking notification read")
	}
	if !mark.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id is required")
	}

	updated, err := s.repo.MarkAllRead(ctx, recipientID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking notifications read")
	}
	return updated, nil
}
