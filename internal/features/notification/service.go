package notification

import (
	"context"
	"fmt"

	"go-opsdesk/internal/features/email"
	"go-opsdesk/internal/features/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Gateway is the capability surface the automation dispatcher sends through.
// Every call reports a Result instead of an error: a missing provider config
// or a provider-side failure must never bubble up as an exception.
type Gateway interface {
	SendEmail(ctx context.Context, workspaceID primitive.ObjectID, to, subject, html string) Result
	SendSMS(ctx context.Context, workspaceID primitive.ObjectID, to, body string) Result
	CreateAlert(ctx context.Context, workspaceID primitive.ObjectID, kind AlertKind, message, reference string) Result
}

// Broadcaster pushes a message to live subscribers of a workspace. Implemented
// by the websocket hub; a nil broadcaster is tolerated.
type Broadcaster interface {
	Broadcast(workspaceID string, message interface{})
}

type NotificationService interface {
	Gateway
	ListAlerts(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]Alert, int64, error)
	UnreadCount(ctx context.Context, workspaceID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, workspaceID primitive.ObjectID, id string) error
}

type NotificationServiceImpl struct {
	AlertRepo    AlertRepository
	EmailService email.EmailService
	SMSService   sms.SMSService
	Broadcaster  Broadcaster
	Logger       *zap.Logger
}

func NewNotificationService(
	alertRepo AlertRepository,
	emailService email.EmailService,
	smsService sms.SMSService,
	broadcaster Broadcaster,
	logger *zap.Logger,
) NotificationService {
	return &NotificationServiceImpl{
		AlertRepo:    alertRepo,
		EmailService: emailService,
		SMSService:   smsService,
		Broadcaster:  broadcaster,
		Logger:       logger,
	}
}

func (s *NotificationServiceImpl) SendEmail(ctx context.Context, workspaceID primitive.ObjectID, to, subject, html string) Result {
	if to == "" {
		return Fail(fmt.Errorf("no recipient address"))
	}
	if err := s.EmailService.SendEmail(ctx, workspaceID, []string{to}, subject, html); err != nil {
		s.Logger.Warn("email dispatch failed",
			zap.String("workspace_id", workspaceID.Hex()),
			zap.Error(err),
		)
		return Fail(err)
	}
	return Ok()
}

func (s *NotificationServiceImpl) SendSMS(ctx context.Context, workspaceID primitive.ObjectID, to, body string) Result {
	if to == "" {
		return Fail(fmt.Errorf("no recipient number"))
	}
	if err := s.SMSService.SendSMS(ctx, workspaceID, to, body); err != nil {
		s.Logger.Warn("sms dispatch failed",
			zap.String("workspace_id", workspaceID.Hex()),
			zap.Error(err),
		)
		return Fail(err)
	}
	return Ok()
}

func (s *NotificationServiceImpl) CreateAlert(ctx context.Context, workspaceID primitive.ObjectID, kind AlertKind, message, reference string) Result {
	alert := &Alert{
		WorkspaceID: workspaceID,
		Kind:        kind,
		Message:     message,
		Reference:   reference,
	}
	if err := s.AlertRepo.Create(ctx, alert); err != nil {
		s.Logger.Warn("alert creation failed",
			zap.String("workspace_id", workspaceID.Hex()),
			zap.Error(err),
		)
		return Fail(err)
	}

	if s.Broadcaster != nil {
		s.Broadcaster.Broadcast(workspaceID.Hex(), alert)
	}
	return Ok()
}

func (s *NotificationServiceImpl) ListAlerts(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]Alert, int64, error) {
	return s.AlertRepo.ListByWorkspace(ctx, workspaceID, page, limit)
}

func (s *NotificationServiceImpl) UnreadCount(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	return s.AlertRepo.UnreadCount(ctx, workspaceID)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, workspaceID primitive.ObjectID, id string) error {
	return s.AlertRepo.MarkAsRead(ctx, workspaceID, id)
}
