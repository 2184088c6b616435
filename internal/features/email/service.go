package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"go-opsdesk/internal/features/settings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type EmailService interface {
	SendEmail(ctx context.Context, workspaceID primitive.ObjectID, to []string, subject, body string) error
}

type EmailServiceImpl struct {
	SettingsService settings.SettingsService
	Repo            *EmailRepository
	Logger          *zap.Logger
}

func NewEmailService(settingsService settings.SettingsService, repo *EmailRepository, logger *zap.Logger) EmailService {
	return &EmailServiceImpl{
		SettingsService: settingsService,
		Repo:            repo,
		Logger:          logger,
	}
}

func (s *EmailServiceImpl) SendEmail(ctx context.Context, workspaceID primitive.ObjectID, to []string, subject, body string) error {
	config, err := s.SettingsService.GetEmailConfig(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to fetch email config: %w", err)
	}
	if config == nil {
		return errors.New("email provider not configured")
	}
	if config.SMTPHost == "" || config.SMTPPort == 0 {
		return errors.New("invalid email configuration: missing host or port")
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	auth := smtp.PlainAuth("", config.SMTPUser, config.SMTPPassword, config.SMTPHost)
	addr := fmt.Sprintf("%s:%d", config.SMTPHost, config.SMTPPort)
	from := config.FromEmail
	if from == "" {
		from = config.SMTPUser
	}

	emailRecord := &Email{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		From:        from,
		To:          to,
		Subject:     subject,
		HtmlBody:    body,
		Status:      EmailQueued,
	}
	if s.Repo != nil {
		_ = s.Repo.Create(ctx, emailRecord)
	}

	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", to[0], subject, body))

	s.Logger.Debug("sending email",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.Strings("to", to),
		zap.String("smtp_addr", addr),
	)
	err = smtp.SendMail(addr, auth, from, to, msg)

	status := EmailSent
	errMsg := ""
	if err != nil {
		status = EmailFailed
		errMsg = err.Error()
	}
	if s.Repo != nil {
		_ = s.Repo.UpdateStatus(ctx, emailRecord.ID, status, errMsg)
	}

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
