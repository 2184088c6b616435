package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-opsdesk/internal/features/settings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SMSService posts messages to a workspace's configured SMS provider over its
// HTTP API. The provider itself is an external collaborator; this is the
// narrow client the engine depends on.
type SMSService interface {
	SendSMS(ctx context.Context, workspaceID primitive.ObjectID, to, body string) error
}

type SMSServiceImpl struct {
	SettingsService settings.SettingsService
	HttpClient      *http.Client
	Logger          *zap.Logger
}

func NewSMSService(settingsService settings.SettingsService, logger *zap.Logger) SMSService {
	return &SMSServiceImpl{
		SettingsService: settingsService,
		HttpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Logger: logger,
	}
}

func (s *SMSServiceImpl) SendSMS(ctx context.Context, workspaceID primitive.ObjectID, to, body string) error {
	config, err := s.SettingsService.GetSMSConfig(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to fetch sms config: %w", err)
	}
	if config == nil || config.ProviderURL == "" {
		return errors.New("sms provider not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"from": config.FromNumber,
		"to":   to,
		"body": body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.ProviderURL, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.APIKey)

	resp, err := s.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}

	s.Logger.Debug("sms sent",
		zap.String("workspace_id", workspaceID.Hex()),
		zap.String("to", to),
	)
	return nil
}
