package settings

import (
	"context"
	"time"

	common_models "go-opsdesk/internal/common/models"
	"go-opsdesk/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SettingsService interface {
	GetEmailConfig(ctx context.Context, workspaceID primitive.ObjectID) (*EmailConfig, error)
	UpdateEmailConfig(ctx context.Context, workspaceID primitive.ObjectID, config EmailConfig) error
	GetSMSConfig(ctx context.Context, workspaceID primitive.ObjectID) (*SMSConfig, error)
	UpdateSMSConfig(ctx context.Context, workspaceID primitive.ObjectID, config SMSConfig) error
}

type SettingsServiceImpl struct {
	Repo         SettingsRepository
	AuditService audit.AuditService
}

func NewSettingsService(repo SettingsRepository, auditService audit.AuditService) SettingsService {
	return &SettingsServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func (s *SettingsServiceImpl) GetEmailConfig(ctx context.Context, workspaceID primitive.ObjectID) (*EmailConfig, error) {
	settings, err := s.Repo.GetByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if settings == nil || settings.Email == nil {
		return nil, nil
	}
	return settings.Email, nil
}

func (s *SettingsServiceImpl) UpdateEmailConfig(ctx context.Context, workspaceID primitive.ObjectID, config EmailConfig) error {
	oldConfig, _ := s.GetEmailConfig(ctx, workspaceID)

	settings := &Settings{
		WorkspaceID: workspaceID,
		Email:       &config,
		UpdatedAt:   time.Now(),
	}
	err := s.Repo.Upsert(ctx, settings)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, workspaceID, common_models.AuditActionSettings, "settings", "email_config", map[string]common_models.Change{
			"email_config": {Old: oldConfig, New: config},
		})
	}
	return err
}

func (s *SettingsServiceImpl) GetSMSConfig(ctx context.Context, workspaceID primitive.ObjectID) (*SMSConfig, error) {
	settings, err := s.Repo.GetByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if settings == nil || settings.SMS == nil {
		return nil, nil
	}
	return settings.SMS, nil
}

func (s *SettingsServiceImpl) UpdateSMSConfig(ctx context.Context, workspaceID primitive.ObjectID, config SMSConfig) error {
	oldConfig, _ := s.GetSMSConfig(ctx, workspaceID)

	settings := &Settings{
		WorkspaceID: workspaceID,
		SMS:         &config,
		UpdatedAt:   time.Now(),
	}
	err := s.Repo.Upsert(ctx, settings)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, workspaceID, common_models.AuditActionSettings, "settings", "sms_config", map[string]common_models.Change{
			"sms_config": {Old: oldConfig, New: config},
		})
	}
	return err
}
