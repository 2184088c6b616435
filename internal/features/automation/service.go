package automation

import (
	"bytes"
	"context"
	"fmt"

	common_models "go-opsdesk/internal/common/models"
	"go-opsdesk/internal/config"
	"go-opsdesk/internal/events"
	"go-opsdesk/internal/features/audit"
	"go-opsdesk/internal/features/conversation"
	"go-opsdesk/internal/features/notification"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AutomationService interface {
	CreateRule(ctx context.Context, workspaceID primitive.ObjectID, req *CreateRuleRequest) (*AutomationRule, error)
	GetRule(ctx context.Context, workspaceID primitive.ObjectID, id string) (*AutomationRule, error)
	ListRules(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]AutomationRule, int64, error)
	UpdateRule(ctx context.Context, workspaceID primitive.ObjectID, id string, req *UpdateRuleRequest) (*AutomationRule, error)
	DeleteRule(ctx context.Context, workspaceID primitive.ObjectID, id string) error
	ListLogs(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]ExecutionLog, int64, error)
	ExportLogs(ctx context.Context, workspaceID primitive.ObjectID) (*bytes.Buffer, error)

	// OnEvent is the dispatcher entry point: runs every matching active rule
	// for the event's workspace, sequentially, isolating failures.
	OnEvent(ctx context.Context, evt events.Event) error
	Subscribe(bus *events.Bus)
}

type AutomationServiceImpl struct {
	RuleRepo         RuleRepository
	LogRepo          ExecutionLogRepository
	ConversationRepo conversation.ConversationRepository
	Gateway          notification.Gateway
	AuditService     audit.AuditService
	Config           *config.Config
	Logger           *zap.Logger
}

func NewAutomationService(
	ruleRepo RuleRepository,
	logRepo ExecutionLogRepository,
	conversationRepo conversation.ConversationRepository,
	gateway notification.Gateway,
	auditService audit.AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) AutomationService {
	return &AutomationServiceImpl{
		RuleRepo:         ruleRepo,
		LogRepo:          logRepo,
		ConversationRepo: conversationRepo,
		Gateway:          gateway,
		AuditService:     auditService,
		Config:           cfg,
		Logger:           logger,
	}
}

func (s *AutomationServiceImpl) CreateRule(ctx context.Context, workspaceID primitive.ObjectID, req *CreateRuleRequest) (*AutomationRule, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("rule name is required")
	}
	if !req.Trigger.Valid() {
		return nil, fmt.Errorf("unknown trigger: %s", req.Trigger)
	}
	if !req.Action.Valid() {
		return nil, fmt.Errorf("unknown action: %s", req.Action)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	rule := &AutomationRule{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Action:      req.Action,
		Template:    req.Template,
		Condition:   req.Condition,
		IsActive:    active,
	}
	if err := s.RuleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, workspaceID, common_models.AuditActionCreate, "automation", rule.ID.Hex(), map[string]common_models.Change{
		"name":    {New: rule.Name},
		"trigger": {New: string(rule.Trigger)},
		"action":  {New: string(rule.Action)},
	})

	return rule, nil
}

func (s *AutomationServiceImpl) GetRule(ctx context.Context, workspaceID primitive.ObjectID, id string) (*AutomationRule, error) {
	return s.RuleRepo.Get(ctx, workspaceID, id)
}

func (s *AutomationServiceImpl) ListRules(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]AutomationRule, int64, error) {
	return s.RuleRepo.ListByWorkspace(ctx, workspaceID, page, limit)
}

func (s *AutomationServiceImpl) UpdateRule(ctx context.Context, workspaceID primitive.ObjectID, id string, req *UpdateRuleRequest) (*AutomationRule, error) {
	update := bson.M{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Trigger != nil {
		if !req.Trigger.Valid() {
			return nil, fmt.Errorf("unknown trigger: %s", *req.Trigger)
		}
		update["trigger"] = *req.Trigger
	}
	if req.Action != nil {
		if !req.Action.Valid() {
			return nil, fmt.Errorf("unknown action: %s", *req.Action)
		}
		update["action"] = *req.Action
	}
	if req.Template != nil {
		update["template"] = *req.Template
	}
	if req.Condition != nil {
		update["condition"] = req.Condition
	}
	if req.IsActive != nil {
		update["is_active"] = *req.IsActive
	}
	if len(update) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	rule, err := s.RuleRepo.Update(ctx, workspaceID, id, update)
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, workspaceID, common_models.AuditActionUpdate, "automation", id, nil)

	return rule, nil
}

func (s *AutomationServiceImpl) DeleteRule(ctx context.Context, workspaceID primitive.ObjectID, id string) error {
	if err := s.RuleRepo.Delete(ctx, workspaceID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, workspaceID, common_models.AuditActionDelete, "automation", id, nil)
	return nil
}

func (s *AutomationServiceImpl) ListLogs(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]ExecutionLog, int64, error) {
	return s.LogRepo.ListByWorkspace(ctx, workspaceID, page, limit)
}

// ExportLogs writes the workspace's full execution history to an XLSX sheet.
func (s *AutomationServiceImpl) ExportLogs(ctx context.Context, workspaceID primitive.ObjectID) (*bytes.Buffer, error) {
	logs, err := s.LogRepo.ListAllByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Execution Logs"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Executed At", "Rule", "Trigger", "Action", "Status", "Error"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, log := range logs {
		values := []interface{}{
			log.ExecutedAt.Format("2006-01-02 15:04:05"),
			log.RuleName,
			string(log.Trigger),
			string(log.Action),
			string(log.Status),
			log.Error,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Subscribe wires the dispatcher onto the bus for every known trigger. Called
// once at startup.
func (s *AutomationServiceImpl) Subscribe(bus *events.Bus) {
	triggers := []Trigger{
		TriggerContactCreated,
		TriggerBookingCreated,
		TriggerBookingConfirmed,
		TriggerBookingCompleted,
		TriggerBookingReminder,
		TriggerFormPending,
		TriggerInventoryLow,
		TriggerInventoryCritical,
		TriggerStaffReply,
	}
	for _, t := range triggers {
		bus.Subscribe(string(t), s.OnEvent)
	}
}

func (s *AutomationServiceImpl) OnEvent(ctx context.Context, evt events.Event) error {
	trigger := Trigger(evt.Trigger)
	if !trigger.Valid() {
		return nil
	}

	rules, err := s.RuleRepo.ListActiveByTrigger(ctx, evt.Payload.WorkspaceID, trigger)
	if err != nil {
		return fmt.Errorf("failed to load rules for trigger %s: %w", trigger, err)
	}

	for i := range rules {
		s.executeRule(ctx, &rules[i], evt.Payload)
	}
	return nil
}

// executeRule renders the template, dispatches the action, writes exactly one
// execution log row, and bumps the rule's counter whatever the outcome.
// Nothing escapes to the caller: a broken rule must not stop its siblings.
func (s *AutomationServiceImpl) executeRule(ctx context.Context, rule *AutomationRule, payload events.Payload) {
	status := ExecutionSuccess
	errMsg := ""

	func() {
		defer func() {
			if r := recover(); r != nil {
				status = ExecutionFailed
				errMsg = fmt.Sprintf("rule execution panic: %v", r)
			}
		}()

		subject := RenderTemplate(rule.Template.Subject, payload, s.Config.PortalBaseURL)
		body := RenderTemplate(rule.Template.Body, payload, s.Config.PortalBaseURL)

		if err := s.dispatch(ctx, rule, payload, subject, body); err != nil {
			status = ExecutionFailed
			errMsg = err.Error()
		}
	}()

	log := &ExecutionLog{
		WorkspaceID: rule.WorkspaceID,
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Trigger:     rule.Trigger,
		Action:      rule.Action,
		Status:      status,
		Error:       errMsg,
	}
	if payload.Contact != nil && !payload.Contact.ID.IsZero() {
		log.ContactID = &payload.Contact.ID
	}
	if payload.Booking != nil && !payload.Booking.ID.IsZero() {
		log.BookingID = &payload.Booking.ID
	}
	if payload.Conversation != nil && !payload.Conversation.ID.IsZero() {
		log.ConversationID = &payload.Conversation.ID
	}
	if err := s.LogRepo.Create(ctx, log); err != nil {
		s.Logger.Error("failed to write execution log",
			zap.String("rule_id", rule.ID.Hex()),
			zap.Error(err),
		)
	}

	if err := s.RuleRepo.IncrementExecution(ctx, rule.ID); err != nil {
		s.Logger.Error("failed to update rule statistics",
			zap.String("rule_id", rule.ID.Hex()),
			zap.Error(err),
		)
	}

	s.Logger.Info("automation rule executed",
		zap.String("workspace_id", rule.WorkspaceID.Hex()),
		zap.String("rule", rule.Name),
		zap.String("trigger", string(rule.Trigger)),
		zap.String("action", string(rule.Action)),
		zap.String("status", string(status)),
	)
}

// dispatch runs the rule's action. An unmet precondition (no email address, no
// phone number) is a no-op that still reads as success, matching how the
// execution counters have always been consumed.
func (s *AutomationServiceImpl) dispatch(ctx context.Context, rule *AutomationRule, payload events.Payload, subject, body string) error {
	switch rule.Action {
	case ActionSendEmail:
		if payload.Contact == nil || payload.Contact.Email == "" {
			return nil
		}
		if res := s.Gateway.SendEmail(ctx, rule.WorkspaceID, payload.Contact.Email, subject, body); !res.Success {
			return fmt.Errorf("email dispatch failed: %s", res.Error)
		}
		return nil

	case ActionSendSMS:
		if payload.Contact == nil || payload.Contact.Phone == "" {
			return nil
		}
		if res := s.Gateway.SendSMS(ctx, rule.WorkspaceID, payload.Contact.Phone, body); !res.Success {
			return fmt.Errorf("sms dispatch failed: %s", res.Error)
		}
		return nil

	case ActionCreateAlert:
		reference := rule.ID.Hex()
		if res := s.Gateway.CreateAlert(ctx, rule.WorkspaceID, notification.AlertKindInfo, body, reference); !res.Success {
			return fmt.Errorf("alert creation failed: %s", res.Error)
		}
		return nil

	case ActionPauseAutomation:
		if payload.Conversation == nil {
			return nil
		}
		if err := s.ConversationRepo.PauseAutomation(ctx, payload.Conversation.ID); err != nil {
			return fmt.Errorf("failed to pause conversation automation: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown action: %s", rule.Action)
	}
}
