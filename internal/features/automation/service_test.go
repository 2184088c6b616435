package automation

import (
	"context"
	"errors"
	"testing"

	common_models "go-opsdesk/internal/common/models"
	"go-opsdesk/internal/config"
	"go-opsdesk/internal/events"
	"go-opsdesk/internal/features/contact"
	"go-opsdesk/internal/features/conversation"
	"go-opsdesk/internal/features/notification"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeRuleRepo struct {
	rules      []AutomationRule
	increments map[string]int
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *AutomationRule) error {
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeRuleRepo) Get(ctx context.Context, workspaceID primitive.ObjectID, id string) (*AutomationRule, error) {
	for i := range f.rules {
		if f.rules[i].ID.Hex() == id {
			return &f.rules[i], nil
		}
	}
	return nil, errors.New("rule not found")
}

func (f *fakeRuleRepo) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]AutomationRule, int64, error) {
	return f.rules, int64(len(f.rules)), nil
}

func (f *fakeRuleRepo) ListActiveByTrigger(ctx context.Context, workspaceID primitive.ObjectID, trigger Trigger) ([]AutomationRule, error) {
	var out []AutomationRule
	for _, r := range f.rules {
		if r.WorkspaceID == workspaceID && r.Trigger == trigger && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) Update(ctx context.Context, workspaceID primitive.ObjectID, id string, update bson.M) (*AutomationRule, error) {
	return nil, nil
}

func (f *fakeRuleRepo) Delete(ctx context.Context, workspaceID primitive.ObjectID, id string) error {
	return nil
}

func (f *fakeRuleRepo) IncrementExecution(ctx context.Context, ruleID primitive.ObjectID) error {
	if f.increments == nil {
		f.increments = make(map[string]int)
	}
	f.increments[ruleID.Hex()]++
	return nil
}

type fakeLogRepo struct {
	logs []ExecutionLog
}

func (f *fakeLogRepo) Create(ctx context.Context, log *ExecutionLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeLogRepo) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]ExecutionLog, int64, error) {
	return f.logs, int64(len(f.logs)), nil
}

func (f *fakeLogRepo) ListAllByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]ExecutionLog, error) {
	return f.logs, nil
}

type fakeConversationRepo struct {
	paused []primitive.ObjectID
}

func (f *fakeConversationRepo) Get(ctx context.Context, id string) (*conversation.Conversation, error) {
	return nil, nil
}

func (f *fakeConversationRepo) PauseAutomation(ctx context.Context, id primitive.ObjectID) error {
	f.paused = append(f.paused, id)
	return nil
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type fakeGateway struct {
	emails    []sentEmail
	smses     []string
	alerts    []string
	emailFail bool
}

func (f *fakeGateway) SendEmail(ctx context.Context, workspaceID primitive.ObjectID, to, subject, html string) notification.Result {
	if f.emailFail {
		return notification.Result{Success: false, Error: "provider down"}
	}
	f.emails = append(f.emails, sentEmail{to: to, subject: subject, body: html})
	return notification.Ok()
}

func (f *fakeGateway) SendSMS(ctx context.Context, workspaceID primitive.ObjectID, to, body string) notification.Result {
	f.smses = append(f.smses, body)
	return notification.Ok()
}

func (f *fakeGateway) CreateAlert(ctx context.Context, workspaceID primitive.ObjectID, kind notification.AlertKind, message, reference string) notification.Result {
	f.alerts = append(f.alerts, message)
	return notification.Ok()
}

type fakeAuditService struct{}

func (f *fakeAuditService) LogChange(ctx context.Context, workspaceID primitive.ObjectID, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}

func (f *fakeAuditService) ListLogs(ctx context.Context, workspaceID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func newTestService(ruleRepo *fakeRuleRepo, logRepo *fakeLogRepo, convRepo *fakeConversationRepo, gw *fakeGateway) AutomationService {
	return NewAutomationService(
		ruleRepo,
		logRepo,
		convRepo,
		gw,
		&fakeAuditService{},
		&config.Config{PortalBaseURL: "https://app.example.com"},
		zap.NewNop(),
	)
}

func newRule(workspaceID primitive.ObjectID, trigger Trigger, action ActionType, body string) AutomationRule {
	return AutomationRule{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		Name:        "test rule",
		Trigger:     trigger,
		Action:      action,
		Template:    Template{Subject: "Welcome", Body: body},
		IsActive:    true,
	}
}

func TestOnEventSendsRenderedEmail(t *testing.T) {
	workspaceID := primitive.NewObjectID()
	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{
		newRule(workspaceID, TriggerContactCreated, ActionSendEmail, "Hi {{firstName}}"),
	}}
	logRepo := &fakeLogRepo{}
	gw := &fakeGateway{}
	svc := newTestService(ruleRepo, logRepo, &fakeConversationRepo{}, gw)

	err := svc.OnEvent(context.Background(), events.Event{
		Trigger: string(TriggerContactCreated),
		Payload: events.Payload{
			WorkspaceID: workspaceID,
			Contact:     &contact.Contact{ID: primitive.NewObjectID(), FirstName: "Mo", Email: "mo@x.com"},
		},
	})
	if err != nil {
		t.Fatalf("OnEvent returned error: %v", err)
	}

	if len(gw.emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(gw.emails))
	}
	if gw.emails[0].body != "Hi Mo" {
		t.Errorf("rendered body = %q, want %q", gw.emails[0].body, "Hi Mo")
	}
	if gw.emails[0].to != "mo@x.com" {
		t.Errorf("recipient = %q", gw.emails[0].to)
	}

	if len(logRepo.logs) != 1 {
		t.Fatalf("expected 1 execution log, got %d", len(logRepo.logs))
	}
	if logRepo.logs[0].Status != ExecutionSuccess {
		t.Errorf("log status = %s, want success", logRepo.logs[0].Status)
	}
	if got := ruleRepo.increments[ruleRepo.rules[0].ID.Hex()]; got != 1 {
		t.Errorf("execution count incremented %d times, want 1", got)
	}
}

func TestOnEventUnmetPreconditionLogsSuccess(t *testing.T) {
	// A send_email rule against a contact with no email is a no-op but still
	// records a success row and bumps the counter.
	workspaceID := primitive.NewObjectID()
	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{
		newRule(workspaceID, TriggerContactCreated, ActionSendEmail, "Hi {{firstName}}"),
	}}
	logRepo := &fakeLogRepo{}
	gw := &fakeGateway{}
	svc := newTestService(ruleRepo, logRepo, &fakeConversationRepo{}, gw)

	_ = svc.OnEvent(context.Background(), events.Event{
		Trigger: string(TriggerContactCreated),
		Payload: events.Payload{
			WorkspaceID: workspaceID,
			Contact:     &contact.Contact{ID: primitive.NewObjectID(), FirstName: "Mo"},
		},
	})

	if len(gw.emails) != 0 {
		t.Fatalf("no email should be sent without an address")
	}
	if len(logRepo.logs) != 1 {
		t.Fatalf("expected 1 execution log, got %d", len(logRepo.logs))
	}
	if logRepo.logs[0].Status != ExecutionSuccess {
		t.Errorf("log status = %s, want success", logRepo.logs[0].Status)
	}
	if got := ruleRepo.increments[ruleRepo.rules[0].ID.Hex()]; got != 1 {
		t.Errorf("execution count incremented %d times, want 1", got)
	}
}

func TestOnEventFailureIsolation(t *testing.T) {
	// The first rule's gateway failure must not stop the second rule.
	workspaceID := primitive.NewObjectID()
	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{
		newRule(workspaceID, TriggerContactCreated, ActionSendEmail, "first"),
		newRule(workspaceID, TriggerContactCreated, ActionSendSMS, "second"),
	}}
	logRepo := &fakeLogRepo{}
	gw := &fakeGateway{emailFail: true}
	svc := newTestService(ruleRepo, logRepo, &fakeConversationRepo{}, gw)

	_ = svc.OnEvent(context.Background(), events.Event{
		Trigger: string(TriggerContactCreated),
		Payload: events.Payload{
			WorkspaceID: workspaceID,
			Contact:     &contact.Contact{ID: primitive.NewObjectID(), Email: "a@x.com", Phone: "+15550100"},
		},
	})

	if len(logRepo.logs) != 2 {
		t.Fatalf("expected 2 execution logs, got %d", len(logRepo.logs))
	}
	if logRepo.logs[0].Status != ExecutionFailed {
		t.Errorf("first log status = %s, want failed", logRepo.logs[0].Status)
	}
	if logRepo.logs[0].Error == "" {
		t.Error("failed log must carry the error message")
	}
	if logRepo.logs[1].Status != ExecutionSuccess {
		t.Errorf("second log status = %s, want success", logRepo.logs[1].Status)
	}
	if len(gw.smses) != 1 {
		t.Errorf("second rule's sms not sent")
	}
}

func TestOnEventPauseAutomation(t *testing.T) {
	workspaceID := primitive.NewObjectID()
	convID := primitive.NewObjectID()
	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{
		newRule(workspaceID, TriggerStaffReply, ActionPauseAutomation, ""),
	}}
	logRepo := &fakeLogRepo{}
	convRepo := &fakeConversationRepo{}
	svc := newTestService(ruleRepo, logRepo, convRepo, &fakeGateway{})

	_ = svc.OnEvent(context.Background(), events.Event{
		Trigger: string(TriggerStaffReply),
		Payload: events.Payload{
			WorkspaceID:  workspaceID,
			Conversation: &conversation.Conversation{ID: convID, WorkspaceID: workspaceID},
		},
	})

	if len(convRepo.paused) != 1 || convRepo.paused[0] != convID {
		t.Fatalf("conversation not paused: %v", convRepo.paused)
	}
	if len(logRepo.logs) != 1 || logRepo.logs[0].Status != ExecutionSuccess {
		t.Fatalf("expected one success log, got %+v", logRepo.logs)
	}
}

func TestOnEventUnknownTriggerNoOp(t *testing.T) {
	ruleRepo := &fakeRuleRepo{}
	logRepo := &fakeLogRepo{}
	svc := newTestService(ruleRepo, logRepo, &fakeConversationRepo{}, &fakeGateway{})

	err := svc.OnEvent(context.Background(), events.Event{Trigger: "not_a_trigger"})
	if err != nil {
		t.Fatalf("unknown trigger must be a no-op, got %v", err)
	}
	if len(logRepo.logs) != 0 {
		t.Errorf("no logs expected, got %d", len(logRepo.logs))
	}
}

func TestOnEventWorkspaceScoping(t *testing.T) {
	workspaceA := primitive.NewObjectID()
	workspaceB := primitive.NewObjectID()
	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{
		newRule(workspaceA, TriggerContactCreated, ActionCreateAlert, "hello"),
	}}
	logRepo := &fakeLogRepo{}
	gw := &fakeGateway{}
	svc := newTestService(ruleRepo, logRepo, &fakeConversationRepo{}, gw)

	_ = svc.OnEvent(context.Background(), events.Event{
		Trigger: string(TriggerContactCreated),
		Payload: events.Payload{WorkspaceID: workspaceB},
	})

	if len(gw.alerts) != 0 || len(logRepo.logs) != 0 {
		t.Fatalf("rules from another workspace must not fire")
	}
}

func TestCreateRuleValidation(t *testing.T) {
	svc := newTestService(&fakeRuleRepo{}, &fakeLogRepo{}, &fakeConversationRepo{}, &fakeGateway{})
	workspaceID := primitive.NewObjectID()

	cases := []struct {
		name string
		req  CreateRuleRequest
	}{
		{"missing name", CreateRuleRequest{Trigger: TriggerContactCreated, Action: ActionSendEmail}},
		{"bad trigger", CreateRuleRequest{Name: "r", Trigger: "nope", Action: ActionSendEmail}},
		{"bad action", CreateRuleRequest{Name: "r", Trigger: TriggerContactCreated, Action: "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateRule(context.Background(), workspaceID, &tc.req); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	rule, err := svc.CreateRule(context.Background(), workspaceID, &CreateRuleRequest{
		Name:    "welcome",
		Trigger: TriggerContactCreated,
		Action:  ActionSendEmail,
	})
	if err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
	if !rule.IsActive {
		t.Error("rules default to active")
	}
}
