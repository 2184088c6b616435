package automation

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Trigger string

const (
	TriggerContactCreated    Trigger = "contact_created"
	TriggerBookingCreated    Trigger = "booking_created"
	TriggerBookingConfirmed  Trigger = "booking_confirmed"
	TriggerBookingCompleted  Trigger = "booking_completed"
	TriggerBookingReminder   Trigger = "booking_reminder_24h"
	TriggerFormPending       Trigger = "form_pending_48h"
	TriggerInventoryLow      Trigger = "inventory_low"
	TriggerInventoryCritical Trigger = "inventory_critical"
	TriggerStaffReply        Trigger = "staff_reply"
)

// Valid reports whether t is one of the known triggers. A rule carrying an
// unrecognized trigger never matches anything.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerContactCreated, TriggerBookingCreated, TriggerBookingConfirmed,
		TriggerBookingCompleted, TriggerBookingReminder, TriggerFormPending,
		TriggerInventoryLow, TriggerInventoryCritical, TriggerStaffReply:
		return true
	}
	return false
}

type ActionType string

const (
	ActionSendEmail       ActionType = "send_email"
	ActionSendSMS         ActionType = "send_sms"
	ActionCreateAlert     ActionType = "create_alert"
	ActionPauseAutomation ActionType = "pause_automation"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionSendEmail, ActionSendSMS, ActionCreateAlert, ActionPauseAutomation:
		return true
	}
	return false
}

// Template holds the message shape a rule renders before dispatch.
type Template struct {
	Subject string `bson:"subject,omitempty" json:"subject,omitempty"`
	Body    string `bson:"body" json:"body"`
	Channel string `bson:"channel,omitempty" json:"channel,omitempty"`
}

type AutomationRule struct {
	ID             primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	WorkspaceID    primitive.ObjectID     `bson:"workspace_id" json:"workspace_id"`
	Name           string                 `bson:"name" json:"name"`
	Description    string                 `bson:"description,omitempty" json:"description,omitempty"`
	Trigger        Trigger                `bson:"trigger" json:"trigger"`
	Action         ActionType             `bson:"action" json:"action"`
	Template       Template               `bson:"template" json:"template"`
	Condition      map[string]interface{} `bson:"condition,omitempty" json:"condition,omitempty"`
	IsActive       bool                   `bson:"is_active" json:"is_active"`
	ExecutionCount int64                  `bson:"execution_count" json:"execution_count"`
	LastExecutedAt *time.Time             `bson:"last_executed_at,omitempty" json:"last_executed_at,omitempty"`
	CreatedAt      time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time              `bson:"updated_at" json:"updated_at"`
}

type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionSkipped ExecutionStatus = "skipped"
)

// ExecutionLog is append-only. One row per attempted rule execution, written
// whatever the outcome, never updated afterwards.
type ExecutionLog struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID    primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	RuleID         primitive.ObjectID  `bson:"rule_id" json:"rule_id"`
	RuleName       string              `bson:"rule_name" json:"rule_name"`
	Trigger        Trigger             `bson:"trigger" json:"trigger"`
	Action         ActionType          `bson:"action" json:"action"`
	ContactID      *primitive.ObjectID `bson:"contact_id,omitempty" json:"contact_id,omitempty"`
	BookingID      *primitive.ObjectID `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	ConversationID *primitive.ObjectID `bson:"conversation_id,omitempty" json:"conversation_id,omitempty"`
	Status         ExecutionStatus     `bson:"status" json:"status"`
	Error          string              `bson:"error,omitempty" json:"error,omitempty"`
	ExecutedAt     time.Time           `bson:"executed_at" json:"executed_at"`
}

type CreateRuleRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Trigger     Trigger                `json:"trigger"`
	Action      ActionType             `json:"action"`
	Template    Template               `json:"template"`
	Condition   map[string]interface{} `json:"condition"`
	IsActive    *bool                  `json:"is_active"`
}

type UpdateRuleRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Trigger     *Trigger               `json:"trigger"`
	Action      *ActionType            `json:"action"`
	Template    *Template              `json:"template"`
	Condition   map[string]interface{} `json:"condition"`
	IsActive    *bool                  `json:"is_active"`
}
