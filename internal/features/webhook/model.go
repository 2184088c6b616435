package webhook

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingCancelled = "booking.cancelled"
	EventContactCreated   = "contact.created"
	EventFormSubmitted    = "form.submitted"
	EventInventoryLow     = "inventory.low"
	EventMessageReceived  = "message.received"

	// EventTest is only produced by the operator-initiated connectivity check.
	EventTest = "webhook.test"
)

// KnownEvents is the closed set a subscription may subscribe to.
var KnownEvents = []string{
	EventBookingCreated,
	EventBookingUpdated,
	EventBookingCancelled,
	EventContactCreated,
	EventFormSubmitted,
	EventInventoryLow,
	EventMessageReceived,
}

func ValidEvent(name string) bool {
	for _, e := range KnownEvents {
		if e == name {
			return true
		}
	}
	return false
}

const (
	DefaultRetryAttempts = 3
	DefaultRetryDelayMs  = 1000
)

// Webhook is a tenant-configured outbound subscription. The secret signs every
// delivery and is returned exactly once, at creation.
type Webhook struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID   primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Name          string             `bson:"name" json:"name"`
	URL           string             `bson:"url" json:"url"`
	Secret        string             `bson:"secret" json:"-"`
	Events        []string           `bson:"events" json:"events"`
	IsActive      bool               `bson:"is_active" json:"is_active"`
	RetryAttempts int                `bson:"retry_attempts" json:"retry_attempts"`
	RetryDelayMs  int                `bson:"retry_delay_ms" json:"retry_delay_ms"`

	TotalCalls      int64      `bson:"total_calls" json:"total_calls"`
	SuccessfulCalls int64      `bson:"successful_calls" json:"successful_calls"`
	FailedCalls     int64      `bson:"failed_calls" json:"failed_calls"`
	LastTriggeredAt *time.Time `bson:"last_triggered_at,omitempty" json:"last_triggered_at,omitempty"`
	LastError       string     `bson:"last_error,omitempty" json:"last_error,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Subscribed reports whether the subscription wants the named event.
func (w *Webhook) Subscribed(event string) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// DeliveryLog is one row per delivery sequence, created at the start and
// updated in place as attempts proceed. Its final state reflects the last
// attempt only, plus how many attempts were made.
type DeliveryLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID  primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	WebhookID    primitive.ObjectID `bson:"webhook_id" json:"webhook_id"`
	Event        string             `bson:"event" json:"event"`
	Payload      interface{}        `bson:"payload" json:"payload"`
	Status       DeliveryStatus     `bson:"status" json:"status"`
	StatusCode   int                `bson:"status_code,omitempty" json:"status_code,omitempty"`
	ResponseBody string             `bson:"response_body,omitempty" json:"response_body,omitempty"`
	Error        string             `bson:"error,omitempty" json:"error,omitempty"`
	Attempts     int                `bson:"attempts" json:"attempts"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// DeliveryResult is the terminal outcome of one delivery sequence.
type DeliveryResult struct {
	WebhookID  primitive.ObjectID `json:"webhook_id"`
	Success    bool               `json:"success"`
	StatusCode int                `json:"status_code,omitempty"`
	Attempts   int                `json:"attempts"`
	Error      string             `json:"error,omitempty"`
}

// TriggerSummary aggregates a fan-out. GracefulFail marks an internal failure
// that was swallowed so the originating domain operation is never aborted.
type TriggerSummary struct {
	Triggered    int              `json:"triggered"`
	Results      []DeliveryResult `json:"results"`
	Success      bool             `json:"success"`
	GracefulFail bool             `json:"graceful_fail,omitempty"`
}

type CreateWebhookRequest struct {
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Events        []string `json:"events"`
	RetryAttempts int      `json:"retry_attempts"`
	RetryDelayMs  int      `json:"retry_delay_ms"`
}

type UpdateWebhookRequest struct {
	Name     *string  `json:"name"`
	URL      *string  `json:"url"`
	Events   []string `json:"events"`
	IsActive *bool    `json:"is_active"`
}
