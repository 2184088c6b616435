package form

import (
	"time"

	"go-opsdesk/internal/features/contact"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusExpired   Status = "expired"
)

// Submission tracks a form sent to a contact and whether they returned it.
type Submission struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID    primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Contact        contact.Contact    `bson:"contact" json:"contact"`
	FormName       string             `bson:"form_name" json:"form_name"`
	Status         Status             `bson:"status" json:"status"`
	SentAt         time.Time          `bson:"sent_at" json:"sent_at"`
	DueAt          *time.Time         `bson:"due_at,omitempty" json:"due_at,omitempty"`
	ReminderSent   bool               `bson:"reminder_sent" json:"reminder_sent"`
	ReminderSentAt *time.Time         `bson:"reminder_sent_at,omitempty" json:"reminder_sent_at,omitempty"`
	ReminderCount  int                `bson:"reminder_count" json:"reminder_count"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
