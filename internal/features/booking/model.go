package booking

import (
	"time"

	"go-opsdesk/internal/features/contact"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Booking holds an appointment plus a snapshot of the contact it was made for,
// so reminder dispatch does not need a second lookup.
type Booking struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID    primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Contact        contact.Contact    `bson:"contact" json:"contact"`
	ServiceType    string             `bson:"service_type" json:"service_type"`
	StartTime      time.Time          `bson:"start_time" json:"start_time"`
	Status         Status             `bson:"status" json:"status"`
	ReminderSent   bool               `bson:"reminder_sent" json:"reminder_sent"`
	ReminderSentAt *time.Time         `bson:"reminder_sent_at,omitempty" json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
