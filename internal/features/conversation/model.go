package conversation

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is one inbox thread with a contact. The automation engine only
// touches its automation_paused flag.
type Conversation struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID        primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	ContactID          primitive.ObjectID `bson:"contact_id" json:"contact_id"`
	Subject            string             `bson:"subject,omitempty" json:"subject,omitempty"`
	AutomationPaused   bool               `bson:"automation_paused" json:"automation_paused"`
	AutomationPausedAt *time.Time         `bson:"automation_paused_at,omitempty" json:"automation_paused_at,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}
