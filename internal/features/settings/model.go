package settings

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailConfig is a workspace's outbound SMTP configuration
type EmailConfig struct {
	SMTPHost     string `bson:"smtp_host" json:"smtp_host"`
	SMTPPort     int    `bson:"smtp_port" json:"smtp_port"`
	SMTPUser     string `bson:"smtp_user" json:"smtp_user"`
	SMTPPassword string `bson:"smtp_password" json:"-"`
	FromEmail    string `bson:"from_email" json:"from_email"`
}

// SMSConfig is a workspace's SMS provider configuration
type SMSConfig struct {
	ProviderURL string `bson:"provider_url" json:"provider_url"`
	APIKey      string `bson:"api_key" json:"-"`
	FromNumber  string `bson:"from_number" json:"from_number"`
}

// Settings holds all per-workspace provider configuration in one document
type Settings struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Email       *EmailConfig       `bson:"email,omitempty" json:"email,omitempty"`
	SMS         *SMSConfig         `bson:"sms,omitempty" json:"sms,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
