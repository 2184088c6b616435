package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionAutomation AuditAction = "AUTOMATION"
	AuditActionWebhook    AuditAction = "WEBHOOK"
	AuditActionSettings   AuditAction = "SETTINGS"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id,omitempty" json:"workspace_id,omitempty"`
	Action      AuditAction        `bson:"action" json:"action"`
	Module      string             `bson:"module" json:"module"`
	RecordID    string             `bson:"record_id" json:"record_id"`
	ActorID     string             `bson:"actor_id" json:"actor_id"`
	Changes     map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}
