package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AlertKind string

const (
	AlertKindInfo    AlertKind = "info"
	AlertKindSuccess AlertKind = "success"
	AlertKindWarning AlertKind = "warning"
	AlertKindError   AlertKind = "error"
)

// Alert is an in-app notification shown to workspace members
type Alert struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Kind        AlertKind          `bson:"kind" json:"kind"`
	Message     string             `bson:"message" json:"message"`
	Reference   string             `bson:"reference,omitempty" json:"reference,omitempty"`
	IsRead      bool               `bson:"is_read" json:"is_read"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	ReadAt      *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
}

// Result is what every gateway capability reports back: dispatch either
// succeeded or failed with a reason. Gateways never return Go errors to the
// dispatcher; failures must stay graceful.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func Ok() Result {
	return Result{Success: true}
}

func Fail(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
