package settings

import (
	"context"
	"errors"
	"time"

	"go-opsdesk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettingsRepository interface {
	GetByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (*Settings, error)
	Upsert(ctx context.Context, s *Settings) error
}

type SettingsRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *database.MongodbDB) SettingsRepository {
	return &SettingsRepositoryImpl{
		collection: db.DB.Collection("settings"),
	}
}

func (r *SettingsRepositoryImpl) GetByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (*Settings, error) {
	var s Settings
	err := r.collection.FindOne(ctx, bson.M{"workspace_id": workspaceID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepositoryImpl) Upsert(ctx context.Context, s *Settings) error {
	s.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{"updated_at": s.UpdatedAt}}
	set := update["$set"].(bson.M)
	if s.Email != nil {
		set["email"] = s.Email
	}
	if s.SMS != nil {
		set["sms"] = s.SMS
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"workspace_id": s.WorkspaceID}, update, opts)
	return err
}
