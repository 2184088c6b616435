package conversation

import (
	"context"
	"time"

	"go-opsdesk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ConversationRepository interface {
	Get(ctx context.Context, id string) (*Conversation, error)
	PauseAutomation(ctx context.Context, id primitive.ObjectID) error
}

type ConversationRepositoryImpl struct {
	collection *mongo.Collection
}

func NewConversationRepository(db *database.MongodbDB) ConversationRepository {
	return &ConversationRepositoryImpl{
		collection: db.DB.Collection("conversations"),
	}
}

func (r *ConversationRepositoryImpl) Get(ctx context.Context, id string) (*Conversation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var conv Conversation
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepositoryImpl) PauseAutomation(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"automation_paused":    true,
			"automation_paused_at": now,
			"updated_at":           now,
		}},
	)
	return err
}
