package notification

import (
	"context"
	"time"

	"go-opsdesk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) error
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]Alert, int64, error)
	UnreadCount(ctx context.Context, workspaceID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, workspaceID primitive.ObjectID, id string) error
}

type AlertRepositoryImpl struct {
	collection *mongo.Collection
}

func NewAlertRepository(db *database.MongodbDB) AlertRepository {
	return &AlertRepositoryImpl{
		collection: db.DB.Collection("alerts"),
	}
}

func (r *AlertRepositoryImpl) Create(ctx context.Context, alert *Alert) error {
	if alert.ID.IsZero() {
		alert.ID = primitive.NewObjectID()
	}
	alert.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, alert)
	return err
}

func (r *AlertRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]Alert, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filter := bson.M{"workspace_id": workspaceID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var alerts []Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (r *AlertRepositoryImpl) UnreadCount(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"workspace_id": workspaceID,
		"is_read":      false,
	})
}

func (r *AlertRepositoryImpl) MarkAsRead(ctx context.Context, workspaceID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": oid, "workspace_id": workspaceID},
		bson.M{"$set": bson.M{"is_read": true, "read_at": now}},
	)
	return err
}
