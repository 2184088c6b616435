package webhook

import (
	"context"
	"time"

	"go-opsdesk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WebhookRepository interface {
	Create(ctx context.Context, w *Webhook) error
	Get(ctx context.Context, workspaceID primitive.ObjectID, id string) (*Webhook, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]Webhook, error)
	ListActiveByEvent(ctx context.Context, workspaceID primitive.ObjectID, event string) ([]Webhook, error)
	Update(ctx context.Context, workspaceID primitive.ObjectID, id string, update bson.M) (*Webhook, error)
	Delete(ctx context.Context, workspaceID primitive.ObjectID, id string) error
	// RecordDelivery updates the cumulative counters once per delivery
	// sequence: total always, success or failed depending on the outcome.
	RecordDelivery(ctx context.Context, id primitive.ObjectID, success bool, lastError string) error
}

type WebhookRepositoryImpl struct {
	collection *mongo.Collection
}

func NewWebhookRepository(db *database.MongodbDB) WebhookRepository {
	return &WebhookRepositoryImpl{
		collection: db.DB.Collection("webhooks"),
	}
}

func (r *WebhookRepositoryImpl) Create(ctx context.Context, w *Webhook) error {
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, w)
	return err
}

func (r *WebhookRepositoryImpl) Get(ctx context.Context, workspaceID primitive.ObjectID, id string) (*Webhook, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var w Webhook
	err = r.collection.FindOne(ctx, bson.M{"_id": oid, "workspace_id": workspaceID}).Decode(&w)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WebhookRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]Webhook, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var webhooks []Webhook
	if err := cursor.All(ctx, &webhooks); err != nil {
		return nil, err
	}
	return webhooks, nil
}

func (r *WebhookRepositoryImpl) ListActiveByEvent(ctx context.Context, workspaceID primitive.ObjectID, event string) ([]Webhook, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"workspace_id": workspaceID,
		"is_active":    true,
		"events":       event,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var webhooks []Webhook
	if err := cursor.All(ctx, &webhooks); err != nil {
		return nil, err
	}
	return webhooks, nil
}

func (r *WebhookRepositoryImpl) Update(ctx context.Context, workspaceID primitive.ObjectID, id string, update bson.M) (*Webhook, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	update["updated_at"] = time.Now()

	var w Webhook
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid, "workspace_id": workspaceID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&w)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WebhookRepositoryImpl) Delete(ctx context.Context, workspaceID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid, "workspace_id": workspaceID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *WebhookRepositoryImpl) RecordDelivery(ctx context.Context, id primitive.ObjectID, success bool, lastError string) error {
	now := time.Now()
	inc := bson.M{"total_calls": 1}
	set := bson.M{
		"last_triggered_at": now,
		"updated_at":        now,
	}
	if success {
		inc["successful_calls"] = 1
		set["last_error"] = ""
	} else {
		inc["failed_calls"] = 1
		set["last_error"] = lastError
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": inc, "$set": set})
	return err
}

type DeliveryLogRepository interface {
	Create(ctx context.Context, log *DeliveryLog) error
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) error
	ListByWebhook(ctx context.Context, workspaceID primitive.ObjectID, webhookID string, page, limit int64) ([]DeliveryLog, int64, error)
}

type DeliveryLogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewDeliveryLogRepository(db *database.MongodbDB) DeliveryLogRepository {
	return &DeliveryLogRepositoryImpl{
		collection: db.DB.Collection("webhook_delivery_logs"),
	}
}

func (r *DeliveryLogRepositoryImpl) Create(ctx context.Context, log *DeliveryLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	now := time.Now()
	log.CreatedAt = now
	log.UpdatedAt = now
	if log.Status == "" {
		log.Status = DeliveryPending
	}

	_, err := r.collection.InsertOne(ctx, log)
	return err
}

func (r *DeliveryLogRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["updated_at"] = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

func (r *DeliveryLogRepositoryImpl) ListByWebhook(ctx context.Context, workspaceID primitive.ObjectID, webhookID string, page, limit int64) ([]DeliveryLog, int64, error) {
	oid, err := primitive.ObjectIDFromHex(webhookID)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	filter := bson.M{"workspace_id": workspaceID, "webhook_id": oid}

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

	var logs []DeliveryLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
