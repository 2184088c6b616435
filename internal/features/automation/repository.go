package automation

import (
	"context"
	"time"

	"go-opsdesk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RuleRepository interface {
	Create(ctx context.Context, rule *AutomationRule) error
	Get(ctx context.Context, workspaceID primitive.ObjectID, id string) (*AutomationRule, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]AutomationRule, int64, error)
	ListActiveByTrigger(ctx context.Context, workspaceID primitive.ObjectID, trigger Trigger) ([]AutomationRule, error)
	Update(ctx context.Context, workspaceID primitive.ObjectID, id string, update bson.M) (*AutomationRule, error)
	Delete(ctx context.Context, workspaceID primitive.ObjectID, id string) error
	IncrementExecution(ctx context.Context, ruleID primitive.ObjectID) error
}

type RuleRepositoryImpl struct {
	collection *mongo.Collection
}

func NewRuleRepository(db *database.MongodbDB) RuleRepository {
	return &RuleRepositoryImpl{
		collection: db.DB.Collection("automation_rules"),
	}
}

func (r *RuleRepositoryImpl) Create(ctx context.Context, rule *AutomationRule) error {
	if rule.ID.IsZero() {
		rule.ID = primitive.NewObjectID()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, rule)
	return err
}

func (r *RuleRepositoryImpl) Get(ctx context.Context, workspaceID primitive.ObjectID, id string) (*AutomationRule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var rule AutomationRule
	err = r.collection.FindOne(ctx, bson.M{"_id": oid, "workspace_id": workspaceID}).Decode(&rule)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]AutomationRule, int64, error) {
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

	var rules []AutomationRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

// ListActiveByTrigger returns rules in creation order so dispatch order is
// stable across events.
func (r *RuleRepositoryImpl) ListActiveByTrigger(ctx context.Context, workspaceID primitive.ObjectID, trigger Trigger) ([]AutomationRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{
		"workspace_id": workspaceID,
		"trigger":      trigger,
		"is_active":    true,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rules []AutomationRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RuleRepositoryImpl) Update(ctx context.Context, workspaceID primitive.ObjectID, id string, update bson.M) (*AutomationRule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	update["updated_at"] = time.Now()

	var rule AutomationRule
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid, "workspace_id": workspaceID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rule)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepositoryImpl) Delete(ctx context.Context, workspaceID primitive.ObjectID, id string) error {
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

// IncrementExecution bumps the rule's counter and stamps last_executed_at.
// Called on every attempted execution regardless of outcome.
func (r *RuleRepositoryImpl) IncrementExecution(ctx context.Context, ruleID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": ruleID},
		bson.M{
			"$inc": bson.M{"execution_count": 1},
			"$set": bson.M{"last_executed_at": time.Now()},
		},
	)
	return err
}

type ExecutionLogRepository interface {
	Create(ctx context.Context, log *ExecutionLog) error
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]ExecutionLog, int64, error)
	ListAllByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]ExecutionLog, error)
}

type ExecutionLogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewExecutionLogRepository(db *database.MongodbDB) ExecutionLogRepository {
	return &ExecutionLogRepositoryImpl{
		collection: db.DB.Collection("automation_execution_logs"),
	}
}

func (r *ExecutionLogRepositoryImpl) Create(ctx context.Context, log *ExecutionLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	if log.ExecutedAt.IsZero() {
		log.ExecutedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, log)
	return err
}

func (r *ExecutionLogRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID, page, limit int64) ([]ExecutionLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	filter := bson.M{"workspace_id": workspaceID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "executed_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var logs []ExecutionLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *ExecutionLogRepositoryImpl) ListAllByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]ExecutionLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "executed_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []ExecutionLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
