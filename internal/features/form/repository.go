package form

import (
	"context"
	"time"

	"go-opsdesk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SubmissionRepository interface {
	Create(ctx context.Context, s *Submission) error
	Get(ctx context.Context, id string) (*Submission, error)
	// FindPendingReminderDue returns pending submissions sent before the
	// cutoff whose reminder has not fired yet.
	FindPendingReminderDue(ctx context.Context, sentBefore time.Time) ([]Submission, error)
	// ClaimReminder flips reminder_sent atomically and bumps the reminder
	// counter; reports whether this caller won the claim.
	ClaimReminder(ctx context.Context, id primitive.ObjectID) (bool, error)
	// MarkOverdue moves pending submissions past their due date into the
	// overdue status. Part of the submission lifecycle, not of dispatch.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type SubmissionRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSubmissionRepository(db *database.MongodbDB) SubmissionRepository {
	return &SubmissionRepositoryImpl{
		collection: db.DB.Collection("form_submissions"),
	}
}

func (r *SubmissionRepositoryImpl) Create(ctx context.Context, s *Submission) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	if s.Status == "" {
		s.Status = StatusPending
	}
	if s.SentAt.IsZero() {
		s.SentAt = s.CreatedAt
	}

	_, err := r.collection.InsertOne(ctx, s)
	return err
}

func (r *SubmissionRepositoryImpl) Get(ctx context.Context, id string) (*Submission, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var s Submission
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepositoryImpl) FindPendingReminderDue(ctx context.Context, sentBefore time.Time) ([]Submission, error) {
	filter := bson.M{
		"status":        StatusPending,
		"sent_at":       bson.M{"$lt": sentBefore},
		"reminder_sent": false,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var submissions []Submission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *SubmissionRepositoryImpl) ClaimReminder(ctx context.Context, id primitive.ObjectID) (bool, error) {
	now := time.Now()
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "reminder_sent": false},
		bson.M{
			"$set": bson.M{
				"reminder_sent":    true,
				"reminder_sent_at": now,
				"updated_at":       now,
			},
			"$inc": bson.M{"reminder_count": 1},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *SubmissionRepositoryImpl) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(
		ctx,
		bson.M{
			"status": StatusPending,
			"due_at": bson.M{"$ne": nil, "$lt": now},
		},
		bson.M{"$set": bson.M{"status": StatusOverdue, "updated_at": now}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
