package booking

import (
	"context"
	"time"

	"go-opsdesk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	// FindReminderWindow returns bookings starting inside [from, until) that
	// still owe a 24h reminder.
	FindReminderWindow(ctx context.Context, from, until time.Time) ([]Booking, error)
	// ClaimReminder flips reminder_sent from false to true atomically and
	// reports whether this caller won the claim. Overlapping scan cycles rely
	// on this being the only concurrency guard.
	ClaimReminder(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type BookingRepositoryImpl struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *database.MongodbDB) BookingRepository {
	return &BookingRepositoryImpl{
		collection: db.DB.Collection("bookings"),
	}
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, b *Booking) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = time.Now()
	if b.Status == "" {
		b.Status = StatusPending
	}

	_, err := r.collection.InsertOne(ctx, b)
	return err
}

func (r *BookingRepositoryImpl) Get(ctx context.Context, id string) (*Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var b Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepositoryImpl) FindReminderWindow(ctx context.Context, from, until time.Time) ([]Booking, error) {
	filter := bson.M{
		"start_time":    bson.M{"$gte": from, "$lt": until},
		"status":        bson.M{"$in": []Status{StatusPending, StatusConfirmed}},
		"reminder_sent": false,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepositoryImpl) ClaimReminder(ctx context.Context, id primitive.ObjectID) (bool, error) {
	now := time.Now()
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "reminder_sent": false},
		bson.M{"$set": bson.M{
			"reminder_sent":    true,
			"reminder_sent_at": now,
			"updated_at":       now,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
