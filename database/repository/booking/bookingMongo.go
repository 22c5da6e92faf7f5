package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"fixserv/database"
	"fixserv/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bookingsCollection = "bookings"

// MongoBookingRepo implements BookingRepository on MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{coll: database.Collection(bookingsCollection)}
}

func newContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

func (r *MongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return r.list(ctx, bson.M{"customerId": customerID})
}

func (r *MongoBookingRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	return r.list(ctx, bson.M{"providerId": providerID})
}

func (r *MongoBookingRepo) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return out, nil
}

// Claim sets the provider reference with a status precondition. The first
// successful write wins; any later attempt misses the filter.
func (r *MongoBookingRepo) Claim(ctx context.Context, id, providerID string, from []models.BookingStatus, at time.Time) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":         id,
		"status":     bson.M{"$in": from},
		"providerId": bson.M{"$in": bson.A{nil, ""}},
	}
	update := bson.M{"$set": bson.M{
		"providerId": providerID,
		"status":     models.StatusConfirmed,
		"acceptedAt": at,
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

// stampField maps a target status to the milestone timestamp it sets.
// Statuses without a dedicated milestone return "".
func stampField(to models.BookingStatus) string {
	switch to {
	case models.StatusConfirmed:
		return "acceptedAt"
	case models.StatusAssigned:
		return "assignedAt"
	case models.StatusJourneyStarted:
		return "journeyStartedAt"
	case models.StatusVisited:
		return "visitedAt"
	case models.StatusWorkDone:
		return "workDoneAt"
	case models.StatusCompleted:
		return "completedAt"
	case models.StatusCancelled, models.StatusRejected:
		return "cancelledAt"
	default:
		return ""
	}
}

func (r *MongoBookingRepo) Transition(ctx context.Context, id string, from []models.BookingStatus, upd StatusUpdate) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"status": upd.To}
	if field := stampField(upd.To); field != "" {
		set[field] = upd.At
	}
	if upd.Assignment != nil {
		set["assignment"] = *upd.Assignment
	}
	if upd.CancelReason != "" {
		set["cancelReason"] = upd.CancelReason
	}
	update := bson.M{"$set": set}

	unset := bson.M{}
	if upd.ClearVisitCode {
		unset["visitCode"] = ""
	}
	if upd.ClearPaymentCode {
		unset["paymentCode"] = ""
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoBookingRepo) RecordRejection(ctx context.Context, id, providerID string) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	update := bson.M{"$addToSet": bson.M{"dispatch.rejected": providerID}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoBookingRepo) AdvanceWave(ctx context.Context, id string, fromWave, wave int, notified []string, at time.Time) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":            id,
		"status":        bson.M{"$in": bson.A{models.StatusSearching, models.StatusRequested}},
		"providerId":    bson.M{"$in": bson.A{nil, ""}},
		"dispatch.wave": fromWave,
	}
	update := bson.M{"$set": bson.M{
		"status":                 models.StatusRequested,
		"dispatch.wave":          wave,
		"dispatch.waveStartedAt": at,
		"dispatch.notified":      notified,
	}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoBookingRepo) MarkEarningsCredited(ctx context.Context, id string) (bool, error) {
	return r.flipFlag(ctx, id, "earningsCredited")
}

func (r *MongoBookingRepo) MarkCashRecorded(ctx context.Context, id string) (bool, error) {
	return r.flipFlag(ctx, id, "cashRecorded")
}

func (r *MongoBookingRepo) ClearEarningsCredited(ctx context.Context, id string) error {
	return r.resetFlag(ctx, id, "earningsCredited")
}

func (r *MongoBookingRepo) ClearCashRecorded(ctx context.Context, id string) error {
	return r.resetFlag(ctx, id, "cashRecorded")
}

func (r *MongoBookingRepo) flipFlag(ctx context.Context, id, field string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, field: false}
	update := bson.M{"$set": bson.M{field: true}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to flip %s on booking %s: %w", field, id, err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoBookingRepo) resetFlag(ctx context.Context, id, field string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, field: true}
	update := bson.M{"$set": bson.M{field: false}}
	if _, err := r.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to reset %s on booking %s: %w", field, id, err)
	}
	return nil
}

func (r *MongoBookingRepo) SetPaymentResult(ctx context.Context, id, status, ref string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{"paymentStatus": status, "paymentRef": ref}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set payment result on booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoBookingRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Booking, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("booking conditional update failed: %w", err)
	}
	return &b, nil
}
