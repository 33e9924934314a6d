package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"turfbook/pkg/config"
	mongotx "turfbook/pkg/db/mongo"
	"turfbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Slots"
)

// SlotRepository is the per-(venue,date,time) slot store. Writers must go
// through CompareAndSwap so a stale read can never overwrite a newer state.
type SlotRepository interface {
	GetOrCreate(ctx context.Context, key model.SlotKey) (*model.Slot, error)
	Get(ctx context.Context, key model.SlotKey) (*model.Slot, error)
	CompareAndSwap(ctx context.Context, key model.SlotKey, expectedVersion int64, next *model.Slot) (*model.Slot, error)
	ListByVenueAndDate(ctx context.Context, venueID, date string) ([]*model.Slot, error)
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoSlotRepository) GetOrCreate(ctx context.Context, key model.SlotKey) (*model.Slot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var slot model.Slot
	err := r.collection.FindOneAndUpdate(ctx, slotFilter(key), createSlotUpdate(model.NewSlot(key)), opts).Decode(&slot)
	if err != nil {
		// Two first bookings racing on an empty slot both try the insert.
		return nil, slotWriteError(err, key, "failed to load or create slot")
	}
	return &slot, nil
}

func (r *mongoSlotRepository) Get(ctx context.Context, key model.SlotKey) (*model.Slot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var slot model.Slot
	err := r.collection.FindOne(ctx, slotFilter(key)).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	return &slot, nil
}

func (r *mongoSlotRepository) CompareAndSwap(ctx context.Context, key model.SlotKey, expectedVersion int64, next *model.Slot) (*model.Slot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	refs := next.BookingRefs
	if refs == nil {
		refs = []string{}
	}
	updatedAt := time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.UpdateOne(ctx, casFilter(key, expectedVersion), casUpdate(next, refs, updatedAt))
	if err != nil {
		return nil, slotWriteError(err, key, "failed to update slot")
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s expected version %d", ErrVersionConflict, key, expectedVersion)
	}

	stored := *next
	stored.ID = key.String()
	stored.BookingRefs = refs
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = updatedAt
	return &stored, nil
}

func (r *mongoSlotRepository) ListByVenueAndDate(ctx context.Context, venueID, date string) ([]*model.Slot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"venue_id": venueID, "date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.Slot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}
	return slots, nil
}

func slotFilter(key model.SlotKey) bson.M {
	return bson.M{"_id": key.String()}
}

// createSlotUpdate only writes on insert, so an existing slot is returned
// untouched.
func createSlotUpdate(fresh *model.Slot) bson.M {
	return bson.M{
		"$setOnInsert": bson.M{
			"venue_id":        fresh.VenueID,
			"date":            fresh.Date,
			"time":            fresh.Time,
			"current_players": 0,
			"is_booked":       false,
			"booking_refs":    []string{},
			"version":         int64(0),
			"created_at":      fresh.CreatedAt,
			"updated_at":      fresh.UpdatedAt,
		},
	}
}

// casFilter matches the slot only while it still has the version the caller
// read.
func casFilter(key model.SlotKey, expectedVersion int64) bson.M {
	return bson.M{"_id": key.String(), "version": expectedVersion}
}

func casUpdate(next *model.Slot, refs []string, updatedAt time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"current_players": next.CurrentPlayers,
			"is_booked":       next.IsBooked,
			"booking_refs":    refs,
			"updated_at":      updatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
}

// slotWriteError reports a concurrent writer as ErrVersionConflict. It shows
// up either as a duplicate insert or as a write the server aborted with a
// retryable transaction label.
func slotWriteError(err error, key model.SlotKey, msg string) error {
	if mongo.IsDuplicateKeyError(err) || mongotx.IsTransientTransactionError(err) {
		return fmt.Errorf("%w: %s: %w", ErrVersionConflict, key, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
