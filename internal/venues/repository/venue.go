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
	CollectionName = "Venues"
)

// VenueLookup is the read side the booking engine depends on. Inactive
// venues are returned as stored; callers decide what inactive means.
type VenueLookup interface {
	GetVenue(ctx context.Context, id string) (*model.Venue, error)
}

// VenueRepository maintains the local projection of the venue catalog.
type VenueRepository interface {
	VenueLookup
	Upsert(ctx context.Context, venue *model.Venue) error
	Deactivate(ctx context.Context, id string) error
}

type mongoVenueRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVenueRepository(cfg *config.Config) VenueRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVenueRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoVenueRepository) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var venue model.Venue
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&venue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find venue: %w", err)
	}
	return &venue, nil
}

// Upsert replaces the projection unless a newer version is already stored,
// so replayed catalog events cannot roll a venue back.
func (r *mongoVenueRepository) Upsert(ctx context.Context, venue *model.Venue) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if venue.UpdatedAt.IsZero() {
		venue.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	filter := bson.M{
		"_id": venue.ID,
		"$or": bson.A{
			bson.M{"updated_at": bson.M{"$lte": venue.UpdatedAt}},
			bson.M{"updated_at": bson.M{"$exists": false}},
		},
	}
	_, err := r.collection.ReplaceOne(ctx, filter, venue, options.Replace().SetUpsert(true))
	if err != nil {
		// A newer document exists, so the filter missed and the upsert hit its _id.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to upsert venue: %w", err)
	}
	return nil
}

func (r *mongoVenueRepository) Deactivate(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"is_active":  false,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate venue: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
