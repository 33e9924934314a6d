package consumer

import (
	"context"
	"errors"
	"fmt"

	venuerepo "turfbook/internal/venues/repository"
	"turfbook/pkg/kafka"
	"turfbook/pkg/logger"
	"turfbook/pkg/model"
	"turfbook/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

// Invalidator drops cached copies of a venue.
type Invalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// VenueSync applies venue catalog events to the local projection the booking
// engine reads capacity and price from.
type VenueSync struct {
	repo     venuerepo.VenueRepository
	cache    Invalidator
	validate *validator.Validate
	log      *logger.Logger
}

// NewVenueSync builds the handler. cache may be nil when no cache fronts the
// projection.
func NewVenueSync(repo venuerepo.VenueRepository, cache Invalidator, log *logger.Logger) *VenueSync {
	return &VenueSync{
		repo:     repo,
		cache:    cache,
		validate: validator.New(),
		log:      log,
	}
}

// Handle is a kafka.MessageHandler. Malformed events fail permanently so they
// go to the dead letter topic; store failures are transient and retried.
func (s *VenueSync) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.VenueEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode venue event", err)
	}

	eventType := event.Type
	if eventType == "" {
		eventType = msg.GetEventType()
	}
	event.Venue.ID = sanitizer.SanitizeIdentifier(event.Venue.ID)
	if event.Venue.ID == "" {
		event.Venue.ID = sanitizer.SanitizeIdentifier(msg.Key)
	}

	var err error
	switch eventType {
	case model.EventVenueUpserted:
		err = s.upsert(ctx, &event.Venue)
	case model.EventVenueDeactivated:
		err = s.deactivate(ctx, event.Venue.ID)
	default:
		return kafka.NewPermanentError(fmt.Sprintf("unknown venue event type %q", eventType), kafka.ErrInvalidMessage)
	}
	if err != nil {
		return err
	}

	s.invalidate(ctx, event.Venue.ID)
	s.log.Info("Venue projection updated",
		"event_type", eventType,
		"venue_id", event.Venue.ID,
		"event_id", msg.GetEventID(),
	)
	return nil
}

func (s *VenueSync) upsert(ctx context.Context, venue *model.Venue) error {
	venue.Name = sanitizer.SanitizeName(venue.Name)
	if err := s.validate.Struct(venue); err != nil {
		return kafka.NewPermanentError("invalid venue payload", err).WithDetail("venue_id", venue.ID)
	}

	if err := s.repo.Upsert(ctx, venue); err != nil {
		return kafka.NewTransientError("failed to upsert venue", err)
	}
	return nil
}

func (s *VenueSync) deactivate(ctx context.Context, id string) error {
	if id == "" {
		return kafka.NewPermanentError("deactivation without venue id", kafka.ErrInvalidMessage)
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, venuerepo.ErrNotFound) {
			s.log.Warn("Deactivation for unknown venue ignored", "venue_id", id)
			return nil
		}
		return kafka.NewTransientError("failed to deactivate venue", err)
	}
	return nil
}

func (s *VenueSync) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("Failed to invalidate cached venue", "venue_id", id, "error", err)
	}
}
