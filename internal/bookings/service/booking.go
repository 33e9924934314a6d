package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "turfbook/internal/bookings/errors"
	"turfbook/internal/bookings/events"
	"turfbook/internal/bookings/repository"
	"turfbook/internal/bookings/validator"
	"turfbook/internal/slots/lock"
	slotrepo "turfbook/internal/slots/repository"
	venuerepo "turfbook/internal/venues/repository"
	"turfbook/pkg/auth"
	"turfbook/pkg/config"
	apperrors "turfbook/pkg/errors"
	"turfbook/pkg/model"
	"turfbook/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	Join(ctx context.Context, bookingID string, req *model.JoinRequest) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID string) (*model.Booking, error)

	GetByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, int64, error)
	ListMine(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	SlotAvailability(ctx context.Context, key model.SlotKey) (*model.SlotAvailability, error)
	DaySchedule(ctx context.Context, venueID, date string) ([]*model.SlotAvailability, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	slots     slotrepo.SlotRepository
	venues    venuerepo.VenueLookup
	locker    lock.Locker
	publisher events.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	slots slotrepo.SlotRepository,
	venues venuerepo.VenueLookup,
	locker lock.Locker,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		slots:     slots,
		venues:    venues,
		locker:    locker,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	sanitizer.SanitizeBookingRequest(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, s.validationError("Booking validation failed", err)
	}

	venue, err := s.activeVenue(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		ID:            repository.NewBookingID(),
		VenueID:       req.VenueID,
		Date:          req.Date,
		Time:          req.Time,
		PlayerCount:   req.PlayerCount,
		IsOpenParty:   req.IsOpenParty,
		Requester:     req.Requester,
		TotalPrice:    model.ProportionalPrice(venue.PricePerHour, req.PlayerCount, venue.Capacity),
		Status:        model.StatusConfirmed,
		PaymentStatus: model.PaymentPending,
	}

	slot, err := s.updateSlot(ctx, req.SlotKey(), true, func(txCtx context.Context, slot *model.Slot) (*model.Slot, error) {
		if err := admit(slot, venue, booking.PlayerCount); err != nil {
			return nil, err
		}
		booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
		if err := s.repo.Create(txCtx, booking); err != nil {
			return nil, apperrors.Internal("Failed to create booking", err)
		}
		return slot.Admit(booking.ID, booking.PlayerCount, venue.Capacity, !booking.IsOpenParty), nil
	})
	if err != nil {
		s.logRejection("Booking rejected", req.SlotKey(), err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"slot", slot.ID,
		"player_count", booking.PlayerCount,
		"open_party", booking.IsOpenParty,
		"current_players", slot.CurrentPlayers,
		"is_booked", slot.IsBooked,
	)
	s.publish(ctx, model.EventBookingCreated, booking, slot)
	return booking, nil
}

func (s *bookingService) Join(ctx context.Context, bookingID string, req *model.JoinRequest) (*model.Booking, error) {
	bookingID = sanitizer.SanitizeIdentifier(bookingID)
	sanitizer.SanitizeJoinRequest(req)
	if err := s.validator.ValidateJoin(req); err != nil {
		return nil, s.validationError("Join validation failed", err)
	}

	party, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := joinable(party); err != nil {
		return nil, err
	}

	venue, err := s.activeVenue(ctx, party.VenueID)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		ID:            repository.NewBookingID(),
		VenueID:       party.VenueID,
		Date:          party.Date,
		Time:          party.Time,
		PlayerCount:   req.PlayerCount,
		IsOpenParty:   true,
		Requester:     req.Requester,
		TotalPrice:    model.ProportionalPrice(venue.PricePerHour, req.PlayerCount, venue.Capacity),
		Status:        model.StatusConfirmed,
		PaymentStatus: model.PaymentPending,
		JoinedFrom:    party.ID,
	}

	slot, err := s.updateSlot(ctx, party.SlotKey(), false, func(txCtx context.Context, slot *model.Slot) (*model.Slot, error) {
		// The party may have been cancelled since it was read.
		current, err := s.repo.FindByID(txCtx, party.ID)
		if err != nil {
			return nil, s.translateRepoError(err, party.ID, "Failed to reload booking")
		}
		if err := joinable(current); err != nil {
			return nil, err
		}
		if err := admit(slot, venue, booking.PlayerCount); err != nil {
			return nil, err
		}
		booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
		if err := s.repo.Create(txCtx, booking); err != nil {
			return nil, apperrors.Internal("Failed to create booking", err)
		}
		return slot.Admit(booking.ID, booking.PlayerCount, venue.Capacity, false), nil
	})
	if err != nil {
		s.logRejection("Join rejected", party.SlotKey(), err)
		return nil, err
	}

	s.cfg.Log.Info("Booking joined successfully",
		"id", booking.ID,
		"joined_from", party.ID,
		"slot", slot.ID,
		"player_count", booking.PlayerCount,
		"current_players", slot.CurrentPlayers,
		"is_booked", slot.IsBooked,
	)
	s.publish(ctx, model.EventBookingJoined, booking, slot)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID string) (*model.Booking, error) {
	bookingID = sanitizer.SanitizeIdentifier(bookingID)

	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.IsCancelled() {
		return nil, apperrors.InvalidState("Booking is already cancelled")
	}

	// Cancellation must still work for venues removed from the catalog.
	venue, err := s.venues.GetVenue(ctx, booking.VenueID)
	if err != nil {
		return nil, s.translateVenueError(err, booking.VenueID)
	}

	var cancelled *model.Booking
	slot, err := s.updateSlot(ctx, booking.SlotKey(), false, func(txCtx context.Context, slot *model.Slot) (*model.Slot, error) {
		updated, err := s.repo.UpdateStatus(txCtx, booking.ID, booking.Status, model.StatusCancelled)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrStatusChanged) {
				return nil, apperrors.InvalidState("Booking is already cancelled")
			}
			return nil, s.translateRepoError(err, booking.ID, "Failed to cancel booking")
		}
		cancelled = updated

		if !slot.HasBooking(booking.ID) {
			s.cfg.Log.Error("Cancelled booking missing from its slot",
				"id", booking.ID,
				"slot", slot.ID,
			)
			return slot, nil
		}
		return slot.Release(booking.ID, booking.PlayerCount, venue.Capacity), nil
	})
	if err != nil {
		s.logRejection("Cancellation rejected", booking.SlotKey(), err)
		return nil, err
	}

	s.cfg.Log.Info("Booking cancelled successfully",
		"id", booking.ID,
		"slot", slot.ID,
		"released_players", booking.PlayerCount,
		"current_players", slot.CurrentPlayers,
		"is_booked", slot.IsBooked,
	)
	s.publish(ctx, model.EventBookingCancelled, cancelled, slot)
	return cancelled, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, int64, error) {
	sanitizer.SanitizeFilter(&filter)
	filter.Limit = config.NormalizePaginationLimit(filter.Limit)
	filter.Offset = config.NormalizeOffset(filter.Offset)
	if err := s.validator.ValidateFilter(&filter); err != nil {
		return nil, 0, s.validationError("Invalid booking filter", err)
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.List(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"limit", filter.Limit,
				"offset", filter.Offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ListMine(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	if user.Email == "" {
		return nil, 0, apperrors.Forbidden("Token carries no email")
	}

	return s.List(ctx, model.BookingFilter{
		RequesterEmail: user.Email,
		Limit:          limit,
		Offset:         offset,
	})
}

// SlotAvailability reports a slot as it stands. Slots nobody has booked yet
// are reported empty without being created.
func (s *bookingService) SlotAvailability(ctx context.Context, key model.SlotKey) (*model.SlotAvailability, error) {
	key = model.SlotKey{
		VenueID: sanitizer.SanitizeIdentifier(key.VenueID),
		Date:    sanitizer.SanitizeIdentifier(key.Date),
		Time:    sanitizer.SanitizeIdentifier(key.Time),
	}
	if key.VenueID == "" || key.Date == "" || key.Time == "" {
		return nil, apperrors.InvalidInput("venue_id, date and time are required")
	}

	venue, err := s.activeVenue(ctx, key.VenueID)
	if err != nil {
		return nil, err
	}

	slot, err := s.slots.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, slotrepo.ErrNotFound) {
			return nil, apperrors.Internal("Failed to retrieve slot", err)
		}
		slot = model.NewSlot(key)
	}

	return availability(slot, venue), nil
}

func (s *bookingService) DaySchedule(ctx context.Context, venueID, date string) ([]*model.SlotAvailability, error) {
	venueID = sanitizer.SanitizeIdentifier(venueID)
	date = sanitizer.SanitizeIdentifier(date)
	if venueID == "" || date == "" {
		return nil, apperrors.InvalidInput("venue_id and date are required")
	}

	venue, err := s.activeVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}

	slots, err := s.slots.ListByVenueAndDate(ctx, venueID, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve slots", err)
	}

	out := make([]*model.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		out = append(out, availability(slot, venue))
	}
	return out, nil
}

// --- Helpers ---

func admit(slot *model.Slot, venue *model.Venue, players int) error {
	if available := slot.AvailableSpots(venue.Capacity); available < players {
		return apperrors.CapacityExceeded(available)
	}
	return nil
}

func joinable(party *model.Booking) error {
	if !party.IsOpenParty {
		return apperrors.InvalidState("Cannot join a closed booking")
	}
	if party.Status != model.StatusConfirmed {
		return apperrors.InvalidState("Only confirmed bookings can be joined")
	}
	return nil
}

func availability(slot *model.Slot, venue *model.Venue) *model.SlotAvailability {
	return &model.SlotAvailability{
		Slot:           slot,
		Capacity:       venue.Capacity,
		AvailableSpots: slot.AvailableSpots(venue.Capacity),
	}
}

func (s *bookingService) activeVenue(ctx context.Context, id string) (*model.Venue, error) {
	venue, err := s.venues.GetVenue(ctx, id)
	if err != nil {
		return nil, s.translateVenueError(err, id)
	}
	if !venue.IsActive {
		return nil, apperrors.NotFoundWithID("Venue", id)
	}
	return venue, nil
}

func (s *bookingService) translateVenueError(err error, id string) error {
	if errors.Is(err, venuerepo.ErrNotFound) {
		return apperrors.NotFoundWithID("Venue", id)
	}
	s.cfg.Log.Error("Failed to resolve venue", "venue_id", id, "error", err)
	return apperrors.Internal("Failed to resolve venue", err)
}

func (s *bookingService) translateRepoError(err error, id string, msg string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal(msg, err)
}

func (s *bookingService) validationError(msg string, err error) error {
	s.cfg.Log.Warn(msg, "error", err)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(msg, verrs.Fields())
	}
	return apperrors.Validation(msg, map[string]any{"error": err.Error()})
}

func (s *bookingService) logRejection(msg string, key model.SlotKey, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr != nil && appErr.HTTPStatus < 500 {
		s.cfg.Log.Warn(msg, "slot", key.String(), "code", appErr.Code, "error", err)
		return
	}
	s.cfg.Log.Error(msg, "slot", key.String(), "error", err)
}

// publish is best-effort: the booking has already committed.
func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking, slot *model.Slot) {
	event := &model.BookingEvent{
		Type:       eventType,
		Booking:    booking,
		Slot:       slot,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"id", booking.ID,
			"error", err,
		)
	}
}
