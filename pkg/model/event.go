package model

import "time"

const (
	EventBookingCreated   = "booking.created"
	EventBookingJoined    = "booking.joined"
	EventBookingCancelled = "booking.cancelled"

	EventVenueUpserted    = "venue.upserted"
	EventVenueDeactivated = "venue.deactivated"
)

// BookingEvent is published after a booking change has committed.
type BookingEvent struct {
	Type       string    `json:"type"`
	Booking    *Booking  `json:"booking"`
	Slot       *Slot     `json:"slot,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// VenueEvent is a catalog change consumed into the venue projection.
type VenueEvent struct {
	Type  string `json:"type"`
	Venue Venue  `json:"venue"`
}
