package model

import (
	"fmt"
	"slices"
	"time"
)

// SlotKey is the natural key of a bookable unit.
type SlotKey struct {
	VenueID string `json:"venue_id" bson:"venue_id"`
	Date    string `json:"date" bson:"date"`
	Time    string `json:"time" bson:"time"`
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.VenueID, k.Date, k.Time)
}

type Slot struct {
	ID             string    `json:"id" bson:"_id"`
	VenueID        string    `json:"venue_id" bson:"venue_id"`
	Date           string    `json:"date" bson:"date"`
	Time           string    `json:"time" bson:"time"`
	CurrentPlayers int       `json:"current_players" bson:"current_players"`
	IsBooked       bool      `json:"is_booked" bson:"is_booked"`
	BookingRefs    []string  `json:"booking_refs" bson:"booking_refs"`
	Version        int64     `json:"version" bson:"version"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

func NewSlot(key SlotKey) *Slot {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &Slot{
		ID:          key.String(),
		VenueID:     key.VenueID,
		Date:        key.Date,
		Time:        key.Time,
		BookingRefs: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *Slot) Key() SlotKey {
	return SlotKey{VenueID: s.VenueID, Date: s.Date, Time: s.Time}
}

func (s *Slot) AvailableSpots(capacity int) int {
	return max(capacity-s.CurrentPlayers, 0)
}

// Admit returns the slot state after adding a booking of the given size.
// closes forces the slot shut even when capacity remains.
func (s *Slot) Admit(bookingID string, players, capacity int, closes bool) *Slot {
	next := s.clone()
	next.CurrentPlayers += players
	next.BookingRefs = append(next.BookingRefs, bookingID)
	if next.CurrentPlayers >= capacity || closes {
		next.IsBooked = true
	}
	next.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return next
}

// Release returns the slot state after removing a booking. Dropping below
// capacity always reopens the slot.
func (s *Slot) Release(bookingID string, players, capacity int) *Slot {
	next := s.clone()
	next.CurrentPlayers = max(next.CurrentPlayers-players, 0)
	next.BookingRefs = slices.DeleteFunc(next.BookingRefs, func(id string) bool {
		return id == bookingID
	})
	if next.CurrentPlayers < capacity {
		next.IsBooked = false
	}
	next.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return next
}

func (s *Slot) HasBooking(bookingID string) bool {
	return slices.Contains(s.BookingRefs, bookingID)
}

func (s *Slot) clone() *Slot {
	c := *s
	c.BookingRefs = slices.Clone(s.BookingRefs)
	if c.BookingRefs == nil {
		c.BookingRefs = []string{}
	}
	return &c
}

// SlotAvailability is the read view returned to API callers.
type SlotAvailability struct {
	Slot           *Slot `json:"slot"`
	Capacity       int   `json:"capacity"`
	AvailableSpots int   `json:"available_spots"`
}
