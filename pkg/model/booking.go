package model

import (
	"math"
	"math/big"
	"strconv"
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"

	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

type Requester struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" bson:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" bson:"phone" validate:"required,e164"`
}

type Booking struct {
	ID            string     `json:"id,omitempty" bson:"_id,omitempty"`
	VenueID       string     `json:"venue_id" bson:"venue_id"`
	Date          string     `json:"date" bson:"date"`
	Time          string     `json:"time" bson:"time"`
	PlayerCount   int        `json:"player_count" bson:"player_count"`
	IsOpenParty   bool       `json:"is_open_party" bson:"is_open_party"`
	Requester     Requester  `json:"requester" bson:"requester"`
	TotalPrice    int64      `json:"total_price" bson:"total_price"`
	Status        string     `json:"status" bson:"status"`
	PaymentStatus string     `json:"payment_status" bson:"payment_status"`
	JoinedFrom    string     `json:"joined_from,omitempty" bson:"joined_from,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

func (b *Booking) SlotKey() SlotKey {
	return SlotKey{VenueID: b.VenueID, Date: b.Date, Time: b.Time}
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// BookingRequest is the input of a new reservation.
type BookingRequest struct {
	VenueID     string    `json:"venue_id" validate:"required,max=64"`
	Date        string    `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string    `json:"time" validate:"required,datetime=15:04"`
	PlayerCount int       `json:"player_count" validate:"required,min=1,max=500"`
	IsOpenParty bool      `json:"is_open_party"`
	Requester   Requester `json:"requester"`
}

func (r *BookingRequest) SlotKey() SlotKey {
	return SlotKey{VenueID: r.VenueID, Date: r.Date, Time: r.Time}
}

// JoinRequest adds players to an existing open party.
type JoinRequest struct {
	PlayerCount int       `json:"player_count" validate:"required,min=1,max=500"`
	Requester   Requester `json:"requester"`
}

type BookingFilter struct {
	RequesterEmail string `validate:"omitempty,email"`
	VenueID        string `validate:"omitempty,max=64"`
	Status         string `validate:"omitempty,oneof=pending confirmed cancelled"`
	Limit          int
	Offset         int64
}

// ProportionalPrice charges the share of the hourly price matching the share
// of the venue capacity taken, rounded half-up to whole currency units. The
// price is read as the decimal it prints as, so 0.145 is exactly 0.145.
func ProportionalPrice(pricePerHour float64, playerCount, capacity int) int64 {
	if capacity <= 0 || playerCount <= 0 || !(pricePerHour > 0) || math.IsInf(pricePerHour, 0) {
		return 0
	}
	price, ok := new(big.Rat).SetString(strconv.FormatFloat(pricePerHour, 'f', -1, 64))
	if !ok {
		return 0
	}
	share := price.Mul(price, big.NewRat(int64(playerCount), int64(capacity)))

	// floor(share + 1/2) = floor((2*num + den) / (2*den))
	num := new(big.Int).Lsh(share.Num(), 1)
	num.Add(num, share.Denom())
	den := new(big.Int).Lsh(share.Denom(), 1)
	return num.Quo(num, den).Int64()
}
