package model

import "time"

// Venue is the read-only projection of a turf from the venue catalog. The
// booking engine only relies on Capacity, PricePerHour and IsActive.
type Venue struct {
	ID           string    `json:"id" bson:"_id" validate:"required"`
	Name         string    `json:"name" bson:"name" validate:"omitempty,max=200"`
	Capacity     int       `json:"capacity" bson:"capacity" validate:"required,min=1"`
	PricePerHour float64   `json:"price_per_hour" bson:"price_per_hour" validate:"required,gt=0"`
	IsActive     bool      `json:"is_active" bson:"is_active"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
