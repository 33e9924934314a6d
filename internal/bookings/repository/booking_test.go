package repository

import (
	"testing"
	"time"

	"turfbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStatusTransition(t *testing.T) {
	now := time.Date(2030, 6, 15, 18, 0, 0, 0, time.UTC)

	filter, update := statusTransition("b-1", model.StatusConfirmed, model.StatusCancelled, now)
	assert.Equal(t, bson.M{"_id": "b-1", "status": model.StatusConfirmed}, filter,
		"the update must not apply once the status has moved on")
	assert.Equal(t, bson.M{"$set": bson.M{"status": model.StatusCancelled, "cancelled_at": now}}, update)

	_, update = statusTransition("b-1", model.StatusPending, model.StatusConfirmed, now)
	assert.Equal(t, bson.M{"$set": bson.M{"status": model.StatusConfirmed}}, update)
}

func TestBuildListFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter model.BookingFilter
		want   bson.M
	}{
		{name: "empty", filter: model.BookingFilter{}, want: bson.M{}},
		{
			name:   "all fields",
			filter: model.BookingFilter{RequesterEmail: "ana@example.com", VenueID: "arena", Status: model.StatusConfirmed},
			want:   bson.M{"requester.email": "ana@example.com", "venue_id": "arena", "status": model.StatusConfirmed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildListFilter(tt.filter))
		})
	}
}

func TestNewBookingID(t *testing.T) {
	id := NewBookingID()
	assert.True(t, primitive.IsValidObjectID(id))
	assert.NotEqual(t, id, NewBookingID())
}
