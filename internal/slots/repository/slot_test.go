package repository

import (
	"errors"
	"testing"
	"time"

	"turfbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var testKey = model.SlotKey{VenueID: "arena", Date: "2030-06-15", Time: "18:00"}

func TestCASFilter_PinsVersion(t *testing.T) {
	assert.Equal(t, bson.M{"_id": "arena|2030-06-15|18:00", "version": int64(4)}, casFilter(testKey, 4))
}

func TestCASUpdate_BumpsVersion(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	next := &model.Slot{CurrentPlayers: 12, IsBooked: true}

	update := casUpdate(next, []string{"b1", "b2"}, now)

	assert.Equal(t, bson.M{"version": 1}, update["$inc"])
	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, 12, set["current_players"])
	assert.Equal(t, true, set["is_booked"])
	assert.Equal(t, []string{"b1", "b2"}, set["booking_refs"])
	assert.Equal(t, now, set["updated_at"])
	assert.NotContains(t, set, "version", "version only moves through $inc")
}

func TestCreateSlotUpdate_OnlyOnInsert(t *testing.T) {
	update := createSlotUpdate(model.NewSlot(testKey))

	require.Len(t, update, 1)
	fields, ok := update["$setOnInsert"].(bson.M)
	require.True(t, ok, "an existing slot must not be overwritten")
	assert.Equal(t, int64(0), fields["version"])
	assert.Equal(t, 0, fields["current_players"])
	assert.Equal(t, false, fields["is_booked"])
	assert.Equal(t, "arena", fields["venue_id"])
	assert.Equal(t, bson.M{"_id": testKey.String()}, slotFilter(testKey))
}

func TestSlotWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{
			name: "transaction write conflict",
			err: mongo.CommandError{
				Code:   112,
				Name:   "WriteConflict",
				Labels: []string{"TransientTransactionError"},
			},
			conflict: true,
		},
		{
			name: "duplicate slot insert",
			err: mongo.WriteException{
				WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
			},
			conflict: true,
		},
		{
			name:     "network failure",
			err:      errors.New("connection reset"),
			conflict: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := slotWriteError(tt.err, testKey, "failed to update slot")
			assert.Equal(t, tt.conflict, errors.Is(err, ErrVersionConflict))
			assert.ErrorContains(t, err, tt.err.Error())
		})
	}
}
