package model

import "time"

// SlotLock is an advisory lock document held while a slot is read, checked
// and rewritten. ExpiresAt bounds how long a crashed holder can block others.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
