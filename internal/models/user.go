package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the account entity this core reads and writes.
// Points is a derived cache: it must always equal the value recomputed
// from the reaction rows on the user's posts.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Points    int       `json:"points" db:"points"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
