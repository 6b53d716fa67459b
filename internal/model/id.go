package model

import "github.com/google/uuid"

// NewID returns a time-ordered UUID (version 7) so primary keys insert in
// roughly ascending order.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
