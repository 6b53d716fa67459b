package model

import "github.com/google/uuid"

// Exhibitor is the cinema operator that owns screens.
type Exhibitor struct {
	ID   uuid.UUID // exhibitors.id
	Name string    // exhibitors.name
}

// Screen is an auditorium owned by an exhibitor. Capacity is the number of
// seats configured when the screen was set up; it may change
// administratively.
//
// Fields:
//
//	ID          – primary key identifier.
//	ExhibitorID – owning exhibitor.
//	Name        – human readable label, e.g. "Room 1".
//	Capacity    – number of seats.
type Screen struct {
	ID          uuid.UUID // screens.id
	ExhibitorID uuid.UUID // screens.exhibitor_id
	Name        string    // screens.name
	Capacity    int       // screens.capacity
}
