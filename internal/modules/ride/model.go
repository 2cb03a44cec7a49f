// README: Ride and ride-passenger definitions.
package ride

import (
	"time"

	"rally/internal/types"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusDeparted  Status = "departed"
	StatusCancelled Status = "cancelled"
)

type PassengerStatus string

const (
	PassengerPending  PassengerStatus = "pending"
	PassengerAccepted PassengerStatus = "accepted"
	PassengerDeclined PassengerStatus = "declined"
)

// Ride is one DD's offer to drive people home from an event.
type Ride struct {
	ID             types.ID
	EventID        types.ID
	DriverID       types.ID
	PickupLocation string
	Destination    string
	AvailableSeats int
	DepartureTime  *time.Time
	Status         Status
	CreatedAt      time.Time
}

// RidePassenger is a seat request. At most one accepted row exists per
// (event, passenger): one active driver per rider.
type RidePassenger struct {
	RideID         types.ID
	PassengerID    types.ID
	Status         PassengerStatus
	PickupLocation string
	CreatedAt      time.Time
}
