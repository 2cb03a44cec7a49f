// README: Location value types.
package location

import (
	"time"

	"rally/internal/types"
)

// Update is a driver's position report during an event.
type Update struct {
	EventID  types.ID
	DriverID types.ID
	Position types.Point
}

// Estimate is the answer to "how far away is my driver?".
type Estimate struct {
	DistanceKm float64
	EtaMinutes int
	ReportedAt time.Time
}
