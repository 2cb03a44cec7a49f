// README: Notification record and payload definitions.
package notify

import (
	"time"

	"rally/internal/types"
)

const TypeCarGroupRallyHome = "car_group_rally_home"

// Notification is one in-app inbox row for one recipient.
type Notification struct {
	ID        types.ID
	ProfileID types.ID
	Type      string
	Title     string
	Body      string
	Data      map[string]string
	CreatedAt time.Time
}

// Result is the fan-out outcome returned to the acting attendee's client.
type Result struct {
	Sent       int  `json:"sent"`
	Deduped    bool `json:"deduped,omitempty"`
	NoCarGroup bool `json:"no_car_group,omitempty"`
}
