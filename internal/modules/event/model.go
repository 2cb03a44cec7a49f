// README: Event aggregate and status definitions.
package event

import (
	"time"

	"rally/internal/types"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusLive       Status = "live"
	StatusAfterRally Status = "after_rally"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Event struct {
	ID                     types.ID
	Title                  string
	IsBarHop               bool
	Status                 Status
	AfterRallyLocationName *string
	CreatedAt              time.Time
}

// AllowedTransitions represents the event lifecycle as code. Transitions
// only move forward; cancelled is reachable from every non-terminal state
// and, like completed, has no outgoing edges. After Rally is an optional
// phase, so live may complete directly.
var AllowedTransitions = map[Status][]Status{
	StatusDraft:      {StatusLive, StatusCancelled},
	StatusLive:       {StatusAfterRally, StatusCompleted, StatusCancelled},
	StatusAfterRally: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
