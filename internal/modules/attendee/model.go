// README: Attendee row, ride plan and safety state definitions.
package attendee

import (
	"time"

	"rally/internal/types"
)

// Participation is the answer to "are you using R@lly Home tonight?".
// The zero value means the attendee was never asked or never answered;
// there is deliberately no "declined forever" value (see EvaluatePrompt).
type Participation string

const (
	ParticipationUnanswered Participation = ""
	ParticipationConfirmed  Participation = "confirmed"
)

// Plan classifies an attendee's transportation plan for the night.
type Plan string

const (
	PlanDD    Plan = "dd"
	PlanRider Plan = "rider"
	PlanSelf  Plan = "self"
	PlanUnset Plan = "unset"
)

// SafetyState is the resolved safety status used for individual display
// and for the event-completion tally.
type SafetyState string

const (
	StateArrivedSafely    SafetyState = "arrived_safely"
	StateNotParticipating SafetyState = "not_participating"
	StateParticipating    SafetyState = "participating"
	StateDDPending        SafetyState = "dd_pending"
	StateUndecided        SafetyState = "undecided"
)

// Attendee is one row per (event, profile). Ride-plan fields are written by
// the attendee's own client; dd_dropoff fields are the single permitted
// second-writer exception (the driver, via the dropoff protocol).
type Attendee struct {
	EventID     types.ID
	ProfileID   types.ID
	DisplayName string

	IsDD                bool
	NeedsRide           bool
	RidePickupLocation  *string
	RideDropoffLocation *string
	PlanChosenAt        *time.Time

	GoingHomeAt          *time.Time
	ArrivedSafely        bool
	ArrivedAt            *time.Time
	NotParticipating     Participation
	AfterRallyOptedIn    *bool
	DDDropoffConfirmedAt *time.Time
	DDDropoffConfirmedBy *types.ID

	UpdatedAt time.Time
}

// HasArrivedSafely reports whether the attendee's night is closed out:
// either they marked arrival themselves or their driver confirmed the
// dropoff. Terminal for the event; nothing re-opens it.
func (a *Attendee) HasArrivedSafely() bool {
	return a.ArrivedSafely || a.DDDropoffConfirmedAt != nil
}
