// README: Pure resolvers mapping attendee fields to plan and safety labels.
package attendee

// ResolvePlan classifies an attendee's transportation plan. Priority: a DD
// stays a DD even if needs_ride was left set; an attendee who has been
// through plan selection without picking dd/rider is self-transporting.
func ResolvePlan(a Attendee) Plan {
	switch {
	case a.IsDD:
		return PlanDD
	case a.NeedsRide:
		return PlanRider
	case a.PlanChosenAt != nil || a.RidePickupLocation != nil || a.RideDropoffLocation != nil:
		return PlanSelf
	default:
		return PlanUnset
	}
}

// ResolveSafetyState classifies an attendee's safety status. Total: every
// representable row resolves to exactly one state.
//
// dd_pending outranks not_participating and participating because a DD's own
// safety is tracked by their own arrival, not by the home-tracking flow they
// administer for their passengers.
func ResolveSafetyState(a Attendee) SafetyState {
	switch {
	case a.HasArrivedSafely():
		return StateArrivedSafely
	case a.IsDD:
		return StateDDPending
	case a.NotParticipating == ParticipationConfirmed && a.GoingHomeAt == nil:
		return StateNotParticipating
	case a.GoingHomeAt != nil:
		return StateParticipating
	default:
		return StateUndecided
	}
}
