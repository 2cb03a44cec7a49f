// README: Decision table for when a client should show the safety-choice dialog.
package attendee

// EventContext is the snapshot of the parent event the evaluator needs.
// Status is carried for UI copy selection; the decision table itself keys
// off IsBarHop only.
type EventContext struct {
	IsBarHop bool
	Status   string
}

// PromptDecision is the evaluator output. CanPrompt is the only field
// callers should branch on to decide whether to surface the dialog; the
// rest exist so the UI can pick the right copy.
type PromptDecision struct {
	HasArrivedSafely         bool
	IsParticipating          bool
	IsUndecided              bool
	NeedsAfterRallyReconfirm bool
	NeedsBarHopReconfirm     bool
	NeedsReconfirmation      bool
	CanPrompt                bool
}

// EvaluatePrompt decides whether the current client should present (or
// re-present) the safety-choice prompt. atTransitionPoint is true only when
// the caller is crossing a bar-hop stop boundary; it is UI navigation state
// and is never persisted.
//
// An attendee who answered "not participating" and later opts into After
// Rally, or crosses a bar-hop transition point, is legitimately re-prompted:
// plans change as the night goes on. The only permanently-silencing answer
// is a safe arrival.
func EvaluatePrompt(a Attendee, ev EventContext, atTransitionPoint bool) PromptDecision {
	var d PromptDecision

	d.HasArrivedSafely = a.HasArrivedSafely()
	d.IsParticipating = a.GoingHomeAt != nil && !d.HasArrivedSafely
	d.IsUndecided = a.GoingHomeAt == nil && a.NotParticipating == ParticipationUnanswered

	declined := a.NotParticipating == ParticipationConfirmed && a.GoingHomeAt == nil
	d.NeedsAfterRallyReconfirm = declined && a.AfterRallyOptedIn != nil && *a.AfterRallyOptedIn
	d.NeedsBarHopReconfirm = declined && ev.IsBarHop && atTransitionPoint
	d.NeedsReconfirmation = d.NeedsAfterRallyReconfirm || d.NeedsBarHopReconfirm

	d.CanPrompt = !d.HasArrivedSafely && !d.IsParticipating && (d.IsUndecided || d.NeedsReconfirmation)
	return d
}
