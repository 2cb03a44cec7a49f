// README: Event lifecycle controller; the completion gate lives here.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rally/internal/modules/attendee"
	"rally/internal/types"
)

var (
	ErrNotFound         = errors.New("event not found")
	ErrInvalidState     = errors.New("invalid event state transition")
	ErrConflict         = errors.New("event state conflict")
	ErrLocationRequired = errors.New("after-rally location name is required")
	ErrBadRequest       = errors.New("bad request")
)

// SafetyIncompleteError rejects completeRally while anyone's safety status
// is still open. Expected and frequent, not a bug condition: the organizer
// remediates (prompts the stragglers) and re-invokes.
type SafetyIncompleteError struct {
	Counts map[attendee.SafetyState]int
}

// Pending is the number of attendees blocking completion.
func (e *SafetyIncompleteError) Pending() int {
	return e.Counts[attendee.StateParticipating] +
		e.Counts[attendee.StateUndecided] +
		e.Counts[attendee.StateDDPending]
}

func (e *SafetyIncompleteError) Error() string {
	return fmt.Sprintf("cannot complete rally: %d attendees still pending (participating=%d undecided=%d dd_pending=%d)",
		e.Pending(),
		e.Counts[attendee.StateParticipating],
		e.Counts[attendee.StateUndecided],
		e.Counts[attendee.StateDDPending],
	)
}

// Store persists events. UpdateStatus is conditional on the current status;
// a false return means a concurrent transition won.
type Store interface {
	Create(ctx context.Context, ev *Event) error
	Get(ctx context.Context, id types.ID) (*Event, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, afterRallyLocation *string) (bool, error)
}

// AttendeeLister is the slice of the attendee module the gate needs.
type AttendeeLister interface {
	List(ctx context.Context, eventID types.ID) ([]attendee.Attendee, error)
}

type Service struct {
	store     Store
	attendees AttendeeLister
}

func NewService(store Store, attendees AttendeeLister) *Service {
	return &Service{store: store, attendees: attendees}
}

type CreateCommand struct {
	Title    string
	IsBarHop bool
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Event, error) {
	if cmd.Title == "" {
		return nil, ErrBadRequest
	}
	ev := &Event{
		ID:        types.ID(uuid.NewString()),
		Title:     cmd.Title,
		IsBarHop:  cmd.IsBarHop,
		Status:    StatusDraft,
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Event, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) StartRally(ctx context.Context, id types.ID) error {
	return s.transition(ctx, id, StatusLive, nil)
}

// EndRallyToAfterParty moves the event into its optional second phase. The
// location name is what attendees see, so an empty one is rejected before
// any state changes.
func (s *Service) EndRallyToAfterParty(ctx context.Context, id types.ID, locationName string) error {
	if locationName == "" {
		return ErrLocationRequired
	}
	return s.transition(ctx, id, StatusAfterRally, &locationName)
}

// CompleteRally closes the event out, gated on safety completeness: every
// attendee must be in a terminal safety state. The tally is taken fresh at
// call time because attendees change state concurrently with the
// organizer's decision; a cached tally would let an open status slip
// through. No waiting or retry happens here; callers re-invoke after
// remediating.
func (s *Service) CompleteRally(ctx context.Context, id types.ID) error {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(ev.Status, StatusCompleted) {
		return ErrInvalidState
	}

	all, err := s.attendees.List(ctx, id)
	if err != nil {
		return err
	}
	counts := make(map[attendee.SafetyState]int)
	for _, a := range all {
		counts[attendee.ResolveSafetyState(a)]++
	}
	incomplete := &SafetyIncompleteError{Counts: counts}
	if incomplete.Pending() > 0 {
		return incomplete
	}

	ok, err := s.store.UpdateStatus(ctx, id, ev.Status, StatusCompleted, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *Service) Cancel(ctx context.Context, id types.ID) error {
	return s.transition(ctx, id, StatusCancelled, nil)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, afterRallyLocation *string) error {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(ev.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, id, ev.Status, to, afterRallyLocation)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
