// README: Attendee service implements ride/safety-choice writes and the dropoff protocol.
package attendee

import (
	"context"
	"errors"
	"time"

	"rally/internal/types"
)

var (
	ErrNotFound         = errors.New("attendee not found")
	ErrConflict         = errors.New("attendee row conflict")
	ErrBadRequest       = errors.New("bad request")
	ErrAlreadyArrived   = errors.New("attendee already arrived safely")
	ErrNotParticipating = errors.New("attendee is not participating in home tracking")
)

// Store is the durable record of one row per (event, profile). Update is
// conditional on the row's previous updated_at; a false return means a
// concurrent writer won and the caller should re-read and retry.
type Store interface {
	Get(ctx context.Context, eventID, profileID types.ID) (*Attendee, error)
	List(ctx context.Context, eventID types.ID) ([]Attendee, error)
	Insert(ctx context.Context, a *Attendee) error
	Update(ctx context.Context, a *Attendee, prevUpdatedAt time.Time) (bool, error)
	Delete(ctx context.Context, eventID, profileID types.ID) error
}

type Service struct {
	store Store
	feed  *Feed
}

func NewService(store Store, feed *Feed) *Service {
	return &Service{store: store, feed: feed}
}

func (s *Service) Feed() *Feed {
	return s.feed
}

func (s *Service) Get(ctx context.Context, eventID, profileID types.ID) (*Attendee, error) {
	return s.store.Get(ctx, eventID, profileID)
}

func (s *Service) List(ctx context.Context, eventID types.ID) ([]Attendee, error) {
	return s.store.List(ctx, eventID)
}

// Join creates the attendee row with all safety fields unset.
func (s *Service) Join(ctx context.Context, eventID, profileID types.ID, displayName string) (*Attendee, error) {
	if eventID == "" || profileID == "" {
		return nil, ErrBadRequest
	}
	a := &Attendee{
		EventID:     eventID,
		ProfileID:   profileID,
		DisplayName: displayName,
		UpdatedAt:   time.Now(),
	}
	if err := s.store.Insert(ctx, a); err != nil {
		return nil, err
	}
	s.feed.Publish(eventID, Change{New: a})
	return a, nil
}

// Leave removes the row entirely. Only used when the attendee leaves the
// event; safety fields are never reset in place.
func (s *Service) Leave(ctx context.Context, eventID, profileID types.ID) error {
	a, err := s.store.Get(ctx, eventID, profileID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, eventID, profileID); err != nil {
		return err
	}
	s.feed.Publish(eventID, Change{Old: a})
	return nil
}

type SetPlanCommand struct {
	EventID         types.ID
	ProfileID       types.ID
	IsDD            bool
	NeedsRide       bool
	PickupLocation  *string
	DropoffLocation *string
}

// SetRidePlan records the attendee's transportation plan and stamps the
// selection time so ResolvePlan can distinguish "self" from "unset".
func (s *Service) SetRidePlan(ctx context.Context, cmd SetPlanCommand) (*Attendee, error) {
	if cmd.IsDD && cmd.NeedsRide {
		return nil, ErrBadRequest
	}
	return s.mutate(ctx, cmd.EventID, cmd.ProfileID, func(a *Attendee) error {
		now := time.Now()
		a.IsDD = cmd.IsDD
		a.NeedsRide = cmd.NeedsRide
		a.RidePickupLocation = cmd.PickupLocation
		a.RideDropoffLocation = cmd.DropoffLocation
		a.PlanChosenAt = &now
		return nil
	})
}

// RallyHome opts the attendee into home tracking. Idempotent while already
// tracking; rejected once the night is closed out.
func (s *Service) RallyHome(ctx context.Context, eventID, profileID types.ID) (*Attendee, error) {
	return s.mutate(ctx, eventID, profileID, func(a *Attendee) error {
		if a.HasArrivedSafely() {
			return ErrAlreadyArrived
		}
		if a.GoingHomeAt != nil {
			return nil
		}
		now := time.Now()
		a.GoingHomeAt = &now
		return nil
	})
}

// MarkArrived records a safe arrival. Terminal: after this the attendee is
// never re-prompted for the rest of the event.
func (s *Service) MarkArrived(ctx context.Context, eventID, profileID types.ID) (*Attendee, error) {
	return s.mutate(ctx, eventID, profileID, func(a *Attendee) error {
		if a.ArrivedSafely {
			return nil
		}
		now := time.Now()
		a.ArrivedSafely = true
		a.ArrivedAt = &now
		return nil
	})
}

// DeclineParticipation records a "not participating" answer. Not terminal:
// an After-Rally opt-in or a bar-hop transition re-opens the prompt.
func (s *Service) DeclineParticipation(ctx context.Context, eventID, profileID types.ID) (*Attendee, error) {
	return s.mutate(ctx, eventID, profileID, func(a *Attendee) error {
		if a.HasArrivedSafely() {
			return ErrAlreadyArrived
		}
		a.NotParticipating = ParticipationConfirmed
		a.GoingHomeAt = nil
		return nil
	})
}

func (s *Service) OptIntoAfterRally(ctx context.Context, eventID, profileID types.ID, optIn bool) (*Attendee, error) {
	return s.mutate(ctx, eventID, profileID, func(a *Attendee) error {
		a.AfterRallyOptedIn = &optIn
		return nil
	})
}

// ConfirmDropoff is the dropoff protocol: the driver marks a passenger as
// safely dropped off, satisfying the passenger's safety requirement without
// the passenger acting. This is the single permitted write to another
// profile's row, and it only touches the two dd_dropoff fields.
//
// Confirming a passenger who never opted into home tracking is rejected so
// the completion gate cannot be satisfied by a meaningless confirmation.
func (s *Service) ConfirmDropoff(ctx context.Context, eventID, driverID, passengerID types.ID) (*Attendee, error) {
	return s.mutate(ctx, eventID, passengerID, func(a *Attendee) error {
		if a.GoingHomeAt == nil {
			return ErrNotParticipating
		}
		if a.DDDropoffConfirmedAt != nil {
			return nil
		}
		now := time.Now()
		a.DDDropoffConfirmedAt = &now
		a.DDDropoffConfirmedBy = &driverID
		return nil
	})
}

// mutate runs the read-modify-conditional-write cycle shared by every
// attendee operation. A lost write race surfaces ErrConflict; callers
// re-read and retry rather than merge.
func (s *Service) mutate(ctx context.Context, eventID, profileID types.ID, fn func(*Attendee) error) (*Attendee, error) {
	old, err := s.store.Get(ctx, eventID, profileID)
	if err != nil {
		return nil, err
	}

	updated := *old
	if err := fn(&updated); err != nil {
		return nil, err
	}

	prev := old.UpdatedAt
	updated.UpdatedAt = time.Now()
	ok, err := s.store.Update(ctx, &updated, prev)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	s.feed.Publish(eventID, Change{Old: old, New: &updated})
	return &updated, nil
}
