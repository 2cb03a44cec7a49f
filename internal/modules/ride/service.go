// README: Ride service: offers, seat requests, car groups, and the dropoff protocol entry point.
package ride

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"rally/internal/modules/attendee"
	"rally/internal/types"
)

var (
	ErrRideNotFound     = errors.New("ride not found")
	ErrRequestNotFound  = errors.New("seat request not found")
	ErrAlreadyRequested = errors.New("seat already requested")
	ErrAlreadyInCar     = errors.New("passenger already has an accepted seat for this event")
	ErrRideFull         = errors.New("ride has no seats left")
	ErrRideClosed       = errors.New("ride is not open")
	ErrConflict         = errors.New("ride state conflict")
	ErrBadRequest       = errors.New("bad request")
)

type Store interface {
	CreateRide(ctx context.Context, r *Ride) error
	GetRide(ctx context.Context, rideID types.ID) (*Ride, error)
	ListByEvent(ctx context.Context, eventID types.ID) ([]Ride, error)
	ListByDriver(ctx context.Context, eventID, driverID types.ID) ([]Ride, error)
	InsertPassenger(ctx context.Context, p *RidePassenger) error
	GetPassenger(ctx context.Context, rideID, passengerID types.ID) (*RidePassenger, error)
	ListPassengers(ctx context.Context, rideID types.ID) ([]RidePassenger, error)
	// UpdatePassengerStatus is conditional on the current status; false
	// means a concurrent responder won.
	UpdatePassengerStatus(ctx context.Context, rideID, passengerID types.ID, from, to PassengerStatus) (bool, error)
	CountAccepted(ctx context.Context, rideID types.ID) (int, error)
	HasAcceptedSeat(ctx context.Context, eventID, passengerID types.ID) (bool, error)
}

// Attendees is the slice of the attendee module the ride flows need: row
// lookup for the confirmable list and the dropoff protocol write.
type Attendees interface {
	Get(ctx context.Context, eventID, profileID types.ID) (*attendee.Attendee, error)
	ConfirmDropoff(ctx context.Context, eventID, driverID, passengerID types.ID) (*attendee.Attendee, error)
}

type Service struct {
	store     Store
	attendees Attendees
}

func NewService(store Store, attendees Attendees) *Service {
	return &Service{store: store, attendees: attendees}
}

type OfferCommand struct {
	EventID        types.ID
	DriverID       types.ID
	PickupLocation string
	Destination    string
	AvailableSeats int
	DepartureTime  *time.Time
}

func (s *Service) OfferRide(ctx context.Context, cmd OfferCommand) (*Ride, error) {
	if cmd.EventID == "" || cmd.DriverID == "" || cmd.AvailableSeats < 1 {
		return nil, ErrBadRequest
	}
	r := &Ride{
		ID:             types.ID(uuid.NewString()),
		EventID:        cmd.EventID,
		DriverID:       cmd.DriverID,
		PickupLocation: cmd.PickupLocation,
		Destination:    cmd.Destination,
		AvailableSeats: cmd.AvailableSeats,
		DepartureTime:  cmd.DepartureTime,
		Status:         StatusOpen,
		CreatedAt:      time.Now(),
	}
	if err := s.store.CreateRide(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) GetRide(ctx context.Context, rideID types.ID) (*Ride, error) {
	return s.store.GetRide(ctx, rideID)
}

func (s *Service) ListByEvent(ctx context.Context, eventID types.ID) ([]Ride, error) {
	return s.store.ListByEvent(ctx, eventID)
}

type RequestCommand struct {
	RideID         types.ID
	PassengerID    types.ID
	PickupLocation string
}

func (s *Service) RequestSeat(ctx context.Context, cmd RequestCommand) (*RidePassenger, error) {
	if cmd.RideID == "" || cmd.PassengerID == "" {
		return nil, ErrBadRequest
	}
	r, err := s.store.GetRide(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusOpen {
		return nil, ErrRideClosed
	}
	if r.DriverID == cmd.PassengerID {
		return nil, ErrBadRequest
	}
	if existing, err := s.store.GetPassenger(ctx, cmd.RideID, cmd.PassengerID); err == nil && existing != nil {
		return nil, ErrAlreadyRequested
	} else if err != nil && !errors.Is(err, ErrRequestNotFound) {
		return nil, err
	}

	p := &RidePassenger{
		RideID:         cmd.RideID,
		PassengerID:    cmd.PassengerID,
		Status:         PassengerPending,
		PickupLocation: cmd.PickupLocation,
		CreatedAt:      time.Now(),
	}
	if err := s.store.InsertPassenger(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type RespondCommand struct {
	RideID      types.ID
	PassengerID types.ID
	Accept      bool
}

// RespondToRequest is the driver's accept/decline. Accepting enforces the
// one-active-driver-per-rider invariant against a fresh read and the seat
// budget; both checks plus the conditional status write keep two racing
// accepts from double-seating.
func (s *Service) RespondToRequest(ctx context.Context, cmd RespondCommand) error {
	r, err := s.store.GetRide(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	p, err := s.store.GetPassenger(ctx, cmd.RideID, cmd.PassengerID)
	if err != nil {
		return err
	}
	if p.Status != PassengerPending {
		return ErrConflict
	}

	if !cmd.Accept {
		ok, err := s.store.UpdatePassengerStatus(ctx, cmd.RideID, cmd.PassengerID, PassengerPending, PassengerDeclined)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}
		return nil
	}

	taken, err := s.store.HasAcceptedSeat(ctx, r.EventID, cmd.PassengerID)
	if err != nil {
		return err
	}
	if taken {
		return ErrAlreadyInCar
	}
	accepted, err := s.store.CountAccepted(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	if accepted >= r.AvailableSeats {
		return ErrRideFull
	}

	ok, err := s.store.UpdatePassengerStatus(ctx, cmd.RideID, cmd.PassengerID, PassengerPending, PassengerAccepted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

// CarGroup derives the set of people who share a ride with the actor for
// this event: drivers of rides the actor drives or rides in (accepted),
// plus every accepted passenger of those rides, minus the actor. Never
// stored; recomputed per call.
func (s *Service) CarGroup(ctx context.Context, eventID, actorID types.ID) ([]types.ID, error) {
	rides, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	members := make(map[types.ID]struct{})
	for _, r := range rides {
		passengers, err := s.store.ListPassengers(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		accepted := make([]types.ID, 0, len(passengers))
		for _, p := range passengers {
			if p.Status == PassengerAccepted {
				accepted = append(accepted, p.PassengerID)
			}
		}

		involved := r.DriverID == actorID
		for _, id := range accepted {
			if id == actorID {
				involved = true
			}
		}
		if !involved {
			continue
		}

		members[r.DriverID] = struct{}{}
		for _, id := range accepted {
			members[id] = struct{}{}
		}
	}
	delete(members, actorID)

	out := make([]types.ID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ConfirmablePassengers is the UI-facing list for the DD's dropoff screen:
// accepted passengers of this driver's rides whose resolved safety state is
// participating.
func (s *Service) ConfirmablePassengers(ctx context.Context, eventID, driverID types.ID) ([]attendee.Attendee, error) {
	rides, err := s.store.ListByDriver(ctx, eventID, driverID)
	if err != nil {
		return nil, err
	}

	var out []attendee.Attendee
	seen := make(map[types.ID]struct{})
	for _, r := range rides {
		passengers, err := s.store.ListPassengers(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range passengers {
			if p.Status != PassengerAccepted {
				continue
			}
			if _, dup := seen[p.PassengerID]; dup {
				continue
			}
			seen[p.PassengerID] = struct{}{}

			a, err := s.attendees.Get(ctx, eventID, p.PassengerID)
			if errors.Is(err, attendee.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if attendee.ResolveSafetyState(*a) == attendee.StateParticipating {
				out = append(out, *a)
			}
		}
	}
	return out, nil
}

// ConfirmDropoff runs the dropoff protocol for one passenger. Validation of
// the passenger's participation and the terminal write both live in the
// attendee module; errors pass through unchanged
// (attendee.ErrNotParticipating, attendee.ErrNotFound).
func (s *Service) ConfirmDropoff(ctx context.Context, eventID, driverID, passengerID types.ID) (*attendee.Attendee, error) {
	return s.attendees.ConfirmDropoff(ctx, eventID, driverID, passengerID)
}
