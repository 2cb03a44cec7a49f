// README: Ride service tests (seat invariants, car groups, dropoff protocol).
package ride

import (
	"context"
	"sync"
	"testing"
	"time"

	"rally/internal/modules/attendee"
	"rally/internal/types"
)

type memStore struct {
	mu         sync.Mutex
	rides      map[types.ID]Ride
	passengers map[types.ID][]RidePassenger
}

func newMemStore() *memStore {
	return &memStore{
		rides:      make(map[types.ID]Ride),
		passengers: make(map[types.ID][]RidePassenger),
	}
}

func (m *memStore) CreateRide(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = *r
	return nil
}

func (m *memStore) GetRide(_ context.Context, rideID types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return nil, ErrRideNotFound
	}
	cp := r
	return &cp, nil
}

func (m *memStore) ListByEvent(_ context.Context, eventID types.ID) ([]Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Ride
	for _, r := range m.rides {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListByDriver(_ context.Context, eventID, driverID types.ID) ([]Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Ride
	for _, r := range m.rides {
		if r.EventID == eventID && r.DriverID == driverID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) InsertPassenger(_ context.Context, p *RidePassenger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passengers[p.RideID] = append(m.passengers[p.RideID], *p)
	return nil
}

func (m *memStore) GetPassenger(_ context.Context, rideID, passengerID types.ID) (*RidePassenger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.passengers[rideID] {
		if p.PassengerID == passengerID {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrRequestNotFound
}

func (m *memStore) ListPassengers(_ context.Context, rideID types.ID) ([]RidePassenger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RidePassenger, len(m.passengers[rideID]))
	copy(out, m.passengers[rideID])
	return out, nil
}

func (m *memStore) UpdatePassengerStatus(_ context.Context, rideID, passengerID types.ID, from, to PassengerStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.passengers[rideID] {
		if p.PassengerID == passengerID && p.Status == from {
			m.passengers[rideID][i].Status = to
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CountAccepted(_ context.Context, rideID types.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.passengers[rideID] {
		if p.Status == PassengerAccepted {
			n++
		}
	}
	return n, nil
}

func (m *memStore) HasAcceptedSeat(_ context.Context, eventID, passengerID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for rideID, list := range m.passengers {
		if m.rides[rideID].EventID != eventID {
			continue
		}
		for _, p := range list {
			if p.PassengerID == passengerID && p.Status == PassengerAccepted {
				return true, nil
			}
		}
	}
	return false, nil
}

// stubAttendees answers Get from a fixed map and records ConfirmDropoff calls.
type stubAttendees struct {
	rows      map[types.ID]attendee.Attendee
	confirmed []types.ID
}

func (s *stubAttendees) Get(_ context.Context, _, profileID types.ID) (*attendee.Attendee, error) {
	a, ok := s.rows[profileID]
	if !ok {
		return nil, attendee.ErrNotFound
	}
	cp := a
	return &cp, nil
}

func (s *stubAttendees) ConfirmDropoff(_ context.Context, _, driverID, passengerID types.ID) (*attendee.Attendee, error) {
	a, ok := s.rows[passengerID]
	if !ok {
		return nil, attendee.ErrNotFound
	}
	if a.GoingHomeAt == nil {
		return nil, attendee.ErrNotParticipating
	}
	now := time.Now()
	a.DDDropoffConfirmedAt = &now
	a.DDDropoffConfirmedBy = &driverID
	s.rows[passengerID] = a
	s.confirmed = append(s.confirmed, passengerID)
	cp := a
	return &cp, nil
}

func offer(t *testing.T, svc *Service, eventID, driverID types.ID, seats int) *Ride {
	t.Helper()
	r, err := svc.OfferRide(context.Background(), OfferCommand{
		EventID:        eventID,
		DriverID:       driverID,
		PickupLocation: "venue",
		Destination:    "north side",
		AvailableSeats: seats,
	})
	if err != nil {
		t.Fatalf("offer ride: %v", err)
	}
	return r
}

func requestAndAccept(t *testing.T, svc *Service, rideID, passengerID types.ID) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.RequestSeat(ctx, RequestCommand{RideID: rideID, PassengerID: passengerID}); err != nil {
		t.Fatalf("request seat for %s: %v", passengerID, err)
	}
	if err := svc.RespondToRequest(ctx, RespondCommand{RideID: rideID, PassengerID: passengerID, Accept: true}); err != nil {
		t.Fatalf("accept %s: %v", passengerID, err)
	}
}

func TestSeatFlow(t *testing.T) {
	svc := NewService(newMemStore(), &stubAttendees{})
	ctx := context.Background()
	r := offer(t, svc, "e1", "driver", 2)

	if _, err := svc.RequestSeat(ctx, RequestCommand{RideID: r.ID, PassengerID: "driver"}); err != ErrBadRequest {
		t.Fatalf("driver requesting own ride: expected ErrBadRequest, got %v", err)
	}

	requestAndAccept(t, svc, r.ID, "p1")

	if _, err := svc.RequestSeat(ctx, RequestCommand{RideID: r.ID, PassengerID: "p1"}); err != ErrAlreadyRequested {
		t.Fatalf("duplicate request: expected ErrAlreadyRequested, got %v", err)
	}

	// Declines do not consume seats.
	if _, err := svc.RequestSeat(ctx, RequestCommand{RideID: r.ID, PassengerID: "p2"}); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := svc.RespondToRequest(ctx, RespondCommand{RideID: r.ID, PassengerID: "p2"}); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if err := svc.RespondToRequest(ctx, RespondCommand{RideID: r.ID, PassengerID: "p2", Accept: true}); err != ErrConflict {
		t.Fatalf("re-respond to settled request: expected ErrConflict, got %v", err)
	}

	requestAndAccept(t, svc, r.ID, "p3")

	// Ride is now at capacity.
	if _, err := svc.RequestSeat(ctx, RequestCommand{RideID: r.ID, PassengerID: "p4"}); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := svc.RespondToRequest(ctx, RespondCommand{RideID: r.ID, PassengerID: "p4", Accept: true}); err != ErrRideFull {
		t.Fatalf("over capacity: expected ErrRideFull, got %v", err)
	}
}

func TestOneAcceptedSeatPerEvent(t *testing.T) {
	svc := NewService(newMemStore(), &stubAttendees{})
	ctx := context.Background()
	r1 := offer(t, svc, "e1", "d1", 3)
	r2 := offer(t, svc, "e1", "d2", 3)

	requestAndAccept(t, svc, r1.ID, "p1")

	if _, err := svc.RequestSeat(ctx, RequestCommand{RideID: r2.ID, PassengerID: "p1"}); err != nil {
		t.Fatalf("request second ride: %v", err)
	}
	if err := svc.RespondToRequest(ctx, RespondCommand{RideID: r2.ID, PassengerID: "p1", Accept: true}); err != ErrAlreadyInCar {
		t.Fatalf("second accept: expected ErrAlreadyInCar, got %v", err)
	}

	// A different event is a fresh invariant scope.
	r3 := offer(t, svc, "e2", "d3", 3)
	requestAndAccept(t, svc, r3.ID, "p1")
}

func TestCarGroup(t *testing.T) {
	svc := NewService(newMemStore(), &stubAttendees{})
	ctx := context.Background()

	r1 := offer(t, svc, "e1", "d1", 3)
	requestAndAccept(t, svc, r1.ID, "p1")
	requestAndAccept(t, svc, r1.ID, "p2")
	// pending request must not join the group
	if _, err := svc.RequestSeat(ctx, RequestCommand{RideID: r1.ID, PassengerID: "p9"}); err != nil {
		t.Fatalf("request: %v", err)
	}
	// unrelated ride in the same event
	r2 := offer(t, svc, "e1", "d2", 3)
	requestAndAccept(t, svc, r2.ID, "p3")

	tests := []struct {
		actor types.ID
		want  []types.ID
	}{
		{"p1", []types.ID{"d1", "p2"}},
		{"d1", []types.ID{"p1", "p2"}},
		{"p3", []types.ID{"d2"}},
		{"p9", nil}, // pending rider has no car group yet
		{"stranger", nil},
	}
	for _, tt := range tests {
		got, err := svc.CarGroup(ctx, "e1", tt.actor)
		if err != nil {
			t.Fatalf("car group for %s: %v", tt.actor, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("car group for %s = %v, want %v", tt.actor, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("car group for %s = %v, want %v", tt.actor, got, tt.want)
			}
		}
	}
}

func TestConfirmablePassengers(t *testing.T) {
	now := time.Now()
	stub := &stubAttendees{rows: map[types.ID]attendee.Attendee{
		"p_home":    {EventID: "e1", ProfileID: "p_home", GoingHomeAt: &now},
		"p_quiet":   {EventID: "e1", ProfileID: "p_quiet"},
		"p_arrived": {EventID: "e1", ProfileID: "p_arrived", GoingHomeAt: &now, ArrivedSafely: true},
	}}
	svc := NewService(newMemStore(), stub)
	r := offer(t, svc, "e1", "driver", 4)
	for _, p := range []types.ID{"p_home", "p_quiet", "p_arrived"} {
		requestAndAccept(t, svc, r.ID, p)
	}

	got, err := svc.ConfirmablePassengers(context.Background(), "e1", "driver")
	if err != nil {
		t.Fatalf("confirmable: %v", err)
	}
	if len(got) != 1 || got[0].ProfileID != "p_home" {
		t.Fatalf("expected only the participating passenger, got %+v", got)
	}
}

func TestConfirmDropoffPassthrough(t *testing.T) {
	now := time.Now()
	stub := &stubAttendees{rows: map[types.ID]attendee.Attendee{
		"p_home":  {EventID: "e1", ProfileID: "p_home", GoingHomeAt: &now},
		"p_quiet": {EventID: "e1", ProfileID: "p_quiet"},
	}}
	svc := NewService(newMemStore(), stub)
	ctx := context.Background()

	if _, err := svc.ConfirmDropoff(ctx, "e1", "driver", "p_quiet"); err != attendee.ErrNotParticipating {
		t.Fatalf("expected ErrNotParticipating, got %v", err)
	}
	if _, err := svc.ConfirmDropoff(ctx, "e1", "driver", "ghost"); err != attendee.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	a, err := svc.ConfirmDropoff(ctx, "e1", "driver", "p_home")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if a.DDDropoffConfirmedBy == nil || *a.DDDropoffConfirmedBy != "driver" {
		t.Fatalf("expected confirmation by driver, got %+v", a)
	}
	if len(stub.confirmed) != 1 || stub.confirmed[0] != "p_home" {
		t.Fatalf("expected one confirmation for p_home, got %v", stub.confirmed)
	}
}

func TestOfferValidation(t *testing.T) {
	svc := NewService(newMemStore(), &stubAttendees{})
	if _, err := svc.OfferRide(context.Background(), OfferCommand{EventID: "e1", DriverID: "d1"}); err != ErrBadRequest {
		t.Fatalf("zero seats: expected ErrBadRequest, got %v", err)
	}
}
