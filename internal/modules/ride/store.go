// README: Ride store backed by PostgreSQL.
package ride

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rally/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateRide(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (id, event_id, driver_id, pickup_location, destination,
		                   available_seats, departure_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(r.ID),
		string(r.EventID),
		string(r.DriverID),
		r.PickupLocation,
		r.Destination,
		r.AvailableSeats,
		r.DepartureTime,
		string(r.Status),
		r.CreatedAt,
	)
	return err
}

const rideColumns = `
	id, event_id, driver_id, pickup_location, destination,
	available_seats, departure_time, status, created_at`

func (s *PGStore) GetRide(ctx context.Context, rideID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(rideID),
	)
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PGStore) ListByEvent(ctx context.Context, eventID types.ID) ([]Ride, error) {
	return s.listRides(ctx, `
		SELECT `+rideColumns+` FROM rides WHERE event_id = $1 ORDER BY created_at`,
		string(eventID))
}

func (s *PGStore) ListByDriver(ctx context.Context, eventID, driverID types.ID) ([]Ride, error) {
	return s.listRides(ctx, `
		SELECT `+rideColumns+` FROM rides WHERE event_id = $1 AND driver_id = $2 ORDER BY created_at`,
		string(eventID), string(driverID))
}

func (s *PGStore) listRides(ctx context.Context, query string, args ...any) ([]Ride, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PGStore) InsertPassenger(ctx context.Context, p *RidePassenger) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_passengers (ride_id, passenger_id, status, pickup_location, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(p.RideID),
		string(p.PassengerID),
		string(p.Status),
		p.PickupLocation,
		p.CreatedAt,
	)
	return err
}

func (s *PGStore) GetPassenger(ctx context.Context, rideID, passengerID types.ID) (*RidePassenger, error) {
	row := s.db.QueryRow(ctx, `
		SELECT ride_id, passenger_id, status, pickup_location, created_at
		FROM ride_passengers
		WHERE ride_id = $1 AND passenger_id = $2`,
		string(rideID), string(passengerID),
	)
	var p RidePassenger
	err := row.Scan(&p.RideID, &p.PassengerID, &p.Status, &p.PickupLocation, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) ListPassengers(ctx context.Context, rideID types.ID) ([]RidePassenger, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ride_id, passenger_id, status, pickup_location, created_at
		FROM ride_passengers
		WHERE ride_id = $1
		ORDER BY created_at`,
		string(rideID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RidePassenger
	for rows.Next() {
		var p RidePassenger
		if err := rows.Scan(&p.RideID, &p.PassengerID, &p.Status, &p.PickupLocation, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdatePassengerStatus(ctx context.Context, rideID, passengerID types.ID, from, to PassengerStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE ride_passengers
		SET status = $1
		WHERE ride_id = $2 AND passenger_id = $3 AND status = $4`,
		string(to),
		string(rideID),
		string(passengerID),
		string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) CountAccepted(ctx context.Context, rideID types.ID) (int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM ride_passengers
		WHERE ride_id = $1 AND status = 'accepted'`,
		string(rideID),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// HasAcceptedSeat backs the one-active-driver-per-rider invariant.
func (s *PGStore) HasAcceptedSeat(ctx context.Context, eventID, passengerID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ride_passengers rp
			JOIN rides r ON r.id = rp.ride_id
			WHERE r.event_id = $1
			  AND rp.passenger_id = $2
			  AND rp.status = 'accepted'
		)`,
		string(eventID), string(passengerID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	var departure sql.NullTime
	err := row.Scan(
		&r.ID, &r.EventID, &r.DriverID, &r.PickupLocation, &r.Destination,
		&r.AvailableSeats, &departure, &r.Status, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if departure.Valid {
		t := departure.Time
		r.DepartureTime = &t
	}
	return &r, nil
}
