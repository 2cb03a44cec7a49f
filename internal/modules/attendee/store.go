// README: Attendee store backed by PostgreSQL.
package attendee

import (
	"context"
	"database/sql"
	"errors"
	"time"

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

const attendeeColumns = `
	event_id, profile_id, display_name,
	is_dd, needs_ride, ride_pickup_location, ride_dropoff_location, plan_chosen_at,
	going_home_at, arrived_safely, arrived_at, not_participating_confirmed,
	after_rally_opted_in, dd_dropoff_confirmed_at, dd_dropoff_confirmed_by,
	updated_at`

func (s *PGStore) Get(ctx context.Context, eventID, profileID types.ID) (*Attendee, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+attendeeColumns+`
		FROM attendees
		WHERE event_id = $1 AND profile_id = $2`,
		string(eventID), string(profileID),
	)
	a, err := scanAttendee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PGStore) List(ctx context.Context, eventID types.ID) ([]Attendee, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+attendeeColumns+`
		FROM attendees
		WHERE event_id = $1
		ORDER BY display_name, profile_id`,
		string(eventID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *PGStore) Insert(ctx context.Context, a *Attendee) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO attendees (`+attendeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		string(a.EventID),
		string(a.ProfileID),
		a.DisplayName,
		a.IsDD,
		a.NeedsRide,
		a.RidePickupLocation,
		a.RideDropoffLocation,
		a.PlanChosenAt,
		a.GoingHomeAt,
		a.ArrivedSafely,
		a.ArrivedAt,
		participationPtr(a.NotParticipating),
		a.AfterRallyOptedIn,
		a.DDDropoffConfirmedAt,
		idPtr(a.DDDropoffConfirmedBy),
		a.UpdatedAt,
	)
	return err
}

// Update writes the full row conditionally on updated_at being unchanged
// since the caller's read. Zero rows affected means a concurrent writer won.
func (s *PGStore) Update(ctx context.Context, a *Attendee, prevUpdatedAt time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE attendees
		SET display_name = $3,
		    is_dd = $4,
		    needs_ride = $5,
		    ride_pickup_location = $6,
		    ride_dropoff_location = $7,
		    plan_chosen_at = $8,
		    going_home_at = $9,
		    arrived_safely = $10,
		    arrived_at = $11,
		    not_participating_confirmed = $12,
		    after_rally_opted_in = $13,
		    dd_dropoff_confirmed_at = $14,
		    dd_dropoff_confirmed_by = $15,
		    updated_at = $16
		WHERE event_id = $1 AND profile_id = $2 AND updated_at = $17`,
		string(a.EventID),
		string(a.ProfileID),
		a.DisplayName,
		a.IsDD,
		a.NeedsRide,
		a.RidePickupLocation,
		a.RideDropoffLocation,
		a.PlanChosenAt,
		a.GoingHomeAt,
		a.ArrivedSafely,
		a.ArrivedAt,
		participationPtr(a.NotParticipating),
		a.AfterRallyOptedIn,
		a.DDDropoffConfirmedAt,
		idPtr(a.DDDropoffConfirmedBy),
		a.UpdatedAt,
		prevUpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) Delete(ctx context.Context, eventID, profileID types.ID) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM attendees WHERE event_id = $1 AND profile_id = $2`,
		string(eventID), string(profileID),
	)
	return err
}

func scanAttendee(row pgx.Row) (*Attendee, error) {
	var a Attendee
	var notParticipating sql.NullString
	var pickup, dropoff sql.NullString
	var planChosenAt, goingHomeAt, arrivedAt, ddConfirmedAt sql.NullTime
	var afterRally sql.NullBool
	var ddConfirmedBy sql.NullString

	err := row.Scan(
		&a.EventID, &a.ProfileID, &a.DisplayName,
		&a.IsDD, &a.NeedsRide, &pickup, &dropoff, &planChosenAt,
		&goingHomeAt, &a.ArrivedSafely, &arrivedAt, &notParticipating,
		&afterRally, &ddConfirmedAt, &ddConfirmedBy,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pickup.Valid {
		a.RidePickupLocation = &pickup.String
	}
	if dropoff.Valid {
		a.RideDropoffLocation = &dropoff.String
	}
	a.PlanChosenAt = toTimePtr(planChosenAt)
	a.GoingHomeAt = toTimePtr(goingHomeAt)
	a.ArrivedAt = toTimePtr(arrivedAt)
	a.DDDropoffConfirmedAt = toTimePtr(ddConfirmedAt)
	if notParticipating.Valid {
		a.NotParticipating = Participation(notParticipating.String)
	}
	if afterRally.Valid {
		v := afterRally.Bool
		a.AfterRallyOptedIn = &v
	}
	if ddConfirmedBy.Valid {
		id := types.ID(ddConfirmedBy.String)
		a.DDDropoffConfirmedBy = &id
	}
	return &a, nil
}

func participationPtr(p Participation) *string {
	if p == ParticipationUnanswered {
		return nil
	}
	v := string(p)
	return &v
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
