// README: Event store backed by PostgreSQL.
package event

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

func (s *PGStore) Create(ctx context.Context, ev *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO events (id, title, is_bar_hop, status, after_rally_location_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(ev.ID),
		ev.Title,
		ev.IsBarHop,
		string(ev.Status),
		ev.AfterRallyLocationName,
		ev.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Event, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, is_bar_hop, status, after_rally_location_name, created_at
		FROM events
		WHERE id = $1`, string(id),
	)

	var ev Event
	var location sql.NullString
	err := row.Scan(&ev.ID, &ev.Title, &ev.IsBarHop, &ev.Status, &location, &ev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if location.Valid {
		ev.AfterRallyLocationName = &location.String
	}
	return &ev, nil
}

// UpdateStatus transitions the event conditionally on its current status,
// so two organizer clients racing each other cannot double-apply.
func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, afterRallyLocation *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE events
		SET status = $1,
		    after_rally_location_name = COALESCE($2, after_rally_location_name)
		WHERE id = $3 AND status = $4`,
		string(to),
		afterRallyLocation,
		string(id),
		string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
