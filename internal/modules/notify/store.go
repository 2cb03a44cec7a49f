// README: Notification store: PostgreSQL inbox rows plus Redis dedup markers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"rally/internal/types"
)

const dedupKeyPrefix = "notify:car_group:%s:%s"

type PGStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewPGStore(db *pgxpool.Pool, redis *redis.Client) *PGStore {
	return &PGStore{db: db, redis: redis}
}

func (s *PGStore) Insert(ctx context.Context, n *Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO notifications (id, profile_id, type, title, body, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(n.ID),
		string(n.ProfileID),
		n.Type,
		n.Title,
		n.Body,
		data,
		n.CreatedAt,
	)
	return err
}

// WasRecentlySent reads the dedup marker. Paired with MarkSent this is a
// read-then-write, not a lease; the window is a UX guard, not an
// exactly-once guarantee.
func (s *PGStore) WasRecentlySent(ctx context.Context, eventID, actorID types.ID) (bool, error) {
	_, err := s.redis.Get(ctx, dedupKey(eventID, actorID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *PGStore) MarkSent(ctx context.Context, eventID, actorID types.ID, window time.Duration) error {
	return s.redis.Set(ctx, dedupKey(eventID, actorID), time.Now().UTC().Format(time.RFC3339), window).Err()
}

func dedupKey(eventID, actorID types.ID) string {
	return fmt.Sprintf(dedupKeyPrefix, string(eventID), string(actorID))
}
