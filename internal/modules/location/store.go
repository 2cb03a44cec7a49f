// README: Driver position store backed by Redis GEO.
package location

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rally/internal/types"
)

const (
	geoKeyPrefix      = "location:event:%s:drivers"
	reportedKeyPrefix = "location:event:%s:reported_at"
	// Positions are only meaningful for the night of the event.
	keyTTL = 24 * time.Hour
)

type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redis *redis.Client) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) SetPosition(ctx context.Context, eventID, driverID types.ID, p types.Point) error {
	pipe := s.redis.Pipeline()
	pipe.GeoAdd(ctx, geoKey(eventID), &redis.GeoLocation{
		Name:      string(driverID),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	})
	pipe.HSet(ctx, reportedKey(eventID), string(driverID), time.Now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, geoKey(eventID), keyTTL)
	pipe.Expire(ctx, reportedKey(eventID), keyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetPosition returns the driver's last reported position; found is false
// when the driver has never reported for this event.
func (s *RedisStore) GetPosition(ctx context.Context, eventID, driverID types.ID) (types.Point, time.Time, bool, error) {
	positions, err := s.redis.GeoPos(ctx, geoKey(eventID), string(driverID)).Result()
	if err != nil {
		return types.Point{}, time.Time{}, false, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return types.Point{}, time.Time{}, false, nil
	}
	p := types.Point{Lat: positions[0].Latitude, Lng: positions[0].Longitude}

	var reportedAt time.Time
	if v, err := s.redis.HGet(ctx, reportedKey(eventID), string(driverID)).Result(); err == nil {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			reportedAt = t
		}
	} else if err != redis.Nil {
		return types.Point{}, time.Time{}, false, err
	}
	return p, reportedAt, true, nil
}

func geoKey(eventID types.ID) string {
	return fmt.Sprintf(geoKeyPrefix, string(eventID))
}

func reportedKey(eventID types.ID) string {
	return fmt.Sprintf(reportedKeyPrefix, string(eventID))
}
