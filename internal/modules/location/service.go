// README: Location service: position updates and the driver ETA estimate.
package location

import (
	"context"
	"errors"
	"time"

	"rally/internal/types"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNoPosition = errors.New("driver has not reported a position")
)

type Store interface {
	SetPosition(ctx context.Context, eventID, driverID types.ID, p types.Point) error
	GetPosition(ctx context.Context, eventID, driverID types.ID) (types.Point, time.Time, bool, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) UpdatePosition(ctx context.Context, u Update) error {
	if u.EventID == "" || u.DriverID == "" {
		return ErrBadRequest
	}
	if u.Position.Lat < -90 || u.Position.Lat > 90 || u.Position.Lng < -180 || u.Position.Lng > 180 {
		return ErrBadRequest
	}
	return s.store.SetPosition(ctx, u.EventID, u.DriverID, u.Position)
}

// DriverETA tells a waiting rider how far out their driver is, based on the
// driver's last reported position and the fixed-speed straight-line
// estimate. Not a routed time.
func (s *Service) DriverETA(ctx context.Context, eventID, driverID types.ID, pickup types.Point) (Estimate, error) {
	pos, reportedAt, found, err := s.store.GetPosition(ctx, eventID, driverID)
	if err != nil {
		return Estimate{}, err
	}
	if !found {
		return Estimate{}, ErrNoPosition
	}
	d := DistanceKm(pos.Lat, pos.Lng, pickup.Lat, pickup.Lng)
	return Estimate{
		DistanceKm: d,
		EtaMinutes: EtaMinutes(d),
		ReportedAt: reportedAt,
	}, nil
}
