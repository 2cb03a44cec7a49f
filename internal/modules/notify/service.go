// README: Car-group notifier: resolves the actor's car group and fans out, deduplicated over a window.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rally/internal/modules/attendee"
	"rally/internal/modules/event"
	"rally/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// Store persists in-app notifications and the dedup marker. The marker
// check-then-set is deliberately non-atomic: two concurrent calls can both
// pass, and duplicate in-app rows are an accepted cost.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	WasRecentlySent(ctx context.Context, eventID, actorID types.ID) (bool, error)
	MarkSent(ctx context.Context, eventID, actorID types.ID, window time.Duration) error
}

// Pusher delivers best-effort push notifications. Errors are logged by the
// caller and never surfaced.
type Pusher interface {
	SendPush(ctx context.Context, profileID types.ID, title, body string, data map[string]string) error
}

// CarGroups resolves who shares a ride with the actor.
type CarGroups interface {
	CarGroup(ctx context.Context, eventID, actorID types.ID) ([]types.ID, error)
}

// Directory looks up attendee rows for display names.
type Directory interface {
	Get(ctx context.Context, eventID, profileID types.ID) (*attendee.Attendee, error)
}

// Events looks up event rows for titles.
type Events interface {
	Get(ctx context.Context, id types.ID) (*event.Event, error)
}

type Service struct {
	store     Store
	pusher    Pusher
	carGroups CarGroups
	directory Directory
	events    Events
	window    time.Duration
}

func NewService(store Store, pusher Pusher, carGroups CarGroups, directory Directory, events Events, window time.Duration) *Service {
	return &Service{
		store:     store,
		pusher:    pusher,
		carGroups: carGroups,
		directory: directory,
		events:    events,
		window:    window,
	}
}

// NotifyCarGroup tells everyone sharing a ride with the actor that the
// actor is ready to leave. Push failures never affect the in-app rows or
// the returned count; a fan-out that fails halfway is safe to re-run in
// full (the dedup marker is only written once fan-out begins, and
// duplicate in-app notifications are acceptable).
func (s *Service) NotifyCarGroup(ctx context.Context, eventID, actorID types.ID) (Result, error) {
	if eventID == "" || actorID == "" {
		return Result{}, ErrBadRequest
	}

	recent, err := s.store.WasRecentlySent(ctx, eventID, actorID)
	if err != nil {
		return Result{}, err
	}
	if recent {
		return Result{Deduped: true}, nil
	}

	group, err := s.carGroups.CarGroup(ctx, eventID, actorID)
	if err != nil {
		return Result{}, err
	}
	if len(group) == 0 {
		return Result{NoCarGroup: true}, nil
	}

	actor, err := s.directory.Get(ctx, eventID, actorID)
	if err != nil {
		return Result{}, err
	}
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return Result{}, err
	}

	if err := s.store.MarkSent(ctx, eventID, actorID, s.window); err != nil {
		return Result{}, err
	}

	actorName := actor.DisplayName
	if actorName == "" {
		actorName = string(actorID)
	}
	title := "R@lly Home: Ready to roll"
	body := fmt.Sprintf("%s just hit R@lly Home — they're ready to leave.", actorName)
	data := map[string]string{
		"event_id":         string(eventID),
		"event_title":      ev.Title,
		"actor_profile_id": string(actorID),
		"deep_link":        fmt.Sprintf("/events/%s/rally-home", eventID),
	}

	now := time.Now()
	for _, member := range group {
		n := &Notification{
			ID:        types.ID(uuid.NewString()),
			ProfileID: member,
			Type:      TypeCarGroupRallyHome,
			Title:     title,
			Body:      body,
			Data:      data,
			CreatedAt: now,
		}
		if err := s.store.Insert(ctx, n); err != nil {
			return Result{}, err
		}
		if err := s.pusher.SendPush(ctx, member, title, body, data); err != nil {
			slog.Warn("push send failed", "profile_id", member, "event_id", eventID, "error", err)
		}
	}
	return Result{Sent: len(group)}, nil
}
