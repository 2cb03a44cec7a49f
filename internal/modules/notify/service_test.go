// README: Notifier tests (dedup window, empty group, push-failure tolerance).
package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rally/internal/modules/attendee"
	"rally/internal/modules/event"
	"rally/internal/types"
)

// memStore keeps inbox rows and dedup markers in memory; the clock is
// manual so the window can be elapsed without sleeping.
type memStore struct {
	mu       sync.Mutex
	now      time.Time
	inserted []Notification
	markers  map[string]time.Time
	windows  map[string]time.Duration
}

func newNotifyMemStore() *memStore {
	return &memStore{
		now:     time.Date(2025, 6, 13, 23, 0, 0, 0, time.UTC),
		markers: make(map[string]time.Time),
		windows: make(map[string]time.Duration),
	}
}

func (m *memStore) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *memStore) Insert(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, *n)
	return nil
}

func (m *memStore) WasRecentlySent(_ context.Context, eventID, actorID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := string(eventID) + "/" + string(actorID)
	at, ok := m.markers[k]
	if !ok {
		return false, nil
	}
	return m.now.Sub(at) < m.windows[k], nil
}

func (m *memStore) MarkSent(_ context.Context, eventID, actorID types.ID, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := string(eventID) + "/" + string(actorID)
	m.markers[k] = m.now
	m.windows[k] = window
	return nil
}

type stubPusher struct {
	mu    sync.Mutex
	sent  []types.ID
	fails map[types.ID]error
}

func (p *stubPusher) SendPush(_ context.Context, profileID types.ID, _, _ string, _ map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.fails[profileID]; ok {
		return err
	}
	p.sent = append(p.sent, profileID)
	return nil
}

type stubCarGroups struct {
	groups map[types.ID][]types.ID
}

func (s *stubCarGroups) CarGroup(_ context.Context, _, actorID types.ID) ([]types.ID, error) {
	return s.groups[actorID], nil
}

type stubDirectory struct{}

func (stubDirectory) Get(_ context.Context, eventID, profileID types.ID) (*attendee.Attendee, error) {
	return &attendee.Attendee{EventID: eventID, ProfileID: profileID, DisplayName: "Sam"}, nil
}

type stubEvents struct{}

func (stubEvents) Get(_ context.Context, id types.ID) (*event.Event, error) {
	return &event.Event{ID: id, Title: "Friday Rally", Status: event.StatusLive}, nil
}

func newTestNotifier(store *memStore, pusher *stubPusher, groups map[types.ID][]types.ID) *Service {
	return NewService(store, pusher, &stubCarGroups{groups: groups}, stubDirectory{}, stubEvents{}, 5*time.Minute)
}

func TestNotifyCarGroupFanOut(t *testing.T) {
	store := newNotifyMemStore()
	pusher := &stubPusher{}
	svc := newTestNotifier(store, pusher, map[types.ID][]types.ID{
		"actor": {"d1", "p2"},
	})

	res, err := svc.NotifyCarGroup(context.Background(), "e1", "actor")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if res.Sent != 2 || res.Deduped || res.NoCarGroup {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(store.inserted) != 2 || len(pusher.sent) != 2 {
		t.Fatalf("expected 2 inserts and 2 pushes, got %d/%d", len(store.inserted), len(pusher.sent))
	}

	n := store.inserted[0]
	if n.Type != TypeCarGroupRallyHome {
		t.Errorf("unexpected type %q", n.Type)
	}
	if n.Title != "R@lly Home: Ready to roll" {
		t.Errorf("unexpected title %q", n.Title)
	}
	if n.Body != "Sam just hit R@lly Home — they're ready to leave." {
		t.Errorf("unexpected body %q", n.Body)
	}
	if n.Data["event_id"] != "e1" || n.Data["event_title"] != "Friday Rally" || n.Data["actor_profile_id"] != "actor" || n.Data["deep_link"] == "" {
		t.Errorf("unexpected payload data %v", n.Data)
	}
}

func TestNotifyCarGroupDedupWindow(t *testing.T) {
	store := newNotifyMemStore()
	pusher := &stubPusher{}
	svc := newTestNotifier(store, pusher, map[types.ID][]types.ID{
		"actor": {"d1"},
	})
	ctx := context.Background()

	if res, _ := svc.NotifyCarGroup(ctx, "e1", "actor"); res.Sent != 1 {
		t.Fatalf("first call: %+v", res)
	}

	res, err := svc.NotifyCarGroup(ctx, "e1", "actor")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if res.Sent != 0 || !res.Deduped {
		t.Fatalf("expected dedup inside the window, got %+v", res)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("deduped call must not insert, got %d rows", len(store.inserted))
	}

	// Another actor in the same event is not deduped.
	svc2 := newTestNotifier(store, pusher, map[types.ID][]types.ID{"other": {"d1"}})
	if res, _ := svc2.NotifyCarGroup(ctx, "e1", "other"); res.Sent != 1 {
		t.Fatalf("other actor: %+v", res)
	}

	store.advance(5*time.Minute + time.Second)
	res, err = svc.NotifyCarGroup(ctx, "e1", "actor")
	if err != nil {
		t.Fatalf("post-window call: %v", err)
	}
	if res.Sent != 1 || res.Deduped {
		t.Fatalf("expected normal fan-out after the window, got %+v", res)
	}
}

func TestNotifyCarGroupEmpty(t *testing.T) {
	store := newNotifyMemStore()
	svc := newTestNotifier(store, &stubPusher{}, map[types.ID][]types.ID{})

	res, err := svc.NotifyCarGroup(context.Background(), "e1", "loner")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if res.Sent != 0 || !res.NoCarGroup {
		t.Fatalf("expected no_car_group, got %+v", res)
	}
	if len(store.inserted) != 0 {
		t.Fatal("empty group must not insert")
	}
}

func TestNotifyCarGroupPushFailureTolerated(t *testing.T) {
	store := newNotifyMemStore()
	pusher := &stubPusher{fails: map[types.ID]error{"d1": errors.New("fcm unavailable")}}
	svc := newTestNotifier(store, pusher, map[types.ID][]types.ID{
		"actor": {"d1", "p2"},
	})

	res, err := svc.NotifyCarGroup(context.Background(), "e1", "actor")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if res.Sent != 2 {
		t.Fatalf("push failure must not affect the count, got %+v", res)
	}
	if len(store.inserted) != 2 {
		t.Fatalf("push failure must not affect in-app rows, got %d", len(store.inserted))
	}
}

func TestNotifyCarGroupValidation(t *testing.T) {
	svc := newTestNotifier(newNotifyMemStore(), &stubPusher{}, nil)
	if _, err := svc.NotifyCarGroup(context.Background(), "", "actor"); err != ErrBadRequest {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}
