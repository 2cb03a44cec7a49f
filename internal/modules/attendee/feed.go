// README: In-process change feed; every attendee write is published per event.
package attendee

import (
	"log/slog"
	"sync"

	"rally/internal/types"
)

// Change carries the old and new row of a single attendee write. Old is nil
// for joins, New is nil for leaves.
type Change struct {
	Old *Attendee `json:"old"`
	New *Attendee `json:"new"`
}

// Feed is the hub for per-event attendee change subscriptions. Clients
// subscribe to one event and re-run the resolvers on every change they
// receive. Delivery is best effort: a subscriber that falls behind its
// buffer drops messages rather than blocking writers.
type Feed struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[types.ID]map[int64]chan Change
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[types.ID]map[int64]chan Change)}
}

// Subscribe registers a listener for one event's changes. The returned
// cancel func must be called when the listener goes away; it closes the
// channel.
func (f *Feed) Subscribe(eventID types.ID) (<-chan Change, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	ch := make(chan Change, 16)
	if f.subs[eventID] == nil {
		f.subs[eventID] = make(map[int64]chan Change)
	}
	f.subs[eventID][id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if set, ok := f.subs[eventID]; ok {
			if c, ok := set[id]; ok {
				delete(set, id)
				close(c)
			}
			if len(set) == 0 {
				delete(f.subs, eventID)
			}
		}
	}
	return ch, cancel
}

// Publish fans a change out to every subscriber of the event. Non-blocking
// sends: a full subscriber buffer drops the message.
func (f *Feed) Publish(eventID types.ID, c Change) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, ch := range f.subs[eventID] {
		select {
		case ch <- c:
		default:
			slog.Warn("attendee feed subscriber is full, dropping change", "event_id", eventID)
		}
	}
}
