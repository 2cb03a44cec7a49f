package attendee

import (
	"testing"

	"rally/internal/types"
)

func TestFeedFanOut(t *testing.T) {
	f := NewFeed()
	a, cancelA := f.Subscribe("e1")
	b, cancelB := f.Subscribe("e1")
	defer cancelA()
	defer cancelB()

	f.Publish("e1", Change{New: &Attendee{EventID: "e1", ProfileID: "p1"}})

	for _, ch := range []<-chan Change{a, b} {
		select {
		case c := <-ch:
			if c.New.ProfileID != "p1" {
				t.Fatalf("unexpected change: %+v", c)
			}
		default:
			t.Fatal("subscriber did not receive the change")
		}
	}
}

func TestFeedCancelClosesChannel(t *testing.T) {
	f := NewFeed()
	ch, cancel := f.Subscribe("e1")
	cancel()

	if _, open := <-ch; open {
		t.Fatal("expected channel to be closed after cancel")
	}
	// Publishing after cancel must not panic on the closed channel.
	f.Publish("e1", Change{New: &Attendee{EventID: "e1", ProfileID: "p1"}})
	// Double cancel is a no-op.
	cancel()
}

func TestFeedSlowSubscriberDrops(t *testing.T) {
	f := NewFeed()
	ch, cancel := f.Subscribe("e1")
	defer cancel()

	// Overfill the buffer; Publish must never block.
	for i := 0; i < 50; i++ {
		f.Publish("e1", Change{New: &Attendee{EventID: "e1", ProfileID: types.ID("p")}})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received == 0 || received > 16 {
		t.Fatalf("expected 1..16 buffered changes, got %d", received)
	}
}
