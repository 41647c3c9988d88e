package hub

import (
	"testing"
	"time"

	"github.com/TCSthecoder/Scraper/internal/model"
)

func update(ts time.Time) model.Update {
	return model.Update{
		Latest:  map[string]model.PriceObservation{"bitcoin": {Asset: "bitcoin"}},
		CycleTS: ts,
	}
}

func TestHub_PublishWithZeroSubscribers(t *testing.T) {
	h := New(4)
	// Must not panic or block.
	h.Publish(update(time.Now().UTC()))
	if h.SubscriberCount() != 0 {
		t.Errorf("subscriber count: got %d, want 0", h.SubscriberCount())
	}
}

func TestHub_DeliversToAllSubscribers(t *testing.T) {
	h := New(4)
	s1 := h.Subscribe()
	s2 := h.Subscribe()

	ts := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	h.Publish(update(ts))

	for i, s := range []*Subscription{s1, s2} {
		select {
		case u := <-s.C:
			if !u.CycleTS.Equal(ts) {
				t.Errorf("sub%d: cycle ts %v, want %v", i+1, u.CycleTS, ts)
			}
		case <-time.After(time.Second):
			t.Fatalf("sub%d: no update received", i+1)
		}
	}
}

func TestHub_LateSubscriberGetsOnlyNextCycle(t *testing.T) {
	h := New(4)

	h.Publish(update(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)))

	late := h.Subscribe()
	select {
	case <-late.C:
		t.Fatal("late subscriber must not see the earlier publish")
	default:
	}

	next := time.Date(2026, 8, 31, 12, 1, 0, 0, time.UTC)
	h.Publish(update(next))
	select {
	case u := <-late.C:
		if !u.CycleTS.Equal(next) {
			t.Errorf("cycle ts %v, want %v", u.CycleTS, next)
		}
	case <-time.After(time.Second):
		t.Fatal("late subscriber missed the next cycle")
	}
}

func TestHub_SlowSubscriberDropsNotBlocks(t *testing.T) {
	h := New(1)
	slow := h.Subscribe()
	fast := h.Subscribe()

	drops := 0
	h.OnDrop = func() { drops++ }

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			h.Publish(update(time.Now().UTC()))
			<-fast.C
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}

	if len(slow.C) != 1 {
		t.Errorf("slow subscriber buffer: got %d, want 1", len(slow.C))
	}
	if drops != 4 {
		t.Errorf("drops: got %d, want 4", drops)
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := New(1)
	s := h.Subscribe()
	h.Unsubscribe(s)

	if _, ok := <-s.C; ok {
		t.Error("expected closed channel after unsubscribe")
	}
	if h.SubscriberCount() != 0 {
		t.Errorf("subscriber count: got %d, want 0", h.SubscriberCount())
	}

	// Double unsubscribe is harmless.
	h.Unsubscribe(s)
}
