package events

import (
	"sync"
	"testing"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue()
	if evs := q.Drain(); evs != nil {
		t.Fatalf("expected empty drain, got %v", evs)
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop on empty queue returned an event")
	}

	for i := 0; i < 5; i++ {
		q.Push(Progress(SourceSender, "t1", i*25))
	}

	first, ok := q.TryPop()
	if !ok || first.Percent != 0 {
		t.Fatalf("TryPop: got %+v ok=%v", first, ok)
	}

	rest := q.Drain()
	if len(rest) != 4 {
		t.Fatalf("expected 4 events, got %d", len(rest))
	}
	for i, ev := range rest {
		if want := (i + 1) * 25; ev.Percent != want {
			t.Errorf("event %d: percent %d, want %d", i, ev.Percent, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty after drain: %d", q.Len())
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 500

	q := NewQueue()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Event{Kind: KindProgress, Percent: i, TransferID: string(rune('a' + id))})
			}
		}(p)
	}
	wg.Wait()

	evs := q.Drain()
	if len(evs) != producers*perProducer {
		t.Fatalf("expected %d events, got %d", producers*perProducer, len(evs))
	}

	// Per-producer order must survive interleaving.
	last := make(map[string]int)
	for _, ev := range evs {
		prev, seen := last[ev.TransferID]
		if seen && ev.Percent != prev+1 {
			t.Fatalf("producer %s: %d followed %d", ev.TransferID, ev.Percent, prev)
		}
		last[ev.TransferID] = ev.Percent
	}
}

func TestQueueNotify(t *testing.T) {
	q := NewQueue()
	q.Push(Log(SourceReceiver, "a"))
	q.Push(Log(SourceReceiver, "b"))

	select {
	case <-q.Notify():
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case <-q.Notify():
		t.Fatal("notifications should coalesce")
	default:
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 queued events, got %d", q.Len())
	}
}

func TestEventHelpers(t *testing.T) {
	ev := Errorf(SourceReceiver, "Transfer incomplete: %s", "a.bin")
	if !ev.IsError() {
		t.Error("Errorf event should be an error")
	}
	if Log(SourceSender, "ok").IsError() {
		t.Error("Log event should not be an error")
	}
	if got := ev.WithTransfer("x").TransferID; got != "x" {
		t.Errorf("WithTransfer: got %q", got)
	}
	lost := PeerLost("10.0.0.2", "alice")
	if lost.Kind != KindPeerLost || lost.Address != "10.0.0.2" {
		t.Errorf("PeerLost: %+v", lost)
	}
}
