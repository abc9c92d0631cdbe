package events

import (
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBusPublishSubscribe(t *testing.T) {
	b := NewBus(16)
	ch, cancel := b.Subscribe(Filter{})
	defer cancel()

	b.Publish("stage_started", "run-1", map[string]string{"stage": "fetch"})

	e := recv(t, ch)
	if e.Type != "stage_started" {
		t.Errorf("Type = %q", e.Type)
	}
	if e.RunID != "run-1" {
		t.Errorf("RunID = %q", e.RunID)
	}
	if e.ID == "" {
		t.Error("event has no ID")
	}
}

func TestBusFilterByRun(t *testing.T) {
	b := NewBus(16)
	ch, cancel := b.Subscribe(Filter{RunID: "run-2"})
	defer cancel()

	b.Publish("stage_started", "run-1", nil)
	b.Publish("stage_started", "run-2", nil)

	e := recv(t, ch)
	if e.RunID != "run-2" {
		t.Errorf("RunID = %q, want run-2", e.RunID)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra event: %+v", extra)
	default:
	}
}

func TestBusFilterByType(t *testing.T) {
	b := NewBus(16)
	ch, cancel := b.Subscribe(Filter{Types: []string{"run_completed"}})
	defer cancel()

	b.Publish("stage_started", "run-1", nil)
	b.Publish("run_completed", "run-1", nil)

	e := recv(t, ch)
	if e.Type != "run_completed" {
		t.Errorf("Type = %q, want run_completed", e.Type)
	}
}

func TestBusReplaySince(t *testing.T) {
	b := NewBus(16)
	b.Publish("stage_started", "run-1", nil)
	b.Publish("stage_completed", "run-1", nil)
	b.Publish("run_completed", "run-1", nil)

	got := b.ReplaySince("1", Filter{})
	if len(got) != 2 {
		t.Fatalf("replay returned %d events, want 2", len(got))
	}
	if got[0].Type != "stage_completed" || got[1].Type != "run_completed" {
		t.Errorf("replay order wrong: %q, %q", got[0].Type, got[1].Type)
	}

	if got := b.ReplaySince("", Filter{}); got != nil {
		t.Errorf("empty lastEventID replayed %d events, want none", len(got))
	}
}

func TestBusZeroRingSize(t *testing.T) {
	b := NewBus(0)
	ch, cancel := b.Subscribe(Filter{})
	defer cancel()

	b.Publish("stage_started", "run-1", nil)

	e := recv(t, ch)
	if e.Type != "stage_started" {
		t.Errorf("Type = %q", e.Type)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus(16)
	ch, cancel := b.Subscribe(Filter{})
	cancel()

	b.Publish("stage_started", "run-1", nil)
	select {
	case e, ok := <-ch:
		if ok {
			t.Errorf("received event after unsubscribe: %+v", e)
		}
	default:
	}
}
