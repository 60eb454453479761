package dialog

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestJanitorRunNow(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	stale := NewDialog("telegram:1", "Old task", now.Add(-48*time.Hour))
	stale.Phase = PhaseAwaitingDeadline
	store.Save("telegram:1", 0, stale)
	store.Save("telegram:2", 0, NewDialog("telegram:2", "New task", now.Add(-time.Hour)))

	sink := &fakeSink{}
	j := NewJanitor(store, 24*time.Hour, "", sink, nil)
	j.now = func() time.Time { return now }

	if n := j.RunNow(context.Background()); n != 1 {
		t.Fatalf("RunNow() = %d, want 1", n)
	}
	if d, _ := store.Snapshot("telegram:1"); d != nil {
		t.Error("stale dialog not removed")
	}
	if d, _ := store.Snapshot("telegram:2"); d == nil {
		t.Error("fresh dialog removed")
	}

	want := fmt.Sprintf(msgExpired, "Old task")
	if got := sink.last("telegram:1").Text; got != want {
		t.Errorf("notice = %q, want %q", got, want)
	}
	if len(sink.all("telegram:2")) != 0 {
		t.Error("fresh conversation notified")
	}
}

func TestJanitorStart(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		j := NewJanitor(NewStore(), 0, "", nil, nil)
		if err := j.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if j.running {
			t.Error("janitor running with zero idle ttl")
		}
		j.Stop()
	})

	t.Run("invalid schedule", func(t *testing.T) {
		j := NewJanitor(NewStore(), time.Hour, "every now and then", nil, nil)
		if err := j.Start(context.Background()); err == nil {
			t.Error("Start() accepted an invalid schedule")
		}
	})

	t.Run("start and stop", func(t *testing.T) {
		j := NewJanitor(NewStore(), time.Hour, "@every 1h", nil, nil)
		if err := j.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := j.Start(context.Background()); err != nil {
			t.Fatalf("second Start() error = %v", err)
		}
		j.Stop()
		j.Stop()
	})
}
