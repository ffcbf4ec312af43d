package messenger

import (
	"context"
	"testing"
	"time"
)

func TestBrokerFIFO(t *testing.T) {
	hub := NewHub()
	b := hub.Register()

	hub.Info("first")
	hub.Info("second")
	hub.Info("third")

	ctx := context.Background()
	for i, want := range []string{"first", "second", "third"} {
		n, err := b.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if n.Text != want {
			t.Errorf("message %d = %q, want %q", i, n.Text, want)
		}
	}
}

func TestNextBlocksUntilEmit(t *testing.T) {
	hub := NewHub()
	b := hub.Register()

	got := make(chan Notification, 1)
	go func() {
		n, err := b.Next(context.Background())
		if err != nil {
			return
		}
		got <- n
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Success("done")

	select {
	case n := <-got:
		if n.Text != "done" {
			t.Errorf("text = %q, want %q", n.Text, "done")
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not wake after emit")
	}
}

func TestNextCancelled(t *testing.T) {
	hub := NewHub()
	b := hub.Register()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Next(ctx); err == nil {
		t.Fatal("expected error from cancelled Next")
	}
}

func TestRetiredBrokerPruned(t *testing.T) {
	hub := NewHub()
	dead := hub.Register()
	live := hub.Register()

	dead.Retire()
	hub.Warning("only for the living")

	ctx := context.Background()
	n, err := live.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if n.Text != "only for the living" {
		t.Errorf("text = %q", n.Text)
	}

	// The retired broker's queue must stay empty.
	ctx2, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := dead.Next(ctx2); err == nil {
		t.Error("retired broker received a notification")
	}
}

func TestRetireIdempotent(t *testing.T) {
	hub := NewHub()
	b := hub.Register()
	b.Retire()
	b.Retire()
	if b.Alive() {
		t.Error("broker still alive after Retire")
	}
}

func TestEmitWithNoRecipients(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.Error("nobody listening")
}

func TestLateSubscriberMissesEarlierMessages(t *testing.T) {
	hub := NewHub()
	hub.Info("before registration")
	b := hub.Register()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := b.Next(ctx); err == nil {
		t.Error("late subscriber received a message emitted before registration")
	}
}

func TestWireHints(t *testing.T) {
	cases := []struct {
		level            Level
		variant          string
		persist          bool
		preventDuplicate bool
		autoHide         int
	}{
		{LevelDebug, "default", false, true, 5000},
		{LevelInfo, "info", false, true, 5000},
		{LevelSuccess, "success", false, true, 5000},
		{LevelWarning, "warning", false, true, 10000},
		{LevelError, "error", true, false, 5000},
	}
	for _, c := range cases {
		m := Notification{Text: "x", Level: c.level}.Wire()
		if m.Variant != c.variant {
			t.Errorf("%s: variant = %q, want %q", c.variant, m.Variant, c.variant)
		}
		if m.Persist != c.persist {
			t.Errorf("%s: persist = %v, want %v", c.variant, m.Persist, c.persist)
		}
		if m.PreventDuplicate != c.preventDuplicate {
			t.Errorf("%s: preventDuplicate = %v, want %v", c.variant, m.PreventDuplicate, c.preventDuplicate)
		}
		if m.AutoHideDuration != c.autoHide {
			t.Errorf("%s: autoHideDuration = %d, want %d", c.variant, m.AutoHideDuration, c.autoHide)
		}
		if m.AnchorOrigin.Vertical != "bottom" || m.AnchorOrigin.Horizontal != "left" {
			t.Errorf("%s: anchorOrigin = %+v", c.variant, m.AnchorOrigin)
		}
	}
}
