package core

import (
	"testing"
	"time"
)

// nextEvent waits for the next event on c and checks its kind.
func nextEvent(t *testing.T, c *Client, kind EventKind) *Event {
	t.Helper()

	select {
	case ev, ok := <-c.Events:
		if !ok {
			t.Fatalf("feed of %s closed while waiting for %v", c.Username, kind)
		}
		if ev.Kind != kind {
			t.Fatalf("expected event kind %v, got %v", kind, ev.Kind)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no %v event for %s", kind, c.Username)
		return nil
	}
}
