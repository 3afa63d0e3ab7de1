package core

import (
	"errors"
	"testing"

	"github.com/vovakirdan/messagely/internal/store"
)

func testMessage() *store.MessageDetail {
	return &store.MessageDetail{
		ID:       1,
		FromUser: store.UserSummary{Username: "a"},
		ToUser:   store.UserSummary{Username: "b"},
		Body:     "hi",
	}
}

func TestCanView(t *testing.T) {
	msg := testMessage()

	tests := []struct {
		acting string
		want   bool
	}{
		{"a", true},
		{"b", true},
		{"c", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := CanView(msg, tt.acting); got != tt.want {
			t.Errorf("CanView(%q) = %v, want %v", tt.acting, got, tt.want)
		}
	}

	if CanView(nil, "a") {
		t.Errorf("CanView(nil) should be false")
	}
}

func TestCanMarkRead(t *testing.T) {
	msg := testMessage()

	if CanMarkRead(msg, "a") {
		t.Errorf("sender must not mark read")
	}
	if !CanMarkRead(msg, "b") {
		t.Errorf("recipient must be able to mark read")
	}
	if CanMarkRead(msg, "c") {
		t.Errorf("outsider must not mark read")
	}
}

func TestAuthorizeReturnsForbidden(t *testing.T) {
	msg := testMessage()

	if err := AuthorizeView(msg, "c"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := AuthorizeView(msg, "a"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := AuthorizeMarkRead(msg, "a"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := AuthorizeMarkRead(msg, "b"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
