package core

import "github.com/vovakirdan/messagely/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessageReceived notifies a recipient about a new message.
	EventMessageReceived EventKind = iota
	// EventMessageRead notifies a sender that the recipient read a message.
	EventMessageRead
)

func (k EventKind) String() string {
	switch k {
	case EventMessageReceived:
		return "message"
	case EventMessageRead:
		return "read"
	default:
		return "unknown"
	}
}

// Event is delivered to every connected client of User.
type Event struct {
	Kind    EventKind
	User    string
	Message *store.MessageDetail // EventMessageReceived
	Receipt *store.ReadReceipt   // EventMessageRead
}
