package core

import "github.com/vovakirdan/messagely/internal/store"

// CanView reports whether acting is the sender or the recipient of msg.
func CanView(msg *store.MessageDetail, acting string) bool {
	if msg == nil || acting == "" {
		return false
	}
	return acting == msg.FromUser.Username || acting == msg.ToUser.Username
}

// CanMarkRead reports whether acting is the recipient of msg.
func CanMarkRead(msg *store.MessageDetail, acting string) bool {
	if msg == nil || acting == "" {
		return false
	}
	return acting == msg.ToUser.Username
}

// AuthorizeView returns a forbidden error unless CanView holds.
func AuthorizeView(msg *store.MessageDetail, acting string) error {
	if !CanView(msg, acting) {
		return Forbidden("not allowed to view this message")
	}
	return nil
}

// AuthorizeMarkRead returns a forbidden error unless CanMarkRead holds.
func AuthorizeMarkRead(msg *store.MessageDetail, acting string) error {
	if !CanMarkRead(msg, acting) {
		return Forbidden("only the recipient can mark a message read")
	}
	return nil
}
