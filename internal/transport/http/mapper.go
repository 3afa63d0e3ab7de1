package http

import (
	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/proto"
	"github.com/vovakirdan/messagely/internal/store"
)

func toUserSummary(u store.UserSummary) proto.UserSummary {
	return proto.UserSummary{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

func toUser(u *store.User) proto.User {
	return proto.User{
		UserSummary: toUserSummary(u.Summary()),
		JoinAt:      u.JoinAt,
		LastLoginAt: u.LastLoginAt,
	}
}

func toMessage(m *store.Message) proto.Message {
	return proto.Message{
		ID:           m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		Body:         m.Body,
		SentAt:       m.SentAt,
		ReadAt:       m.ReadAt,
	}
}

func toMessageDetail(m *store.MessageDetail) proto.MessageDetail {
	return proto.MessageDetail{
		ID:       m.ID,
		FromUser: toUserSummary(m.FromUser),
		ToUser:   toUserSummary(m.ToUser),
		Body:     m.Body,
		SentAt:   m.SentAt,
		ReadAt:   m.ReadAt,
	}
}

func toSentMessages(msgs []*store.MailboxMessage) []proto.SentMessage {
	out := make([]proto.SentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, proto.SentMessage{
			ID:     m.ID,
			ToUser: toUserSummary(m.Peer),
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
		})
	}
	return out
}

func toReceivedMessages(msgs []*store.MailboxMessage) []proto.ReceivedMessage {
	out := make([]proto.ReceivedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, proto.ReceivedMessage{
			ID:       m.ID,
			FromUser: toUserSummary(m.Peer),
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
		})
	}
	return out
}

func toReadReceipt(r *store.ReadReceipt) proto.ReadReceipt {
	return proto.ReadReceipt{ID: r.ID, ReadAt: r.ReadAt}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessageReceived:
		if event.Message == nil {
			break
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessage,
			Data:  toMessageDetail(event.Message),
		}
	case core.EventMessageRead:
		if event.Receipt == nil {
			break
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventRead,
			Data:  toReadReceipt(event.Receipt),
		}
	}
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: "unknown_event", Msg: "unknown event " + event.Kind.String()},
	}
}
