package ws

import (
	"context"

	"hireme/internal/app/dto"
	chatservice "hireme/internal/app/services/chat"
)

// Notifier pushes committed messages to everyone currently subscribed to the
// conversation's channel.
type Notifier struct {
	Hub *Hub
}

var _ chatservice.Notifier = (*Notifier)(nil)

func (n *Notifier) MessageCreated(_ context.Context, msg dto.ChatMessage) {
	n.Hub.Broadcast(msg.ConversationID, Event{Type: EventMessage, Data: msg})
}
