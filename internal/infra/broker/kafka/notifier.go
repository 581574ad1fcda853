package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"hireme/internal/app/dto"
	chatservice "hireme/internal/app/services/chat"
)

// Broker is the producer surface the notifier publishes through.
type Broker interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Notifier mirrors committed messages onto a topic for downstream consumers
// such as the unread-badge worker. Publishing is fire and forget: a broker
// outage must never slow down or fail a send.
type Notifier struct {
	Broker Broker
	Topic  string
	Logger *slog.Logger
}

var _ chatservice.Notifier = (*Notifier)(nil)

func (n *Notifier) MessageCreated(_ context.Context, msg dto.ChatMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		n.Logger.Error("marshal chat message", "error", err)
		return
	}
	go func() {
		key := strconv.FormatUint(uint64(msg.ConversationID), 10)
		if err := n.Broker.Publish(context.Background(), n.Topic, key, payload, nil); err != nil {
			n.Logger.Warn("publish chat message", "topic", n.Topic, "error", err)
		}
	}()
}
