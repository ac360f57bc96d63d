package service

import (
	"context"
	"encoding/json"
	"log"

	"notesnap-gateway/internal/dto"
	"notesnap-gateway/internal/websocket"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process session event topic and relays
// each event to the websocket hub so open dashboards learn about
// finished extractions and chat replies without polling.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	hub       *websocket.Hub
}

func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, hub *websocket.Hub) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		hub:       hub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var event dto.SessionEventMessage
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		log.Printf("[ERROR] Failed to unmarshal session event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.hub != nil {
		cs.hub.Send(event.UserId, websocket.SessionEvent{
			Type: event.Type,
			Data: map[string]interface{}{
				"session_id":  event.SessionId,
				"outcome":     event.Outcome,
				"occurred_at": event.OccurredAt,
			},
		})
	}

	msg.Ack()
}
