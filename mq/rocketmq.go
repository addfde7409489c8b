package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/apache/rocketmq-client-go/v2/producer"
)

// Topic for vote events.
const TopicVoteEvents = "governance_vote_events"

// RocketMQBus publishes and consumes vote events over RocketMQ. It is
// used when ROCKETMQ_NAMESRV_ADDR is configured; otherwise the adapter
// falls back to the Redis queue.
type RocketMQBus struct {
	prod    rocketmq.Producer
	cons    rocketmq.PushConsumer
	handler EventHandler

	seenMu sync.Mutex
	seen   map[string]bool // consumer-side idempotency
}

// InitRocketMQ connects the producer. Returns an error when no name
// server is configured or reachable.
func InitRocketMQ() (*RocketMQBus, error) {
	addr := os.Getenv("ROCKETMQ_NAMESRV_ADDR")
	if addr == "" {
		return nil, fmt.Errorf("ROCKETMQ_NAMESRV_ADDR not set")
	}

	p, err := rocketmq.NewProducer(
		producer.WithNsResolver(primitive.NewPassthroughResolver([]string{addr})),
		producer.WithRetry(2),
		producer.WithGroupName("governance_producer"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create RocketMQ producer: %v", err)
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf("failed to start RocketMQ producer: %v", err)
	}

	log.Printf("RocketMQ producer connected to %s", addr)
	return &RocketMQBus{prod: p, seen: make(map[string]bool)}, nil
}

// Publish sends a vote event.
func (b *RocketMQBus) Publish(event VoteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal vote event: %v", err)
	}

	msg := primitive.NewMessage(TopicVoteEvents, data)
	msg.WithKeys([]string{event.MessageID})
	// Shard by proposal so events of one proposal stay ordered.
	msg.WithShardingKey(event.ProposalID)

	_, err = b.prod.SendSync(context.Background(), msg)
	if err != nil {
		return fmt.Errorf("failed to send vote event: %v", err)
	}
	return nil
}

// StartConsumer subscribes the handler to the vote topic.
func (b *RocketMQBus) StartConsumer(handler EventHandler) error {
	addr := os.Getenv("ROCKETMQ_NAMESRV_ADDR")
	c, err := rocketmq.NewPushConsumer(
		consumer.WithNsResolver(primitive.NewPassthroughResolver([]string{addr})),
		consumer.WithGroupName("governance_consumer"),
		consumer.WithConsumerModel(consumer.Clustering),
	)
	if err != nil {
		return fmt.Errorf("failed to create RocketMQ consumer: %v", err)
	}

	b.handler = handler
	err = c.Subscribe(TopicVoteEvents, consumer.MessageSelector{},
		func(ctx context.Context, msgs ...*primitive.MessageExt) (consumer.ConsumeResult, error) {
			for _, m := range msgs {
				var event VoteEvent
				if err := json.Unmarshal(m.Body, &event); err != nil {
					log.Printf("Dropping unparsable vote event: %v", err)
					continue
				}
				if b.alreadySeen(event.MessageID) {
					continue
				}
				if err := b.handler(event); err != nil {
					log.Printf("Handler failed for vote event %s: %v", event.MessageID, err)
					return consumer.ConsumeRetryLater, nil
				}
			}
			return consumer.ConsumeSuccess, nil
		})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %v", err)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to start RocketMQ consumer: %v", err)
	}

	b.cons = c
	log.Println("RocketMQ consumer started")
	return nil
}

func (b *RocketMQBus) alreadySeen(messageID string) bool {
	b.seenMu.Lock()
	defer b.seenMu.Unlock()
	if b.seen[messageID] {
		return true
	}
	b.seen[messageID] = true
	return false
}

// Close shuts producer and consumer down.
func (b *RocketMQBus) Close() {
	if b.cons != nil {
		if err := b.cons.Shutdown(); err != nil {
			log.Printf("Failed to shut down RocketMQ consumer: %v", err)
		}
	}
	if b.prod != nil {
		if err := b.prod.Shutdown(); err != nil {
			log.Printf("Failed to shut down RocketMQ producer: %v", err)
		}
	}
}
