package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMQ is a Redis-list backed queue for vote events: a main queue, a
// processing queue for in-flight messages and a dead-letter queue for
// messages that exhausted their retries.
type RedisMQ struct {
	client            *redis.Client
	ctx               context.Context
	handler           EventHandler
	isRunning         bool
	stopChan          chan struct{}
	wg                sync.WaitGroup
	processingTimeout time.Duration
	maxRetries        int
}

// Queue names.
const (
	MainQueueName       = "governance_vote_queue"
	ProcessingQueueName = "governance_vote_processing"
	DeadLetterQueueName = "governance_vote_dead_letter"
	RetriesHashName     = "governance_vote_retries"
	SeenSetName         = "governance_vote_message_ids"
)

// NewRedisMQ creates a queue over an established Redis client.
func NewRedisMQ(client *redis.Client) *RedisMQ {
	return &RedisMQ{
		client:            client,
		ctx:               context.Background(),
		stopChan:          make(chan struct{}),
		processingTimeout: 5 * time.Minute,
		maxRetries:        3,
	}
}

// RegisterHandler sets the consumer callback.
func (r *RedisMQ) RegisterHandler(handler EventHandler) {
	r.handler = handler
}

// Publish pushes a vote event onto the main queue. A message id that was
// already published is dropped so producer retries stay idempotent.
func (r *RedisMQ) Publish(event VoteEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal vote event: %v", err)
	}

	exists, err := r.client.SIsMember(r.ctx, SeenSetName, event.MessageID).Result()
	if err != nil {
		log.Printf("Idempotency check failed: %v", err)
	} else if exists {
		log.Printf("Vote event %s already published, skipping", event.MessageID)
		return nil
	}

	if err := r.client.SAdd(r.ctx, SeenSetName, event.MessageID).Err(); err != nil {
		log.Printf("Failed to record message id: %v", err)
	}
	r.client.Expire(r.ctx, SeenSetName, 48*time.Hour)

	if err := r.client.LPush(r.ctx, MainQueueName, jsonData).Err(); err != nil {
		return fmt.Errorf("failed to enqueue vote event: %v", err)
	}
	return nil
}

// Start launches the consumer loops.
func (r *RedisMQ) Start() error {
	if r.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	if r.isRunning {
		return nil
	}
	r.isRunning = true

	r.wg.Add(2)
	go r.consumeLoop()
	go r.timeoutCheckLoop()

	log.Println("Redis MQ consumer started")
	return nil
}

// Stop shuts the consumer down and waits for in-flight handlers.
func (r *RedisMQ) Stop() {
	if !r.isRunning {
		return
	}
	close(r.stopChan)
	r.wg.Wait()
	r.isRunning = false
	log.Println("Redis MQ consumer stopped")
}

func (r *RedisMQ) consumeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopChan:
			return
		default:
			// Atomically move the message into the processing queue.
			result, err := r.client.BRPopLPush(r.ctx, MainQueueName, ProcessingQueueName, 1*time.Second).Result()
			if err != nil {
				if err != redis.Nil {
					log.Printf("Failed to fetch from queue: %v", err)
				}
				continue
			}
			r.wg.Add(1)
			go func(raw string) {
				defer r.wg.Done()
				r.processMessage(raw)
			}(result)
		}
	}
}

func (r *RedisMQ) processMessage(raw string) {
	var event VoteEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		log.Printf("Dropping unparsable vote event: %v", err)
		r.client.LRem(r.ctx, ProcessingQueueName, 1, raw)
		return
	}

	if err := r.handler(event); err != nil {
		log.Printf("Handler failed for vote event %s: %v", event.MessageID, err)
		r.retryOrBury(raw, event)
		return
	}

	r.client.LRem(r.ctx, ProcessingQueueName, 1, raw)
	r.client.HDel(r.ctx, RetriesHashName, event.MessageID)
}

func (r *RedisMQ) retryOrBury(raw string, event VoteEvent) {
	retries, _ := r.client.HIncrBy(r.ctx, RetriesHashName, event.MessageID, 1).Result()
	r.client.LRem(r.ctx, ProcessingQueueName, 1, raw)

	if retries > int64(r.maxRetries) {
		log.Printf("Vote event %s exceeded %d retries, moving to dead letter", event.MessageID, r.maxRetries)
		r.client.LPush(r.ctx, DeadLetterQueueName, raw)
		r.client.HDel(r.ctx, RetriesHashName, event.MessageID)
		return
	}
	r.client.LPush(r.ctx, MainQueueName, raw)
}

func (r *RedisMQ) timeoutCheckLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.requeueStale()
		}
	}
}

// requeueStale returns messages stuck in the processing queue longer than
// the processing timeout back to the main queue.
func (r *RedisMQ) requeueStale() {
	messages, err := r.client.LRange(r.ctx, ProcessingQueueName, 0, -1).Result()
	if err != nil {
		log.Printf("Failed to inspect processing queue: %v", err)
		return
	}

	now := time.Now().Unix()
	for _, raw := range messages {
		var event VoteEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			continue
		}
		if now-event.Timestamp > int64(r.processingTimeout.Seconds()) {
			r.retryOrBury(raw, event)
		}
	}
}

// GetQueueStats reports queue depths.
func (r *RedisMQ) GetQueueStats() map[string]int64 {
	stats := make(map[string]int64)
	for _, queue := range []string{MainQueueName, ProcessingQueueName, DeadLetterQueueName} {
		length, err := r.client.LLen(r.ctx, queue).Result()
		if err != nil {
			continue
		}
		stats[queue] = length
	}
	return stats
}
