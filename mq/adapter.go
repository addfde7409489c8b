package mq

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MQAdapter selects a transport for vote events: RocketMQ when a name
// server is configured, a Redis list queue when Redis is reachable, and a
// direct in-process dispatch otherwise (single-instance deployments and
// tests).
type MQAdapter struct {
	rocketEnabled bool
	redisEnabled  bool
	directMode    bool

	rocketBus   *RocketMQBus
	redisMQ     *RedisMQ
	redisClient *redis.Client
	handler     EventHandler

	initOnce    sync.Once
	initialized bool
}

// NewMQAdapter creates an uninitialized adapter.
func NewMQAdapter() *MQAdapter {
	return &MQAdapter{}
}

// Initialize picks and connects a transport.
func (a *MQAdapter) Initialize() error {
	var err error
	a.initOnce.Do(func() {
		if bus, rocketErr := InitRocketMQ(); rocketErr == nil {
			a.rocketBus = bus
			a.rocketEnabled = true
			a.initialized = true
			log.Println("Vote events over RocketMQ")
			return
		} else if os.Getenv("ROCKETMQ_NAMESRV_ADDR") != "" {
			log.Printf("RocketMQ initialization failed: %v, trying Redis MQ", rocketErr)
		}

		redisAddr := os.Getenv("REDIS_ADDR")
		if redisAddr == "" {
			redisAddr = "localhost:6379"
		}
		client := redis.NewClient(&redis.Options{
			Addr:        redisAddr,
			Password:    os.Getenv("REDIS_PASSWORD"),
			DialTimeout: 5 * time.Second,
			ReadTimeout: 5 * time.Second,
			PoolSize:    20,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, redisErr := client.Ping(ctx).Result(); redisErr != nil {
			log.Printf("Redis MQ unavailable: %v, using direct dispatch", redisErr)
			a.directMode = true
			a.initialized = true
			return
		}

		a.redisClient = client
		a.redisMQ = NewRedisMQ(client)
		a.redisEnabled = true
		a.initialized = true
		log.Println("Vote events over Redis MQ")
	})
	return err
}

// RegisterHandler wires the consumer callback and starts consumption.
func (a *MQAdapter) RegisterHandler(handler EventHandler) error {
	if !a.initialized {
		return fmt.Errorf("mq adapter not initialized")
	}
	a.handler = handler

	switch {
	case a.rocketEnabled:
		return a.rocketBus.StartConsumer(handler)
	case a.redisEnabled:
		a.redisMQ.RegisterHandler(handler)
		return a.redisMQ.Start()
	default:
		// Direct mode: Publish calls the handler synchronously.
		return nil
	}
}

// PublishVote hands a vote event to the active transport.
func (a *MQAdapter) PublishVote(event VoteEvent) error {
	if !a.initialized {
		return fmt.Errorf("mq adapter not initialized")
	}

	switch {
	case a.rocketEnabled:
		return a.rocketBus.Publish(event)
	case a.redisEnabled:
		return a.redisMQ.Publish(event)
	default:
		if a.handler == nil {
			return nil
		}
		return a.handler(event)
	}
}

// GetQueueStats reports the state of the active transport.
func (a *MQAdapter) GetQueueStats() map[string]interface{} {
	stats := make(map[string]interface{})
	if !a.initialized {
		stats["status"] = "uninitialized"
		return stats
	}
	switch {
	case a.rocketEnabled:
		stats["type"] = "rocketmq"
		stats["status"] = "running"
	case a.redisEnabled:
		stats["type"] = "redis"
		stats["status"] = "running"
		stats["queues"] = a.redisMQ.GetQueueStats()
	default:
		stats["type"] = "direct"
		stats["status"] = "running"
	}
	return stats
}

// Close shuts the transport down.
func (a *MQAdapter) Close() {
	if a.rocketEnabled && a.rocketBus != nil {
		a.rocketBus.Close()
	}
	if a.redisEnabled && a.redisMQ != nil {
		a.redisMQ.Stop()
		a.redisClient.Close()
	}
	log.Println("MQ adapter closed")
}
