package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Global Redis client. When Redis is unreachable (or REDIS_MOCK=true) the
// package falls back to an in-process map so the service keeps working in
// a single-instance deployment.
var (
	redisClient *redis.Client
	redisCtx    = context.Background()
	initOnce    sync.Once
	initialized bool

	mockMode  bool
	mockMutex sync.Mutex
	mockData  = make(map[string]string)

	// Cached results live for a day; they are rewritten on every vote
	// anyway, the TTL just bounds garbage for closed proposals.
	resultExpiration = 24 * time.Hour
)

// InitRedis initializes the Redis connection from the environment.
func InitRedis() error {
	var initErr error

	initOnce.Do(func() {
		if os.Getenv("REDIS_MOCK") == "true" {
			log.Println("Forcing Redis mock mode")
			mockMode = true
			initialized = true
			return
		}

		redisAddr := os.Getenv("REDIS_ADDR")
		redisPassword := os.Getenv("REDIS_PASSWORD")
		redisDb := 0
		if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
			if db, err := strconv.Atoi(dbStr); err == nil {
				redisDb = db
			}
		}
		if redisAddr == "" {
			redisAddr = "localhost:6379"
		}

		log.Printf("Initializing Redis connection at %s", redisAddr)

		client := redis.NewClient(&redis.Options{
			Addr:        redisAddr,
			Password:    redisPassword,
			DB:          redisDb,
			DialTimeout: 3 * time.Second,
			ReadTimeout: 3 * time.Second,
			PoolSize:    10,
		})

		if _, err := client.Ping(redisCtx).Result(); err != nil {
			log.Printf("Redis connection failed: %v, falling back to mock mode", err)
			mockMode = true
			initialized = true
			return
		}

		redisClient = client
		initialized = true
		mockMode = false
		log.Println("Redis connection initialized")
	})

	return initErr
}

// GetClient returns the real Redis client, or an error in mock mode.
func GetClient() (*redis.Client, error) {
	if !initialized {
		return nil, fmt.Errorf("redis client not initialized")
	}
	if mockMode {
		return nil, ErrRedisNotAvailable
	}
	return redisClient, nil
}

func resultKey(proposalID string) string {
	return fmt.Sprintf("proposal:%s:result", proposalID)
}

// SetProposalResult caches the freshly recomputed result of a proposal.
// Cache failures are logged, never propagated: the database copy is the
// source of truth.
func SetProposalResult(proposalID string, result interface{}) {
	if !initialized {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("Failed to marshal result for proposal %s: %v", proposalID, err)
		return
	}

	key := resultKey(proposalID)
	if mockMode {
		mockMutex.Lock()
		mockData[key] = string(data)
		mockMutex.Unlock()
		return
	}

	if err := redisClient.Set(redisCtx, key, data, resultExpiration).Err(); err != nil {
		log.Printf("Failed to cache result for proposal %s: %v", proposalID, err)
	}
}

// GetProposalResult loads a cached result into dest. Returns
// ErrKeyNotFound on a miss.
func GetProposalResult(proposalID string, dest interface{}) error {
	if !initialized {
		return ErrRedisNotAvailable
	}

	key := resultKey(proposalID)
	if mockMode {
		mockMutex.Lock()
		raw, ok := mockData[key]
		mockMutex.Unlock()
		if !ok {
			return ErrKeyNotFound
		}
		return json.Unmarshal([]byte(raw), dest)
	}

	raw, err := redisClient.Get(redisCtx, key).Result()
	if err == redis.Nil {
		return ErrKeyNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

// InvalidateProposalResult drops a cached result.
func InvalidateProposalResult(proposalID string) {
	if !initialized {
		return
	}
	key := resultKey(proposalID)
	if mockMode {
		mockMutex.Lock()
		delete(mockData, key)
		mockMutex.Unlock()
		return
	}
	if err := redisClient.Del(redisCtx, key).Err(); err != nil {
		log.Printf("Failed to invalidate result for proposal %s: %v", proposalID, err)
	}
}

// CloseRedis shuts the connection down.
func CloseRedis() {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Failed to close Redis connection: %v", err)
		}
	}
}
