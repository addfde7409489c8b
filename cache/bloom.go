package cache

import (
	"context"
	"hash/fnv"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// BloomFilter over proposal identifiers. Read endpoints consult it to
// short-circuit lookups for ids that were never created, so a flood of
// requests for bogus proposals does not reach the database.
type BloomFilter struct {
	client    *redis.Client
	key       string
	hashCount int
}

// NewBloomFilter creates a filter under the given key.
func NewBloomFilter(client *redis.Client, key string, hashCount int) *BloomFilter {
	return &BloomFilter{
		client:    client,
		key:       "bloom:" + key,
		hashCount: hashCount,
	}
}

// Add records an identifier.
func (bf *BloomFilter) Add(ctx context.Context, item string) error {
	if bf == nil || bf.client == nil {
		return ErrRedisNotAvailable
	}

	pipe := bf.client.Pipeline()
	for i := 0; i < bf.hashCount; i++ {
		pipe.SetBit(ctx, bf.key, bf.hash(item, i), 1)
	}
	pipe.Expire(ctx, bf.key, 7*24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// Contains reports whether an identifier may have been added. False means
// definitely absent; true may be a false positive.
func (bf *BloomFilter) Contains(ctx context.Context, item string) (bool, error) {
	if bf == nil || bf.client == nil {
		return false, ErrRedisNotAvailable
	}

	pipe := bf.client.Pipeline()
	cmds := make([]*redis.IntCmd, 0, bf.hashCount)
	for i := 0; i < bf.hashCount; i++ {
		cmds = append(cmds, pipe.GetBit(ctx, bf.key, bf.hash(item, i)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	for _, cmd := range cmds {
		if cmd.Val() == 0 {
			return false, nil
		}
	}
	return true, nil
}

func (bf *BloomFilter) hash(key string, seed int) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	h.Write([]byte{byte(seed)})
	return int64(h.Sum64() % uint64(1<<30))
}

// InitProposalBloomFilter builds the shared proposal-id filter, or nil
// when Redis is unavailable (callers treat nil as "no filter").
func InitProposalBloomFilter() *BloomFilter {
	client, err := GetClient()
	if err != nil {
		log.Printf("Proposal bloom filter disabled: %v", err)
		return nil
	}
	return NewBloomFilter(client, "proposal_ids", 5)
}
