package cache

import "errors"

var (
	// ErrRedisNotAvailable signals the client is missing or in mock mode.
	ErrRedisNotAvailable = errors.New("redis not available")

	// ErrLockNotAcquired signals a distributed lock could not be taken.
	ErrLockNotAcquired = errors.New("could not acquire distributed lock")

	// ErrKeyNotFound signals a cache miss.
	ErrKeyNotFound = errors.New("key not found")
)
