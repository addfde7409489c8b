package cache

import (
	"log"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
)

var (
	rs         *redsync.Redsync
	distOnce   sync.Once
	localLocks sync.Map // lock name -> *sync.Mutex, mock-mode fallback
)

// DistributedLockService serializes critical sections across backend
// instances. With a single instance (or no Redis) it degrades to
// in-process mutexes, which is enough because the database transaction
// still guards correctness.
type DistributedLockService struct {
	rs *redsync.Redsync
}

// InitDistLock wires redsync over the shared Redis client.
func InitDistLock() {
	distOnce.Do(func() {
		client, err := GetClient()
		if err != nil {
			log.Printf("Distributed lock falling back to local mutexes: %v", err)
			return
		}
		pool := goredis.NewPool(client)
		rs = redsync.New(pool)
		log.Println("Distributed lock initialized")
	})
}

// GetLockService returns the lock service singleton.
func GetLockService() *DistributedLockService {
	InitDistLock()
	return &DistributedLockService{rs: rs}
}

// WithLock runs action while holding the named lock.
func (s *DistributedLockService) WithLock(lockName string, expiry time.Duration, action func() error) error {
	if s.rs == nil {
		muIface, _ := localLocks.LoadOrStore(lockName, &sync.Mutex{})
		mu := muIface.(*sync.Mutex)
		mu.Lock()
		defer mu.Unlock()
		return action()
	}

	mutex := s.rs.NewMutex(lockName,
		redsync.WithExpiry(expiry),
		redsync.WithTries(5),
		redsync.WithRetryDelay(50*time.Millisecond),
		redsync.WithDriftFactor(0.01),
	)
	if err := mutex.Lock(); err != nil {
		return ErrLockNotAcquired
	}
	defer func() {
		if _, err := mutex.Unlock(); err != nil {
			log.Printf("Failed to release lock %s: %v", lockName, err)
		}
	}()

	return action()
}
