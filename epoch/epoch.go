package epoch

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

// Provider is the ledger clock the lifecycle consults. The core only ever
// reads it; nothing in this module advances an epoch.
type Provider interface {
	Current() int64
}

// WallClockProvider derives the epoch from wall time: fixed-length epochs
// counted from a genesis instant.
type WallClockProvider struct {
	GenesisUnix  int64
	EpochSeconds int64
}

func (p *WallClockProvider) Current() int64 {
	now := time.Now().Unix()
	if now <= p.GenesisUnix {
		return 0
	}
	return (now - p.GenesisUnix) / p.EpochSeconds
}

// ManualProvider is an externally advanced clock, used in tests and in
// deployments where a host ledger pushes the epoch.
type ManualProvider struct {
	mu    sync.RWMutex
	epoch int64
}

func NewManualProvider(epoch int64) *ManualProvider {
	return &ManualProvider{epoch: epoch}
}

func (p *ManualProvider) Current() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.epoch
}

// Set moves the clock. Epochs are monotonic; moving backwards is refused.
func (p *ManualProvider) Set(epoch int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch < p.epoch {
		log.Printf("Ignoring epoch rollback from %d to %d", p.epoch, epoch)
		return
	}
	p.epoch = epoch
}

func (p *ManualProvider) Advance(delta int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if delta > 0 {
		p.epoch += delta
	}
}

// FromEnv builds the provider from the environment. CURRENT_EPOCH pins a
// manual clock (useful for local runs); otherwise a wall-clock provider is
// configured from EPOCH_GENESIS_UNIX and EPOCH_SECONDS.
func FromEnv() Provider {
	if raw := os.Getenv("CURRENT_EPOCH"); raw != "" {
		if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
			log.Printf("Using manual epoch clock pinned at %d", epoch)
			return NewManualProvider(epoch)
		}
		log.Printf("Invalid CURRENT_EPOCH %q, falling back to wall clock", raw)
	}

	genesis := int64(0)
	if raw := os.Getenv("EPOCH_GENESIS_UNIX"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			genesis = v
		}
	}
	seconds := int64(300)
	if raw := os.Getenv("EPOCH_SECONDS"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			seconds = v
		}
	}
	return &WallClockProvider{GenesisUnix: genesis, EpochSeconds: seconds}
}
