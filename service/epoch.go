package service

import "dao-governance-backend/epoch"

// The ledger clock consulted by every window check. Defaults to a manual
// clock at epoch 0 so tests control time explicitly; main wires the real
// provider at startup.
var epochProvider epoch.Provider = epoch.NewManualProvider(0)

// SetEpochProvider installs the clock.
func SetEpochProvider(p epoch.Provider) {
	if p != nil {
		epochProvider = p
	}
}

// CurrentEpoch reads the clock.
func CurrentEpoch() int64 {
	return epochProvider.Current()
}

// SetManualEpoch moves a manual clock forward. Returns false when the
// installed provider is not manually driven.
func SetManualEpoch(target int64) bool {
	manual, ok := epochProvider.(*epoch.ManualProvider)
	if !ok {
		return false
	}
	manual.Set(target)
	return true
}
