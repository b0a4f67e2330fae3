package rng

import (
	"context"
	"math/rand"

	"coexnet/ports"
)

// DeterministicAdapter implements ports.RNGPort with hash-derived sub-stream
// seeds. Two streams with the same (stage, item, base seed) address are
// identical; streams with different addresses are statistically independent
// for this purpose, so parallel scheduling order cannot change results.
type DeterministicAdapter struct{}

// New creates a deterministic RNG adapter.
func New() *DeterministicAdapter {
	return &DeterministicAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (r *DeterministicAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if name != "" {
		seed = int64(hashString(name)) + seed
	}
	return rand.New(rand.NewSource(seed)), nil
}

// Stream creates a deterministic RNG stream addressed by stage and item key
func (r *DeterministicAdapter) Stream(ctx context.Context, stageName, itemKey string, baseSeed int64) (*rand.Rand, error) {
	// Hash each address component into the seed so the same combination
	// always yields the same stream regardless of execution order.
	seed := baseSeed
	if stageName != "" {
		seed = int64(hashString(stageName)) + seed
	}
	if itemKey != "" {
		seed = int64(hashString(itemKey)) + seed
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}

var _ ports.RNGPort = (*DeterministicAdapter)(nil)
