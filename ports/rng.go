package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// operations. Every unit of parallel work draws from its own sub-stream so
// execution order never changes results.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a
	// named operation.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG stream addressed by stage and
	// work-item key on top of a base seed. Permutation replicates use
	// Stream(ctx, "permutation", "<module>/<perm>", baseSeed). Run identity
	// stays out of the address so two runs with the same base seed draw
	// identical streams.
	Stream(ctx context.Context, stageName, itemKey string, baseSeed int64) (*rand.Rand, error)
}
