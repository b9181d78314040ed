package generator

import "time"

// DefaultSeed seeds the generator RNG when Options.Seed is zero.
const DefaultSeed = 0xBADC0FFEE

// Options configures puzzle generation behavior.
type Options struct {
	// MixMin and MixMax bound the reverse-scramble length, inclusive.
	// Used only when StartMixed is false.
	MixMin int
	MixMax int
	// Seed makes generation reproducible (0 = DefaultSeed).
	Seed uint64
	// GimmickPlacementTries is the retry budget per MakeOne call.
	GimmickPlacementTries int
	// SolveTime is the validation solver budget per attempt.
	SolveTime time.Duration
	// StartMixed deals a random mixed start honoring template heights;
	// when false the start is goal-like and reverse-scrambled.
	StartMixed bool
	// ReservedEmpty is how many bottles stay empty when no template
	// dictates heights.
	ReservedEmpty int
	// MaxRunPerBottle caps contiguous same-color runs while dealing
	// (0 or negative = unlimited).
	MaxRunPerBottle int
	// RandomizeHeights draws template heights randomly instead of the
	// deterministic left-to-right fill.
	RandomizeHeights bool
}

// DefaultOptions returns the standard generation options.
func DefaultOptions() *Options {
	return &Options{
		MixMin:                60,
		MixMax:                180,
		GimmickPlacementTries: 30,
		SolveTime:             2500 * time.Millisecond,
		StartMixed:            true,
		ReservedEmpty:         2,
		MaxRunPerBottle:       2,
	}
}
