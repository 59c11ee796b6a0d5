// SPDX-License-Identifier: GPL-3.0-or-later

package simulate

import "github.com/mpst-go/mpst/pipeline"

// Config holds common configuration for [Simulator].
//
// Pass this to [New] to pre-wire dependencies. All fields have sensible
// defaults set by [NewConfig].
type Config struct {
	// MaxSteps bounds how many steps [Simulator.Run] (or repeated
	// [Simulator.Step] calls) will take before stopping and reporting
	// ReachedMaxSteps, guarding against a non-terminating recursive
	// protocol (spec §4.8, §5).
	//
	// Set by [NewConfig] to 10000.
	MaxSteps int

	// RecordTrace enables [Simulator.GetTrace]; disable it for a long
	// run where only the final [State] matters.
	//
	// Set by [NewConfig] to true.
	RecordTrace bool

	// ForkMode picks how concurrent Fork branches are interleaved.
	//
	// Set by [NewConfig] to [Deterministic].
	ForkMode Mode

	// Logger receives per-step diagnostics.
	//
	// Set by [NewConfig] to a discard logger.
	Logger pipeline.SLogger
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		MaxSteps:    10000,
		RecordTrace: true,
		ForkMode:    Deterministic,
		Logger:      pipeline.DefaultSLogger(),
	}
}

func configOrDefault(cfg *Config) *Config {
	if cfg == nil {
		return NewConfig()
	}
	return cfg
}
