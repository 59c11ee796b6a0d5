// SPDX-License-Identifier: GPL-3.0-or-later

package safety

import (
	"time"

	"github.com/mpst-go/mpst/pipeline"
)

// Config holds common configuration for [SafetyProperty] implementations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// MaxContexts bounds how many typing contexts a BFS will dequeue
	// before giving up and returning a truncated result (spec §5:
	// "implementations must allow callers to set maxContexts").
	//
	// Set by [NewConfig] to 100000.
	MaxContexts int

	// Logger receives lifecycle and per-step diagnostics.
	//
	// Set by [NewConfig] to a discard logger.
	Logger pipeline.SLogger

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [pipeline.DefaultErrClassifier].
	ErrClassifier pipeline.ErrClassifier

	// TimeNow returns the current time, used for wall-clock diagnostics.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		MaxContexts:   100000,
		Logger:        pipeline.DefaultSLogger(),
		ErrClassifier: pipeline.DefaultErrClassifier,
		TimeNow:       time.Now,
	}
}

func configOrDefault(cfg *Config) *Config {
	if cfg == nil {
		return NewConfig()
	}
	return cfg
}
