// SPDX-License-Identifier: GPL-3.0-or-later

package mpst

import (
	"github.com/mpst-go/mpst/safety"
	"github.com/mpst-go/mpst/simulate"
)

// CheckSafety builds Γ0 for name and runs prop against it (spec §4.7).
// Pass nil for prop's cfg-style argument to use [safety.NewConfig]'s
// defaults — see [safety.NewBasicSafety] and [safety.NewDeadlockFreedom].
func (t *Toolchain) CheckSafety(name string, prop safety.SafetyProperty) (safety.Result, error) {
	tc, err := t.CreateInitialContext(name)
	if err != nil {
		return safety.Result{}, err
	}
	return prop.Check(tc), nil
}

// NewSimulator builds name's CFG and returns a [*simulate.Simulator]
// over it (spec §4.8), backed by cfg (or [simulate.NewConfig]'s
// defaults if cfg is nil).
func (t *Toolchain) NewSimulator(name string, simCfg *simulate.Config) (*simulate.Simulator, error) {
	g, err := t.BuildCFG(name)
	if err != nil {
		return nil, err
	}
	return simulate.New(g, simCfg), nil
}
