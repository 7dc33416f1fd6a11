// Package gripper maps normalized gripper commands in [0, 1] onto a gripper's native joint range and
// tracks the normalized state of one arm's gripper.
package gripper

import (
	"math"

	"github.com/pkg/errors"

	"github.com/dualarm/simcore/logging"
)

const (
	// OpenThreshold is the value above which a gripper counts as open.
	OpenThreshold = 0.8
	// HalfOpenThreshold is the value above which a gripper counts as at least half open.
	HalfOpenThreshold = 0.45
	// ClosedThreshold is the value below which a gripper counts as closed.
	ClosedThreshold = 0.2

	// DefaultEpsilon is the largest change from the measured value applied by a single command.
	DefaultEpsilon = 0.1
)

// Range is the native joint position of a fully closed (Min) and fully open (Max) gripper.
type Range struct {
	Min float64
	Max float64
}

// Validate ensures the range is usable.
func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return errors.New("gripper range must not be NaN")
	}
	if r.Min > r.Max {
		return errors.Errorf("gripper range min %v is greater than max %v", r.Min, r.Max)
	}
	return nil
}

// Native maps a normalized value onto the range.
func (r Range) Native(g float64) float64 {
	return r.Min + g*(r.Max-r.Min)
}

// Normalized maps a native position back into [0, 1]. A degenerate range normalizes to 0.
func (r Range) Normalized(native float64) float64 {
	span := r.Max - r.Min
	if span == 0 {
		return 0
	}
	return clip01((native - r.Min) / span)
}

// Command is the outcome of a single gripper command.
type Command struct {
	// Requested is the command after clipping to [0, 1].
	Requested float64
	// Applied is the normalized value actually written, after rate limiting.
	Applied float64
	// Native is the drive target corresponding to Applied.
	Native float64
	// Limited is true when Applied differs from Requested because of the rate limit.
	Limited bool
}

// Normalizer holds the normalized gripper state of one arm. The state only changes through Command.
// A Normalizer built without gripper joints is a no-op that always reports 0.
type Normalizer struct {
	name    string
	rng     Range
	present bool
	value   float64
	logger  logging.Logger
}

// NewNormalizer returns a normalizer for a gripper with the given range. present is false for an arm
// that has no gripper joints.
func NewNormalizer(name string, rng Range, present bool, logger logging.Logger) (*Normalizer, error) {
	if err := rng.Validate(); err != nil {
		return nil, errors.Wrapf(err, "gripper %q", name)
	}
	return &Normalizer{name: name, rng: rng, present: present, logger: logger}, nil
}

// Range returns the native range.
func (n *Normalizer) Range() Range {
	return n.rng
}

// Present reports whether the arm has gripper joints.
func (n *Normalizer) Present() bool {
	return n.present
}

// Command computes and records a new gripper target. g is clipped to [0, 1]. measured is the current
// normalized position of the gripper. When the command is further than |eps| from measured, the
// applied value moves exactly |eps| from measured toward g, so the applied value always lies within
// [measured - |eps|, measured + |eps|] or equals g.
func (n *Normalizer) Command(g, measured, eps float64) Command {
	if !n.present {
		n.logger.Warnw("no gripper", "gripper", n.name)
		return Command{}
	}
	g = clip01(g)
	applied := g
	step := math.Abs(eps)
	if math.Abs(g-measured) > step {
		applied = measured + math.Copysign(step, g-measured)
	}
	n.value = applied
	cmd := Command{
		Requested: g,
		Applied:   applied,
		Native:    n.rng.Native(applied),
		Limited:   applied != g,
	}
	if cmd.Limited {
		n.logger.Debugw("gripper command rate limited",
			"gripper", n.name, "requested", g, "measured", measured, "applied", applied)
	}
	return cmd
}

// Value returns the last applied normalized value.
func (n *Normalizer) Value() float64 {
	if !n.present {
		n.logger.Warnw("no gripper", "gripper", n.name)
		return 0
	}
	return n.value
}

// IsOpen reports whether the gripper value is above OpenThreshold.
func (n *Normalizer) IsOpen() bool {
	return n.value > OpenThreshold
}

// IsHalfOpen reports whether the gripper value is above HalfOpenThreshold.
func (n *Normalizer) IsHalfOpen() bool {
	return n.value > HalfOpenThreshold
}

// IsClosed reports whether the gripper value is below ClosedThreshold.
func (n *Normalizer) IsClosed() bool {
	return n.value < ClosedThreshold
}

func clip01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
