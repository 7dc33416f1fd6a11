// Package fake implements a deterministic physics scene for tests. Bodies are loaded from URDF files and track
// their drive targets perfectly: after each step every active joint sits at its position target and moves at its
// velocity target. Every write is recorded so tests can check exactly what reached the engine and when.
package fake

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/dualarm/simcore/physics"
	"github.com/dualarm/simcore/referenceframe"
)

// DefaultTimestep is the step duration of a new scene.
const DefaultTimestep = 1.0 / 250

// WriteKind says which value a write changed.
type WriteKind int

// The kinds of writes a scene records.
const (
	DriveTarget WriteKind = iota
	DriveVelocityTarget
	DriveProperty
	Qf
)

func (k WriteKind) String() string {
	switch k {
	case DriveTarget:
		return "drive_target"
	case DriveVelocityTarget:
		return "drive_velocity_target"
	case DriveProperty:
		return "drive_property"
	case Qf:
		return "qf"
	default:
		return "unknown"
	}
}

// Write is one recorded change. Step is the number of steps completed before the write.
type Write struct {
	Step  int
	Body  string
	Joint string
	Kind  WriteKind
	Value float64
}

// Scene is a physics.Scene that records every interaction.
type Scene struct {
	mu       sync.Mutex
	timestep float64
	bodies   []*Body
	steps    int
	renders  []int
	writes   []Write
	closed   bool

	// FailStepAt makes the n'th call to Step (1-based) fail. Zero never fails.
	FailStepAt int
	// RenderErr is returned by every UpdateRender call when set.
	RenderErr error
}

var _ physics.Scene = (*Scene)(nil)

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{timestep: DefaultTimestep}
}

// LoadBody parses the URDF at path and adds it to the scene at the origin. The body is named after its model;
// loading the same model again appends _1, _2 and so on.
func (s *Scene) LoadBody(path string) (physics.Body, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, physics.ErrSceneUnavailable
	}
	model, err := referenceframe.ParseURDFFile(path, "")
	if err != nil {
		return nil, err
	}
	name := model.Name()
	if n := lo.CountBy(s.bodies, func(b *Body) bool { return b.model.Name() == name }); n > 0 {
		name = fmt.Sprintf("%s_%d", name, n)
	}
	b := newBody(s, model, name)
	s.bodies = append(s.bodies, b)
	return b, nil
}

// Bodies returns the loaded bodies in load order.
func (s *Scene) Bodies() []*Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Body(nil), s.bodies...)
}

// Step moves every active joint of every body onto its drive targets.
func (s *Scene) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return physics.ErrSceneUnavailable
	}
	if s.FailStepAt > 0 && s.steps+1 == s.FailStepAt {
		return errors.Errorf("simulated failure at step %d", s.FailStepAt)
	}
	for _, b := range s.bodies {
		for i, j := range b.active {
			b.qpos[i] = j.target
			b.qvel[i] = j.velocity
		}
		b.qf = make([]float64, len(b.active))
	}
	s.steps++
	return nil
}

// UpdateRender records a render after the current step.
func (s *Scene) UpdateRender() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return physics.ErrSceneUnavailable
	}
	if s.RenderErr != nil {
		return s.RenderErr
	}
	s.renders = append(s.renders, s.steps)
	return nil
}

// Timestep returns the step duration.
func (s *Scene) Timestep() float64 {
	return s.timestep
}

// Close makes every later call fail with physics.ErrSceneUnavailable.
func (s *Scene) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Steps returns how many steps completed.
func (s *Scene) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

// Renders returns, for each render, the number of steps completed when it happened.
func (s *Scene) Renders() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.renders...)
}

// Writes returns every recorded write of the given kinds, or of all kinds when none are given.
func (s *Scene) Writes(kinds ...WriteKind) []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(kinds) == 0 {
		return append([]Write(nil), s.writes...)
	}
	var out []Write
	for _, w := range s.writes {
		for _, k := range kinds {
			if w.Kind == k {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// ResetLog forgets recorded writes, steps and renders. Joint state is kept.
func (s *Scene) ResetLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
	s.renders = nil
	s.steps = 0
}

func (s *Scene) record(w Write) {
	w.Step = s.steps
	s.writes = append(s.writes, w)
}
