package control

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/motionplan"
)

// CycleState is the stage of one arm's plan-and-execute cycle.
type CycleState int

// The cycle goes Idle, Planning, Executing, then Succeeded or Failed, then back to Idle.
const (
	Idle CycleState = iota
	Planning
	Executing
	Succeeded
	Failed
)

func (s CycleState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Planning:
		return "PLANNING"
	case Executing:
		return "EXECUTING"
	case Succeeded:
		return "SUCCESS"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("CycleState(%d)", int(s))
	}
}

// Cycle tracks the state of one arm. Illegal transitions are errors and leave the state unchanged.
type Cycle struct {
	mu     sync.Mutex
	tag    arm.Tag
	state  CycleState
	reason string
}

// NewCycle returns an idle cycle for tag.
func NewCycle(tag arm.Tag) *Cycle {
	return &Cycle{tag: tag}
}

// State returns the current state.
func (c *Cycle) State() CycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reason returns why the last cycle failed, if it did.
func (c *Cycle) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// BeginPlanning moves from Idle to Planning.
func (c *Cycle) BeginPlanning() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(Idle); err != nil {
		return err
	}
	c.state = Planning
	c.reason = ""
	return nil
}

// Planned moves from Planning to Executing when result succeeded and to Failed otherwise.
func (c *Cycle) Planned(result motionplan.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(Planning); err != nil {
		return err
	}
	if result.OK() {
		c.state = Executing
		return nil
	}
	c.state = Failed
	c.reason = result.Reason
	return nil
}

// Executed moves from Executing to Succeeded or Failed according to outcome.
func (c *Cycle) Executed(outcome Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(Executing); err != nil {
		return err
	}
	if outcome.OK() {
		c.state = Succeeded
		return nil
	}
	c.state = Failed
	c.reason = outcome.Reason
	return nil
}

// Finish returns a finished cycle to Idle and reports the state it finished in.
func (c *Cycle) Finish() (CycleState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Succeeded && c.state != Failed {
		return c.state, errors.Errorf("%s arm cycle cannot finish from %s", c.tag, c.state)
	}
	final := c.state
	c.state = Idle
	return final, nil
}

func (c *Cycle) expect(want CycleState) error {
	if c.state != want {
		return errors.Errorf("%s arm cycle is %s, expected %s", c.tag, c.state, want)
	}
	return nil
}
