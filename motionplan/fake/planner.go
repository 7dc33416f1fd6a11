// Package fake implements a scripted motion planner for tests.
package fake

import (
	"context"
	"sync"

	"github.com/dualarm/simcore/motionplan"
)

// Planner replays queued results in order and records every request it receives. Once the queue is empty it
// returns Fallback, or a Failure when Fallback is nil.
type Planner struct {
	mu       sync.Mutex
	queue    []motionplan.Result
	errs     []error
	requests []*motionplan.Request

	Fallback *motionplan.Result
}

var _ motionplan.Planner = (*Planner)(nil)

// NewPlanner returns a planner that will return results in order.
func NewPlanner(results ...motionplan.Result) *Planner {
	p := &Planner{}
	for _, r := range results {
		p.Push(r)
	}
	return p
}

// Push queues a result.
func (p *Planner) Push(r motionplan.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, r)
	p.errs = append(p.errs, nil)
}

// PushError queues a planner error.
func (p *Planner) PushError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, motionplan.Result{})
	p.errs = append(p.errs, err)
}

// Plan pops the next queued result.
func (p *Planner) Plan(ctx context.Context, req *motionplan.Request) (motionplan.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.queue) == 0 {
		if p.Fallback != nil {
			return *p.Fallback, nil
		}
		return motionplan.NewFailure("no scripted result"), nil
	}
	r, err := p.queue[0], p.errs[0]
	p.queue, p.errs = p.queue[1:], p.errs[1:]
	return r, err
}

// Requests returns every request received so far.
func (p *Planner) Requests() []*motionplan.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*motionplan.Request(nil), p.requests...)
}
