package containers

import "sync"

// TaskGroup is one pipeline stage's unit of fork/join work: callers enqueue
// functions to run concurrently on the group's worker pool, and Wait blocks
// until every enqueued function has returned. Modeled on the channel +
// sync.WaitGroup worker pool in engine/systems.JobSystem, generalized from
// a single long-lived job queue to a short-lived per-stage group.
type TaskGroup struct {
	wg sync.WaitGroup
}

// Enqueue runs fn on its own goroutine, tracked by the group's WaitGroup.
func (g *TaskGroup) Enqueue(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

// Wait blocks until every function enqueued on this group has returned.
func (g *TaskGroup) Wait() {
	g.wg.Wait()
}

// TaskComposer hands out successive TaskGroup pipeline stages for one
// frame's submission. Each call to BeginPipelineStage starts a fresh group;
// the caller decides how much overlap to allow between stages by choosing
// when to Wait on the previous one, matching the render graph's CPU
// submission pipelining (4.6).
type TaskComposer struct {
	mu     sync.Mutex
	stages []*TaskGroup
}

// NewTaskComposer returns a composer ready for a fresh frame.
func NewTaskComposer() *TaskComposer {
	return &TaskComposer{}
}

// BeginPipelineStage starts and records a new TaskGroup.
func (c *TaskComposer) BeginPipelineStage() *TaskGroup {
	group := &TaskGroup{}
	c.mu.Lock()
	c.stages = append(c.stages, group)
	c.mu.Unlock()
	return group
}

// WaitAll blocks until every stage started so far on this composer has
// drained, used at end-of-frame to guarantee no submission work outlives
// the frame boundary.
func (c *TaskComposer) WaitAll() {
	c.mu.Lock()
	stages := append([]*TaskGroup(nil), c.stages...)
	c.stages = nil
	c.mu.Unlock()

	for _, s := range stages {
		s.Wait()
	}
}
