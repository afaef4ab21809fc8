// Package queue assigns stable positions to jobs and dispatches them
// into a bounded pool of workers.
//
// Positions are handed out atomically at enqueue time and never reused,
// so output templates using the queue-position wildcard stay stable no
// matter which jobs finish first or fail. Jobs whose resolved output
// paths collide are serialized so two transcoders never write the same
// file concurrently; everything else runs in parallel up to the worker
// limit.
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ffgrab/internal/model"
)

// Status is a job's lifecycle state.
type Status int

const (
	StatusCreated Status = iota
	StatusResolved
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusResolved:
		return "resolved"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ErrSkip tells the coordinator a job needs no work (for example the
// output already exists). The job ends as StatusSkipped, not failed.
var ErrSkip = errors.New("job skipped")

// Job is one unit of work flowing through the coordinator.
//
// Position is assigned exactly once at enqueue time. All other mutable
// state is owned by the worker processing the job; callers read it only
// after Run returns or from within a Notify callback.
type Job struct {
	ID       string
	Position int
	Track    model.Track

	// OutputPath is the resolved destination, set by the resolve phase.
	OutputPath string

	Status   Status
	Err      error
	Warnings []string
}

// Warn attaches a non-fatal warning to the job.
func (j *Job) Warn(msg string) {
	j.Warnings = append(j.Warnings, msg)
}

// ResolveFunc prepares a job: it picks the profile, computes the output
// path (setting job.OutputPath), and may return ErrSkip.
type ResolveFunc func(ctx context.Context, job *Job) error

// ExecFunc performs the job's actual work after its path claim is held.
type ExecFunc func(ctx context.Context, job *Job) error

// Coordinator owns the queue counter, the worker pool, and the
// path-collision claims.
type Coordinator struct {
	workers int
	counter atomic.Int64

	mu     sync.Mutex
	claims map[string]*sync.Mutex
	jobs   []*Job

	// Notify, when set, is called after every job status change. It must
	// not block; it runs on the worker goroutine.
	Notify func(*Job)
}

// New creates a Coordinator running at most workers jobs in parallel.
func New(workers int) *Coordinator {
	if workers <= 0 {
		workers = 4
	}
	return &Coordinator{
		workers: workers,
		claims:  make(map[string]*sync.Mutex),
	}
}

// Enqueue registers a track and assigns the next queue position.
// Positions are 1-based and strictly increase with enqueue order.
func (c *Coordinator) Enqueue(track model.Track) *Job {
	job := &Job{
		ID:       uuid.NewString(),
		Position: int(c.counter.Add(1)),
		Track:    track,
		Status:   StatusCreated,
	}
	c.mu.Lock()
	c.jobs = append(c.jobs, job)
	c.mu.Unlock()
	return job
}

// Jobs returns all enqueued jobs in enqueue order.
func (c *Coordinator) Jobs() []*Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Job(nil), c.jobs...)
}

// Run processes every enqueued job through resolve and execute, at most
// c.workers at a time. One job's failure never aborts its siblings; Run
// always waits for all jobs and returns nil. Inspect Jobs() afterwards
// for per-job outcomes.
func (c *Coordinator) Run(ctx context.Context, resolve ResolveFunc, execute ExecFunc) {
	g := new(errgroup.Group)
	g.SetLimit(c.workers)

	for _, job := range c.Jobs() {
		job := job
		g.Go(func() error {
			c.process(ctx, job, resolve, execute)
			return nil
		})
	}
	g.Wait()
}

func (c *Coordinator) process(ctx context.Context, job *Job, resolve ResolveFunc, execute ExecFunc) {
	if ctx.Err() != nil {
		// Not started yet: drop it without spawning anything.
		c.transition(job, StatusFailed, ctx.Err())
		return
	}

	if err := resolve(ctx, job); err != nil {
		if errors.Is(err, ErrSkip) {
			c.transition(job, StatusSkipped, nil)
			return
		}
		c.transition(job, StatusFailed, err)
		return
	}
	c.transition(job, StatusResolved, nil)

	if job.OutputPath != "" {
		claim := c.claim(job.OutputPath)
		claim.Lock()
		defer claim.Unlock()
	}

	c.transition(job, StatusRunning, nil)
	if err := execute(ctx, job); err != nil {
		c.transition(job, StatusFailed, err)
		return
	}
	c.transition(job, StatusCompleted, nil)
}

// claim returns the mutex serializing writers of one output path.
func (c *Coordinator) claim(path string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.claims[path]
	if !ok {
		m = &sync.Mutex{}
		c.claims[path] = m
	}
	return m
}

func (c *Coordinator) transition(job *Job, status Status, err error) {
	job.Status = status
	if err != nil {
		job.Err = err
	}
	if c.Notify != nil {
		c.Notify(job)
	}
}
