package worker

import (
	"context"
	"log"
	"sync"

	"quickcap/src/capture"
	"quickcap/src/geometry"
)

// CaptureFunc grabs the pixels of a screen rectangle. capture.Grab in
// production; swapped out in tests.
type CaptureFunc func(geometry.Rect) (*capture.Image, error)

// ResultCallback is invoked on capture completion from a worker goroutine.
// The event loop passes a closure that posts the result back onto its own
// goroutine, preserving the single-writer invariant on selection state.
type ResultCallback func(img *capture.Image, err error)

// Pool runs screen captures off the event-loop goroutine so a stalling OS
// call can never block input handling. Single-slot input queue gives strict
// back-pressure: at most one capture waits while one runs.
type Pool struct {
	jobs chan job
	grab CaptureFunc
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	rect geometry.Rect
	cb   ResultCallback
}

// New creates a pool of size workers (a single worker when size <= 0; screen
// capture has no useful parallelism). grab defaults to capture.Grab.
func New(size int, grab CaptureFunc) *Pool {
	if size <= 0 {
		size = 1
	}
	if grab == nil {
		grab = capture.Grab
	}
	p := &Pool{jobs: make(chan job, 1), grab: grab}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				img, err := p.grabWithContext(j.ctx, j.rect)
				log.Printf("worker: capture %dx%d done, err=%v", j.rect.Width, j.rect.Height, err)
				j.cb(img, err)
			}
		}()
	}
}

// Submit enqueues a capture job if the single-slot queue is free. Returns
// false if dropped.
func (p *Pool) Submit(ctx context.Context, rect geometry.Rect, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, rect: rect, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// grabWithContext runs the capture in a sub-goroutine so a ctx deadline is
// honored even when the underlying platform call stalls.
func (p *Pool) grabWithContext(ctx context.Context, rect geometry.Rect) (*capture.Image, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if _, ok := ctx.Deadline(); !ok {
		return p.grab(rect)
	}

	type result struct {
		img *capture.Image
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		img, err := p.grab(rect)
		resCh <- result{img, err}
	}()
	select {
	case r := <-resCh:
		return r.img, r.err
	case <-ctx.Done():
		// The underlying capture finishes in the background; its result
		// is discarded.
		return nil, ctx.Err()
	}
}
