package worker

import (
	"sync"

	"github.com/baharkarakas/autotopup-backend/internal/metrics"
)

type task func()

// Pool runs submitted tasks on a fixed set of goroutines.
type Pool struct {
	wg      sync.WaitGroup
	jobs    chan task
	mu      sync.RWMutex
	stopped bool
}

func NewPool(n, queue int) *Pool {
	if n <= 0 {
		n = 1
	}
	if queue <= 0 {
		queue = 1024
	}
	p := &Pool{jobs: make(chan task, queue)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
				job()
			}
		}()
	}
	return p
}

// Submit queues f, waiting for room. It reports false once the pool is stopped.
func (p *Pool) Submit(f task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	p.jobs <- f
	metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
	return true
}

// TrySubmit queues f only if there is room right now.
func (p *Pool) TrySubmit(f task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- f:
		metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
		return true
	default:
		return false
	}
}

// Pending is the number of queued tasks not yet picked up.
func (p *Pool) Pending() int { return len(p.jobs) }

// Stop drains the queue and waits for running tasks.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
